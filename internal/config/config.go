package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/CodeAndHammer/giftsnipe/internal/constants"
	"github.com/CodeAndHammer/giftsnipe/internal/game"
)

type Config struct {
	Game    GameConfig    `toml:"game"`
	Engine  EngineConfig  `toml:"engine"`
	Presets PresetsConfig `toml:"presets"`
	Logging LoggingConfig `toml:"logging"`
}

// GameConfig holds the settings a new session starts with.
type GameConfig struct {
	Difficulty           string   `toml:"difficulty"`
	Mode                 string   `toml:"mode"`
	GiftSize             float64  `toml:"gift_size"`
	MinSize              float64  `toml:"min_size"`
	MaxSize              float64  `toml:"max_size"`
	RandomSizes          bool     `toml:"random_sizes"`
	CustomSpawnRate      int      `toml:"custom_spawn_rate"`   // ms
	CustomDespawnTime    int      `toml:"custom_despawn_time"` // ms
	CustomDespawnEnabled bool     `toml:"custom_despawn_enabled"`
	CustomEmojis         []string `toml:"custom_emojis"`
}

type EngineConfig struct {
	FirstSpawnDelay time.Duration `toml:"first_spawn_delay"` // 0 disables
	StatsInterval   time.Duration `toml:"stats_interval"`
	MaxGifts        int           `toml:"max_gifts"`
}

type PresetsConfig struct {
	Path string `toml:"path"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if _, err := cfg.DefaultSettings(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadOrDefault is Load, except a missing file yields the defaults.
func LoadOrDefault(path string) (*Config, bool, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return defaults(), false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return cfg, true, nil
}

func defaults() *Config {
	s := game.DefaultSettings()
	return &Config{
		Game: GameConfig{
			Difficulty:           string(s.Difficulty),
			Mode:                 string(s.Mode),
			GiftSize:             s.GiftSize,
			MinSize:              s.MinSize,
			MaxSize:              s.MaxSize,
			RandomSizes:          s.RandomSizes,
			CustomSpawnRate:      s.CustomSpawnRate,
			CustomDespawnTime:    s.CustomDespawnTime,
			CustomDespawnEnabled: s.CustomDespawnEnabled,
			CustomEmojis:         s.CustomEmojis,
		},
		Engine: EngineConfig{
			FirstSpawnDelay: 500 * time.Millisecond,
			StatsInterval:   100 * time.Millisecond,
			MaxGifts:        constants.MaxLiveGifts,
		},
		Presets: PresetsConfig{
			Path: "data/presets.yaml",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// DefaultSettings converts the [game] table into validated engine settings.
// Presentation effects keep their built-in defaults.
func (c *Config) DefaultSettings() (game.Settings, error) {
	s := game.DefaultSettings()
	s.Difficulty = game.Difficulty(c.Game.Difficulty)
	s.Mode = game.Mode(c.Game.Mode)
	s.GiftSize = c.Game.GiftSize
	s.MinSize = c.Game.MinSize
	s.MaxSize = c.Game.MaxSize
	s.RandomSizes = c.Game.RandomSizes
	s.CustomSpawnRate = c.Game.CustomSpawnRate
	s.CustomDespawnTime = c.Game.CustomDespawnTime
	s.CustomDespawnEnabled = c.Game.CustomDespawnEnabled
	if len(c.Game.CustomEmojis) > 0 {
		s.CustomEmojis = append([]string(nil), c.Game.CustomEmojis...)
	}
	if err := s.Validate(); err != nil {
		return game.Settings{}, fmt.Errorf("invalid [game] settings: %w", err)
	}
	return s, nil
}

// EngineOptions returns the engine tuning from the [engine] table.
func (c *Config) EngineOptions() []game.Option {
	opts := []game.Option{game.WithFirstSpawnDelay(max(c.Engine.FirstSpawnDelay, 0))}
	if c.Engine.StatsInterval > 0 {
		opts = append(opts, game.WithStatsInterval(c.Engine.StatsInterval))
	}
	if c.Engine.MaxGifts > 0 {
		opts = append(opts, game.WithMaxGifts(c.Engine.MaxGifts))
	}
	return opts
}

package game

import (
	"errors"
	"fmt"
	"slices"
)

type Difficulty string

const (
	DifficultyEasy       Difficulty = "easy"
	DifficultyMedium     Difficulty = "medium"
	DifficultyHard       Difficulty = "hard"
	DifficultyImpossible Difficulty = "impossible"
	DifficultyCustom     Difficulty = "custom"
)

// Difficulties lists every difficulty in menu order.
var Difficulties = []Difficulty{
	DifficultyEasy,
	DifficultyMedium,
	DifficultyHard,
	DifficultyImpossible,
	DifficultyCustom,
}

type Mode string

const (
	ModeClick Mode = "click"
	ModeHover Mode = "hover"
)

var (
	ErrGameRunning        = errors.New("settings are locked while a game is running")
	ErrInvalidDifficulty  = errors.New("unknown difficulty")
	ErrInvalidMode        = errors.New("unknown mode")
	ErrInvalidSize        = errors.New("gift size must be positive")
	ErrInvalidSizeRange   = errors.New("min size must be positive and below max size")
	ErrInvalidSpawnRate   = errors.New("spawn rate out of range")
	ErrInvalidDespawnTime = errors.New("despawn time out of range")
	ErrNoEmojis           = errors.New("emoji set is empty")
	ErrInvalidEmoji       = errors.New("not an emoji")
	ErrTooManyEmojis      = errors.New("too many emojis")
)

// Custom timing bounds, in milliseconds.
const (
	MinSpawnRate   = 50
	MaxSpawnRate   = 10_000
	MinDespawnTime = 100
	MaxDespawnTime = 60_000
	MaxEmojis      = 64
)

// DefaultEmojis is the emoji set used outside custom difficulty.
var DefaultEmojis = []string{"🎁", "🎀", "📦", "🎊", "✨"}

// Effects are presentation toggles. The engine passes them through to the
// rendering layer untouched.
type Effects struct {
	HoverAnimations   bool    `json:"hoverAnimations" yaml:"hover_animations"`
	ClickAnimations   bool    `json:"clickAnimations" yaml:"click_animations"`
	SpawnAnimations   bool    `json:"spawnAnimations" yaml:"spawn_animations"`
	CollectAnimations bool    `json:"collectAnimations" yaml:"collect_animations"`
	SoundEnabled      bool    `json:"soundEnabled" yaml:"sound_enabled"`
	ParticleEffects   bool    `json:"particleEffects" yaml:"particle_effects"`
	ScreenShake       bool    `json:"screenShake" yaml:"screen_shake"`
	BackgroundEffects bool    `json:"backgroundEffects" yaml:"background_effects"`
	NeonGlow          bool    `json:"neonGlow" yaml:"neon_glow"`
	RainbowMode       bool    `json:"rainbowMode" yaml:"rainbow_mode"`
	StealthMode       bool    `json:"stealthMode" yaml:"stealth_mode"`
	Floating          bool    `json:"floating" yaml:"floating"`
	Gravity           float64 `json:"gravity" yaml:"gravity"`
	Bounce            float64 `json:"bounce" yaml:"bounce"`
	MultiCollect      bool    `json:"multiCollect" yaml:"multi_collect"`
	ComboMode         bool    `json:"comboMode" yaml:"combo_mode"`
	InvertedControls  bool    `json:"invertedControls" yaml:"inverted_controls"`
}

// Settings parameterizes a game. Spawn rate and despawn time are in
// milliseconds and only consulted under custom difficulty.
type Settings struct {
	Difficulty           Difficulty `json:"difficulty"`
	Mode                 Mode       `json:"mode"`
	GiftSize             float64    `json:"giftSize"`
	MinSize              float64    `json:"minSize"`
	MaxSize              float64    `json:"maxSize"`
	RandomSizes          bool       `json:"randomSizes"`
	CustomSpawnRate      int        `json:"customSpawnRate"`
	CustomDespawnTime    int        `json:"customDespawnTime"`
	CustomDespawnEnabled bool       `json:"customDespawnEnabled"`
	CustomEmojis         []string   `json:"customEmojis"`
	Effects              Effects    `json:"effects"`
}

func DefaultSettings() Settings {
	return Settings{
		Difficulty:           DifficultyMedium,
		Mode:                 ModeClick,
		GiftSize:             50,
		MinSize:              30,
		MaxSize:              80,
		RandomSizes:          false,
		CustomSpawnRate:      1000,
		CustomDespawnTime:    3000,
		CustomDespawnEnabled: true,
		CustomEmojis:         slices.Clone(DefaultEmojis),
		Effects: Effects{
			HoverAnimations:   true,
			ClickAnimations:   true,
			SpawnAnimations:   true,
			CollectAnimations: true,
			ParticleEffects:   true,
			BackgroundEffects: true,
			NeonGlow:          true,
		},
	}
}

// Clone returns a copy that shares no slices with s.
func (s Settings) Clone() Settings {
	s.CustomEmojis = slices.Clone(s.CustomEmojis)
	return s
}

// Validate checks the record once, before it reaches an engine.
func (s Settings) Validate() error {
	if !slices.Contains(Difficulties, s.Difficulty) {
		return fmt.Errorf("%w: %q", ErrInvalidDifficulty, s.Difficulty)
	}
	if s.Mode != ModeClick && s.Mode != ModeHover {
		return fmt.Errorf("%w: %q", ErrInvalidMode, s.Mode)
	}
	if s.GiftSize <= 0 {
		return fmt.Errorf("%w: %v", ErrInvalidSize, s.GiftSize)
	}
	if s.MinSize <= 0 || s.MinSize >= s.MaxSize {
		return fmt.Errorf("%w: min %v, max %v", ErrInvalidSizeRange, s.MinSize, s.MaxSize)
	}
	if s.CustomSpawnRate < MinSpawnRate || s.CustomSpawnRate > MaxSpawnRate {
		return fmt.Errorf("%w: %dms, want %d-%dms", ErrInvalidSpawnRate, s.CustomSpawnRate, MinSpawnRate, MaxSpawnRate)
	}
	if s.CustomDespawnEnabled && (s.CustomDespawnTime < MinDespawnTime || s.CustomDespawnTime > MaxDespawnTime) {
		return fmt.Errorf("%w: %dms, want %d-%dms", ErrInvalidDespawnTime, s.CustomDespawnTime, MinDespawnTime, MaxDespawnTime)
	}
	if len(s.CustomEmojis) == 0 {
		return ErrNoEmojis
	}
	if len(s.CustomEmojis) > MaxEmojis {
		return fmt.Errorf("%w: %d, max %d", ErrTooManyEmojis, len(s.CustomEmojis), MaxEmojis)
	}
	for _, e := range s.CustomEmojis {
		if !ValidEmoji(e) {
			return fmt.Errorf("%w: %q", ErrInvalidEmoji, e)
		}
	}
	return nil
}

// ActiveEmojis returns the custom set under custom difficulty and the
// default set otherwise.
func (s Settings) ActiveEmojis() []string {
	if s.Difficulty == DifficultyCustom && len(s.CustomEmojis) > 0 {
		return s.CustomEmojis
	}
	return DefaultEmojis
}

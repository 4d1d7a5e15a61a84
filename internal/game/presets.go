package game

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"sort"

	"github.com/samber/lo"
)

// PresetRandom is generated on demand instead of read from a table.
const PresetRandom = "random"

var ErrUnknownPreset = errors.New("unknown preset")

// Preset overrides a subset of Settings. Nil fields leave the current
// value alone.
type Preset struct {
	Name                 string   `yaml:"name"`
	CustomSpawnRate      *int     `yaml:"custom_spawn_rate"`
	CustomDespawnTime    *int     `yaml:"custom_despawn_time"`
	CustomDespawnEnabled *bool    `yaml:"custom_despawn_enabled"`
	RandomSizes          *bool    `yaml:"random_sizes"`
	GiftSize             *float64 `yaml:"gift_size"`
	MinSize              *float64 `yaml:"min_size"`
	MaxSize              *float64 `yaml:"max_size"`
	RainbowMode          *bool    `yaml:"rainbow_mode"`
	Floating             *bool    `yaml:"floating"`
	Gravity              *float64 `yaml:"gravity"`
	MultiCollect         *bool    `yaml:"multi_collect"`
	StealthMode          *bool    `yaml:"stealth_mode"`
}

// Apply returns s with the preset's overrides. Presets only tune the
// custom difficulty values, so the result keeps s's difficulty.
func (p Preset) Apply(s Settings) Settings {
	out := s.Clone()
	setIf(&out.CustomSpawnRate, p.CustomSpawnRate)
	setIf(&out.CustomDespawnTime, p.CustomDespawnTime)
	setIf(&out.CustomDespawnEnabled, p.CustomDespawnEnabled)
	setIf(&out.RandomSizes, p.RandomSizes)
	setIf(&out.GiftSize, p.GiftSize)
	setIf(&out.MinSize, p.MinSize)
	setIf(&out.MaxSize, p.MaxSize)
	setIf(&out.Effects.RainbowMode, p.RainbowMode)
	setIf(&out.Effects.Floating, p.Floating)
	setIf(&out.Effects.Gravity, p.Gravity)
	setIf(&out.Effects.MultiCollect, p.MultiCollect)
	setIf(&out.Effects.StealthMode, p.StealthMode)
	return out
}

func setIf[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

// DefaultPresets returns the built-in preset table.
func DefaultPresets() map[string]Preset {
	return map[string]Preset{
		"chaos": {
			Name:                 "chaos",
			CustomSpawnRate:      lo.ToPtr(100),
			CustomDespawnTime:    lo.ToPtr(800),
			CustomDespawnEnabled: lo.ToPtr(true),
			RandomSizes:          lo.ToPtr(true),
			MinSize:              lo.ToPtr(15.0),
			MaxSize:              lo.ToPtr(100.0),
			RainbowMode:          lo.ToPtr(true),
			Floating:             lo.ToPtr(true),
			Gravity:              lo.ToPtr(2.0),
			MultiCollect:         lo.ToPtr(true),
		},
		"zen": {
			Name:                 "zen",
			CustomSpawnRate:      lo.ToPtr(2000),
			CustomDespawnEnabled: lo.ToPtr(false),
			RandomSizes:          lo.ToPtr(false),
			GiftSize:             lo.ToPtr(60.0),
			RainbowMode:          lo.ToPtr(false),
			Floating:             lo.ToPtr(true),
			Gravity:              lo.ToPtr(0.0),
			StealthMode:          lo.ToPtr(false),
		},
		"speed": {
			Name:                 "speed",
			CustomSpawnRate:      lo.ToPtr(50),
			CustomDespawnTime:    lo.ToPtr(500),
			CustomDespawnEnabled: lo.ToPtr(true),
			RandomSizes:          lo.ToPtr(true),
			MinSize:              lo.ToPtr(20.0),
			MaxSize:              lo.ToPtr(40.0),
			Gravity:              lo.ToPtr(3.0),
		},
	}
}

// RandomPreset rolls a fresh random preset.
func RandomPreset(rng *rand.Rand) Preset {
	return Preset{
		Name:                 PresetRandom,
		CustomSpawnRate:      lo.ToPtr(int(math.Round(rng.Float64()*2000 + 100))),
		CustomDespawnTime:    lo.ToPtr(int(math.Round(rng.Float64()*5000 + 500))),
		CustomDespawnEnabled: lo.ToPtr(rng.Float64() > 0.5),
		RandomSizes:          lo.ToPtr(rng.Float64() > 0.5),
		MinSize:              lo.ToPtr(rng.Float64()*30 + 10),
		MaxSize:              lo.ToPtr(rng.Float64()*50 + 60),
		RainbowMode:          lo.ToPtr(rng.Float64() > 0.7),
		Floating:             lo.ToPtr(rng.Float64() > 0.5),
		Gravity:              lo.ToPtr(rng.Float64() * 3),
		StealthMode:          lo.ToPtr(rng.Float64() > 0.8),
	}
}

// LookupPreset resolves name against table, rolling a new preset for
// PresetRandom.
func LookupPreset(table map[string]Preset, name string, rng *rand.Rand) (Preset, error) {
	if name == PresetRandom {
		return RandomPreset(rng), nil
	}
	p, ok := table[name]
	if !ok {
		return Preset{}, fmt.Errorf("%w: %q", ErrUnknownPreset, name)
	}
	return p, nil
}

// PresetNames lists the table's presets plus PresetRandom, sorted.
func PresetNames(table map[string]Preset) []string {
	names := lo.Uniq(append(lo.Keys(table), PresetRandom))
	sort.Strings(names)
	return names
}

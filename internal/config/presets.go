package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/CodeAndHammer/giftsnipe/internal/game"
)

// LoadPresets loads presets.yaml, a list of named setting overrides.
func LoadPresets(path string) (map[string]game.Preset, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read presets: %w", err)
	}
	var entries []game.Preset
	if err := yaml.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("parse presets: %w", err)
	}

	table := make(map[string]game.Preset, len(entries))
	for i, p := range entries {
		switch {
		case p.Name == "":
			return nil, fmt.Errorf("preset #%d has no name", i+1)
		case p.Name == game.PresetRandom:
			return nil, fmt.Errorf("preset name %q is reserved", p.Name)
		}
		if _, dup := table[p.Name]; dup {
			return nil, fmt.Errorf("duplicate preset %q", p.Name)
		}
		if err := p.Apply(game.DefaultSettings()).Validate(); err != nil {
			return nil, fmt.Errorf("preset %q: %w", p.Name, err)
		}
		table[p.Name] = p
	}
	return table, nil
}

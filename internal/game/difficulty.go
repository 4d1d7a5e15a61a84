package game

import "time"

// SpawnConfig is a resolved difficulty. A zero DespawnTime means gifts
// never expire.
type SpawnConfig struct {
	SpawnRate   time.Duration `json:"spawnRate"`
	DespawnTime time.Duration `json:"despawnTime"`
}

// Expires reports whether spawned gifts get a despawn timer.
func (c SpawnConfig) Expires() bool {
	return c.DespawnTime > 0
}

var difficultyTable = map[Difficulty]SpawnConfig{
	DifficultyEasy:       {SpawnRate: 1500 * time.Millisecond},
	DifficultyMedium:     {SpawnRate: 1000 * time.Millisecond},
	DifficultyHard:       {SpawnRate: 700 * time.Millisecond, DespawnTime: 4000 * time.Millisecond},
	DifficultyImpossible: {SpawnRate: 400 * time.Millisecond, DespawnTime: 2000 * time.Millisecond},
}

// ResolveSpawnConfig maps the settings' difficulty to spawn timing. Custom
// difficulty reads the user-set values; unknown names fall back to medium.
func ResolveSpawnConfig(s Settings) SpawnConfig {
	if s.Difficulty == DifficultyCustom {
		cfg := SpawnConfig{SpawnRate: time.Duration(s.CustomSpawnRate) * time.Millisecond}
		if s.CustomDespawnEnabled {
			cfg.DespawnTime = time.Duration(s.CustomDespawnTime) * time.Millisecond
		}
		return cfg
	}
	if cfg, ok := difficultyTable[s.Difficulty]; ok {
		return cfg
	}
	return difficultyTable[DifficultyMedium]
}

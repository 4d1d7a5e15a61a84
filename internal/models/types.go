package models

import (
	"math/rand/v2"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/CodeAndHammer/giftsnipe/internal/clock"
	"github.com/CodeAndHammer/giftsnipe/internal/game"
	"github.com/CodeAndHammer/giftsnipe/internal/realtime"
)

// Session is one player's game. Engine and Arena belong to the clock loop:
// touch them only from inside App.Loop.Do.
type Session struct {
	ID             string
	Engine         *game.Engine
	Arena          *game.ArenaSize
	Hub            *realtime.Broadcaster
	LastAccessTime time.Time
}

// RateLimiterEntry represents a rate limiter entry for a client IP and scope
type RateLimiterEntry struct {
	Limiter        *rate.Limiter
	LastAccessTime time.Time
}

type App struct {
	Loop *clock.Loop

	Sessions     map[string]*Session
	SessionMutex sync.RWMutex
	LimiterMap   map[string]*RateLimiterEntry
	LimiterMutex sync.RWMutex

	Presets         map[string]game.Preset
	DefaultSettings game.Settings
	EngineOptions   []game.Option
	// PresetRand rolls random presets. Loop goroutine only.
	PresetRand *rand.Rand

	IsProduction    bool
	StartTime       time.Time
	CookieMaxAge    time.Duration
	StaticCacheAge  time.Duration
	RateLimitRPS    int
	RateLimitBurst  int
	CollectRPS      int
	CollectBurst    int
	RateLimiterTTL  time.Duration
	SessionTimeout  time.Duration
	CleanupInterval time.Duration
	KeepAlive       time.Duration
}

package game

import "time"

// Gift is a live, collectible entity. X and Y are the gift's center.
type Gift struct {
	ID        string    `json:"id"`
	X         float64   `json:"x"`
	Y         float64   `json:"y"`
	Size      float64   `json:"size"`
	SpawnTime time.Time `json:"spawnTime"`
	Emoji     string    `json:"emoji"`
}

// Stats is the per-game scoreboard, reset by Start.
type Stats struct {
	Score      int     `json:"score"`
	GiftCount  int     `json:"giftCount"`
	CurrentGPS int     `json:"currentGPS"`
	AverageGPS float64 `json:"averageGPS"`
	PeakGPS    int     `json:"peakGPS"`
	GameTime   int     `json:"gameTime"`
}

type RemovalReason string

const (
	RemovedCollected RemovalReason = "collected"
	RemovedExpired   RemovalReason = "expired"
)

// Observer receives engine events. Calls are made from scheduler callbacks
// and must not block.
type Observer interface {
	OnGiftSpawned(gift Gift)
	OnGiftRemoved(id string, reason RemovalReason)
	OnStatsUpdated(stats Stats)
	OnGameStarted(settings Settings)
	OnGameStopped(final Stats)
}

type NopObserver struct{}

func (NopObserver) OnGiftSpawned(Gift)                  {}
func (NopObserver) OnGiftRemoved(string, RemovalReason) {}
func (NopObserver) OnStatsUpdated(Stats)                {}
func (NopObserver) OnGameStarted(Settings)              {}
func (NopObserver) OnGameStopped(Stats)                 {}

// Arena reports the current usable play area.
type Arena interface {
	Bounds() (width, height float64)
}

type ArenaFunc func() (width, height float64)

func (f ArenaFunc) Bounds() (float64, float64) { return f() }

// ArenaSize is an Arena holding the dimensions last reported by the client.
type ArenaSize struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (a *ArenaSize) Bounds() (float64, float64) {
	return a.Width, a.Height
}

package game

import (
	"math"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/CodeAndHammer/giftsnipe/internal/clock"
	"github.com/CodeAndHammer/giftsnipe/internal/constants"
	"github.com/CodeAndHammer/giftsnipe/internal/util"
)

// Engine owns one game: its settings, live gifts, scoreboard and timers.
// All methods must be called from the scheduler's goroutine (timer
// callbacks or clock.Loop.Do); the engine holds no locks.
type Engine struct {
	sched    clock.Scheduler
	arena    Arena
	observer Observer
	rng      *rand.Rand
	newID    func() string

	firstSpawnDelay time.Duration
	statsInterval   time.Duration
	maxGifts        int

	settings Settings
	active   SpawnConfig
	running  bool

	startedAt   time.Time
	stats       Stats
	gifts       []Gift
	collections []time.Time

	spawnTimer clock.TimerID
	kickTimer  clock.TimerID
	statsTimer clock.TimerID
	despawns   map[string]clock.TimerID
}

type Option func(*Engine)

func WithRand(rng *rand.Rand) Option {
	return func(e *Engine) { e.rng = rng }
}

// WithFirstSpawnDelay sets the one-off spawn armed by Start ahead of the
// regular interval. Zero disables it.
func WithFirstSpawnDelay(d time.Duration) Option {
	return func(e *Engine) { e.firstSpawnDelay = d }
}

func WithStatsInterval(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.statsInterval = d
		}
	}
}

// WithMaxGifts caps the live gift set; spawn ticks at the cap are skipped.
func WithMaxGifts(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxGifts = n
		}
	}
}

// WithIDGenerator replaces the UUID gift ids. The generator must never
// repeat a value.
func WithIDGenerator(fn func() string) Option {
	return func(e *Engine) { e.newID = fn }
}

// WithSettings seeds the engine with s instead of DefaultSettings. Invalid
// settings are ignored.
func WithSettings(s Settings) Option {
	return func(e *Engine) {
		if err := s.Validate(); err != nil {
			util.LogWarn("Ignoring invalid initial settings: %v", err)
			return
		}
		e.settings = s.Clone()
	}
}

func NewEngine(sched clock.Scheduler, arena Arena, observer Observer, opts ...Option) *Engine {
	if observer == nil {
		observer = NopObserver{}
	}
	e := &Engine{
		sched:           sched,
		arena:           arena,
		observer:        observer,
		rng:             rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		newID:           uuid.NewString,
		firstSpawnDelay: constants.FirstSpawnDelay,
		statsInterval:   constants.StatsInterval,
		maxGifts:        constants.MaxLiveGifts,
		settings:        DefaultSettings(),
		despawns:        make(map[string]clock.TimerID),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Running() bool {
	return e.running
}

func (e *Engine) Settings() Settings {
	return e.settings.Clone()
}

func (e *Engine) Stats() Stats {
	return e.stats
}

// Gifts returns the live gifts in spawn order.
func (e *Engine) Gifts() []Gift {
	return slices.Clone(e.gifts)
}

// PendingDespawns returns how many despawn timers are armed.
func (e *Engine) PendingDespawns() int {
	return len(e.despawns)
}

// ActiveConfig returns the spawn config resolved at the last Start.
func (e *Engine) ActiveConfig() SpawnConfig {
	return e.active
}

// UpdateSettings replaces the settings. It fails with ErrGameRunning while
// a game is in progress, leaving the current settings in place.
func (e *Engine) UpdateSettings(s Settings) error {
	if e.running {
		util.LogDebug("Settings change rejected: game running")
		return ErrGameRunning
	}
	if err := s.Validate(); err != nil {
		return err
	}
	e.settings = s.Clone()
	return nil
}

// Start resets the scoreboard and gift set and begins spawning. It reports
// false, doing nothing, when a game is already running.
func (e *Engine) Start() bool {
	if e.running {
		return false
	}

	e.cancelTimers()
	e.gifts = nil
	e.collections = nil
	e.stats = Stats{}
	e.active = ResolveSpawnConfig(e.settings)
	e.startedAt = e.sched.Now()
	e.running = true

	e.spawnTimer = e.sched.Every(e.active.SpawnRate, e.spawn)
	e.statsTimer = e.sched.Every(e.statsInterval, e.sample)
	if e.firstSpawnDelay > 0 {
		e.kickTimer = e.sched.After(e.firstSpawnDelay, func() {
			e.kickTimer = 0
			e.spawn()
		})
	}

	util.LogInfo("Game started (mode: %s, difficulty: %s, spawn every %v, despawn after %v)",
		e.settings.Mode, e.settings.Difficulty, e.active.SpawnRate, e.active.DespawnTime)
	e.observer.OnGameStarted(e.settings.Clone())
	return true
}

// Stop cancels every timer and clears the gift set. It reports false when
// no game is running.
func (e *Engine) Stop() bool {
	if !e.running {
		return false
	}

	e.running = false
	e.cancelTimers()
	e.gifts = nil

	final := e.stats
	util.LogInfo("Game stopped (final score: %s, gifts: %d, peak GPS: %d)",
		util.FormatScore(final.Score), final.GiftCount, final.PeakGPS)
	e.observer.OnGameStopped(final)
	return true
}

// Collect scores the live gift with the given id. Unknown, expired or
// already collected ids are ignored and report false.
func (e *Engine) Collect(id string) bool {
	idx := e.indexOf(id)
	if idx < 0 {
		return false
	}

	if timer, ok := e.despawns[id]; ok {
		e.sched.Cancel(timer)
		delete(e.despawns, id)
	}
	e.gifts = slices.Delete(e.gifts, idx, idx+1)

	now := e.sched.Now()
	e.collections = append(e.collections, now)
	e.pruneCollections(now)

	e.stats.Score += constants.PointsPerGift
	e.stats.GiftCount++

	e.observer.OnGiftRemoved(id, RemovedCollected)
	return true
}

func (e *Engine) spawn() {
	if !e.running {
		return
	}
	if len(e.gifts) >= e.maxGifts {
		util.LogDebug("Skipping spawn: %d gifts already live", len(e.gifts))
		return
	}

	width, height := e.arena.Bounds()
	size := e.nextSize()
	usableW := width - 2*size
	usableH := height - 2*size
	if width <= 0 || height <= 0 || usableW < 0 || usableH < 0 {
		util.LogDebug("Skipping spawn: arena %.0fx%.0f cannot fit gift of size %.0f", width, height, size)
		return
	}

	id := e.newID()
	if e.indexOf(id) >= 0 {
		util.LogWarn("Skipping spawn: duplicate gift id %s", id)
		return
	}

	emojis := e.settings.ActiveEmojis()
	gift := Gift{
		ID:        id,
		X:         e.rng.Float64()*usableW + size,
		Y:         e.rng.Float64()*usableH + size,
		Size:      size,
		SpawnTime: e.sched.Now(),
		Emoji:     emojis[e.rng.IntN(len(emojis))],
	}
	e.gifts = append(e.gifts, gift)
	e.observer.OnGiftSpawned(gift)

	if e.active.Expires() {
		e.despawns[id] = e.sched.After(e.active.DespawnTime, func() {
			e.expire(id)
		})
	}
}

func (e *Engine) expire(id string) {
	delete(e.despawns, id)
	idx := e.indexOf(id)
	if idx < 0 {
		return
	}
	e.gifts = slices.Delete(e.gifts, idx, idx+1)
	e.observer.OnGiftRemoved(id, RemovedExpired)
}

func (e *Engine) sample() {
	if !e.running {
		return
	}

	now := e.sched.Now()
	e.stats.GameTime = int(now.Sub(e.startedAt) / time.Second)

	e.pruneCollections(now)
	e.stats.CurrentGPS = len(e.collections)

	if e.stats.GameTime > 0 {
		e.stats.AverageGPS = math.Round(float64(e.stats.GiftCount)/float64(e.stats.GameTime)*100) / 100
	} else {
		e.stats.AverageGPS = 0
	}
	e.stats.PeakGPS = max(e.stats.PeakGPS, e.stats.CurrentGPS)

	e.observer.OnStatsUpdated(e.stats)
}

func (e *Engine) nextSize() float64 {
	if e.settings.RandomSizes {
		return e.rng.Float64()*(e.settings.MaxSize-e.settings.MinSize) + e.settings.MinSize
	}
	return e.settings.GiftSize
}

func (e *Engine) pruneCollections(now time.Time) {
	cutoff := now.Add(-constants.GPSWindow)
	e.collections = lo.Filter(e.collections, func(t time.Time, _ int) bool {
		return t.After(cutoff)
	})
}

func (e *Engine) indexOf(id string) int {
	return slices.IndexFunc(e.gifts, func(g Gift) bool { return g.ID == id })
}

func (e *Engine) cancelTimers() {
	for _, id := range []*clock.TimerID{&e.spawnTimer, &e.kickTimer, &e.statsTimer} {
		if *id != 0 {
			e.sched.Cancel(*id)
			*id = 0
		}
	}
	for giftID, timer := range e.despawns {
		e.sched.Cancel(timer)
		delete(e.despawns, giftID)
	}
}

package game

import (
	"fmt"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/CodeAndHammer/giftsnipe/internal/clock"
	"github.com/CodeAndHammer/giftsnipe/internal/constants"
)

var testEpoch = time.Date(2024, 12, 24, 18, 0, 0, 0, time.UTC)

type removal struct {
	id     string
	reason RemovalReason
}

type recorder struct {
	spawned []Gift
	removed []removal
	stats   []Stats
	started []Settings
	stopped []Stats
}

func (r *recorder) OnGiftSpawned(g Gift) { r.spawned = append(r.spawned, g) }
func (r *recorder) OnGiftRemoved(id string, reason RemovalReason) {
	r.removed = append(r.removed, removal{id, reason})
}
func (r *recorder) OnStatsUpdated(s Stats)    { r.stats = append(r.stats, s) }
func (r *recorder) OnGameStarted(s Settings) { r.started = append(r.started, s) }
func (r *recorder) OnGameStopped(s Stats)    { r.stopped = append(r.stopped, s) }

func (r *recorder) lastStats() Stats {
	if len(r.stats) == 0 {
		return Stats{}
	}
	return r.stats[len(r.stats)-1]
}

type harness struct {
	queue  *clock.Queue
	arena  *ArenaSize
	rec    *recorder
	engine *Engine
}

func newHarness(t *testing.T, s Settings, opts ...Option) *harness {
	t.Helper()
	h := &harness{
		queue: clock.NewQueue(testEpoch),
		arena: &ArenaSize{Width: 800, Height: 600},
		rec:   &recorder{},
	}
	next := 0
	base := []Option{
		WithRand(rand.New(rand.NewPCG(7, 11))),
		WithIDGenerator(func() string {
			next++
			return fmt.Sprintf("gift-%d", next)
		}),
	}
	h.engine = NewEngine(h.queue, h.arena, h.rec, append(base, opts...)...)
	if err := h.engine.UpdateSettings(s); err != nil {
		t.Fatalf("UpdateSettings() error = %v", err)
	}
	return h
}

func customSettings(spawnMs, despawnMs int) Settings {
	s := DefaultSettings()
	s.Difficulty = DifficultyCustom
	s.CustomSpawnRate = spawnMs
	s.CustomDespawnEnabled = despawnMs > 0
	if despawnMs > 0 {
		s.CustomDespawnTime = despawnMs
	}
	return s
}

func TestEngine_StartStopLifecycle(t *testing.T) {
	h := newHarness(t, DefaultSettings())

	if !h.engine.Start() {
		t.Fatal("Start() from idle returned false")
	}
	if h.engine.Start() {
		t.Error("Start() while running returned true")
	}
	if len(h.rec.started) != 1 {
		t.Errorf("OnGameStarted called %d times, want 1", len(h.rec.started))
	}

	h.queue.Advance(3 * time.Second)
	if !h.engine.Stop() {
		t.Fatal("Stop() while running returned false")
	}
	if h.engine.Stop() {
		t.Error("second Stop() returned true")
	}
	if len(h.rec.stopped) != 1 {
		t.Errorf("OnGameStopped called %d times, want 1", len(h.rec.stopped))
	}
	if h.engine.Running() {
		t.Error("Running() = true after Stop")
	}
}

func TestEngine_StopLeavesNothingScheduled(t *testing.T) {
	h := newHarness(t, customSettings(200, 5000))
	for round := 0; round < 3; round++ {
		h.engine.Start()
		h.queue.Advance(1500 * time.Millisecond)
		if len(h.engine.Gifts()) == 0 {
			t.Fatalf("round %d: no gifts spawned", round)
		}
		h.engine.Stop()

		if n := len(h.engine.Gifts()); n != 0 {
			t.Errorf("round %d: %d gifts live after Stop", round, n)
		}
		if n := h.queue.Pending(); n != 0 {
			t.Errorf("round %d: %d timers pending after Stop", round, n)
		}
		if n := h.engine.PendingDespawns(); n != 0 {
			t.Errorf("round %d: %d despawn handles after Stop", round, n)
		}
	}

	spawnedBefore := len(h.rec.spawned)
	h.queue.Advance(10 * time.Second)
	if len(h.rec.spawned) != spawnedBefore {
		t.Error("gifts spawned after Stop")
	}
}

func TestEngine_StopTwiceMatchesStopOnce(t *testing.T) {
	h := newHarness(t, customSettings(300, 0))
	h.engine.Start()
	h.queue.Advance(time.Second)
	h.engine.Stop()
	statsOnce := h.engine.Stats()
	pendingOnce := h.queue.Pending()

	h.engine.Stop()
	if h.engine.Stats() != statsOnce || h.queue.Pending() != pendingOnce || len(h.engine.Gifts()) != 0 {
		t.Error("second Stop() changed engine state")
	}
	if len(h.rec.stopped) != 1 {
		t.Errorf("OnGameStopped called %d times, want 1", len(h.rec.stopped))
	}
}

// 1000ms interval, no despawn: after 2.5s the 500ms kick plus ticks at 1s
// and 2s have spawned.
func TestEngine_SpawnCadence(t *testing.T) {
	h := newHarness(t, customSettings(1000, 0))
	h.engine.Start()
	h.queue.Advance(2500 * time.Millisecond)

	if got := len(h.rec.spawned); got != 3 {
		t.Errorf("spawned %d gifts after 2.5s, want 3 (kick + 2 ticks)", got)
	}
	if len(h.rec.removed) != 0 {
		t.Errorf("got %d removals, want 0", len(h.rec.removed))
	}
	if h.engine.PendingDespawns() != 0 {
		t.Error("despawn timers armed with despawn disabled")
	}
}

func TestEngine_NoFirstSpawnKick(t *testing.T) {
	h := newHarness(t, customSettings(1000, 0), WithFirstSpawnDelay(0))
	h.engine.Start()
	h.queue.Advance(2500 * time.Millisecond)
	if got := len(h.rec.spawned); got != 2 {
		t.Errorf("spawned %d gifts, want 2", got)
	}
}

func TestEngine_CollectImmediately(t *testing.T) {
	h := newHarness(t, customSettings(1000, 2000))
	h.engine.Start()
	h.queue.Advance(500 * time.Millisecond)
	if len(h.rec.spawned) != 1 {
		t.Fatalf("spawned %d gifts, want 1", len(h.rec.spawned))
	}
	id := h.rec.spawned[0].ID

	if !h.engine.Collect(id) {
		t.Fatal("Collect() of a live gift returned false")
	}
	stats := h.engine.Stats()
	if stats.GiftCount != 1 || stats.Score != 10 {
		t.Errorf("stats = %+v, want giftCount 1, score 10", stats)
	}
	if len(h.engine.Gifts()) != 0 {
		t.Error("collected gift still live")
	}
	if h.engine.PendingDespawns() != 0 {
		t.Error("despawn timer still armed for collected gift")
	}
	if len(h.rec.removed) != 1 || h.rec.removed[0] != (removal{id, RemovedCollected}) {
		t.Errorf("removals = %+v, want one collected", h.rec.removed)
	}
}

func TestEngine_CollectedGiftNeverExpires(t *testing.T) {
	h := newHarness(t, customSettings(10_000, 2000))
	h.engine.Start()
	h.queue.Advance(500 * time.Millisecond)
	id := h.rec.spawned[0].ID
	h.engine.Collect(id)

	h.queue.Advance(5 * time.Second)
	for _, r := range h.rec.removed {
		if r.reason == RemovedExpired {
			t.Errorf("collected gift %s later expired", r.id)
		}
	}
}

func TestEngine_UncollectedGiftExpires(t *testing.T) {
	h := newHarness(t, customSettings(10_000, 2000))
	h.engine.Start()
	h.queue.Advance(500 * time.Millisecond)
	id := h.rec.spawned[0].ID

	h.queue.Advance(1999 * time.Millisecond)
	if len(h.engine.Gifts()) != 1 {
		t.Fatal("gift removed before its despawn time")
	}
	h.queue.Advance(time.Millisecond)

	if len(h.engine.Gifts()) != 0 {
		t.Error("gift still live after despawn time")
	}
	if len(h.rec.removed) != 1 || h.rec.removed[0] != (removal{id, RemovedExpired}) {
		t.Errorf("removals = %+v, want one expired", h.rec.removed)
	}
	if h.engine.Stats().GiftCount != 0 {
		t.Errorf("GiftCount = %d after expiry, want 0", h.engine.Stats().GiftCount)
	}
	if h.engine.PendingDespawns() != 0 {
		t.Error("despawn handle kept after expiry")
	}
}

func TestEngine_ExpiredGiftCannotBeCollected(t *testing.T) {
	h := newHarness(t, customSettings(10_000, 1000))
	h.engine.Start()
	h.queue.Advance(1500 * time.Millisecond)
	id := h.rec.spawned[0].ID
	before := h.engine.Stats()

	if h.engine.Collect(id) {
		t.Error("Collect() of an expired gift returned true")
	}
	if h.engine.Stats() != before {
		t.Error("collecting an expired gift changed stats")
	}
}

func TestEngine_DoubleCollectIsNoop(t *testing.T) {
	h := newHarness(t, customSettings(1000, 0))
	h.engine.Start()
	h.queue.Advance(500 * time.Millisecond)
	id := h.rec.spawned[0].ID

	h.engine.Collect(id)
	if h.engine.Collect(id) {
		t.Error("second Collect() returned true")
	}
	if h.engine.Collect("no-such-gift") {
		t.Error("Collect() of unknown id returned true")
	}
	if got := h.engine.Stats().Score; got != 10 {
		t.Errorf("Score = %d, want 10", got)
	}
}

func TestEngine_AverageGPSZeroAtStart(t *testing.T) {
	h := newHarness(t, customSettings(100, 0))
	h.engine.Start()
	h.queue.Advance(100 * time.Millisecond)
	h.engine.Collect(h.engine.Gifts()[0].ID)
	h.queue.Advance(100 * time.Millisecond)

	s := h.rec.lastStats()
	if s.GameTime != 0 {
		t.Fatalf("GameTime = %d, want 0", s.GameTime)
	}
	if s.AverageGPS != 0 {
		t.Errorf("AverageGPS = %v at gameTime 0, want exactly 0", s.AverageGPS)
	}
}

func TestEngine_GPSWindowAndPeak(t *testing.T) {
	h := newHarness(t, customSettings(100, 0), WithFirstSpawnDelay(0))
	h.engine.Start()
	h.queue.Advance(550 * time.Millisecond)
	gifts := h.engine.Gifts()
	if len(gifts) < 5 {
		t.Fatalf("only %d gifts live, need 5", len(gifts))
	}
	for _, g := range gifts[:5] {
		h.engine.Collect(g.ID)
	}

	h.queue.Advance(50 * time.Millisecond)
	if s := h.rec.lastStats(); s.CurrentGPS != 5 || s.PeakGPS != 5 {
		t.Errorf("after 5 quick collections stats = %+v, want currentGPS 5, peakGPS 5", s)
	}

	h.queue.Advance(time.Second)
	s := h.rec.lastStats()
	if s.CurrentGPS != 0 {
		t.Errorf("CurrentGPS = %d one second later, want 0", s.CurrentGPS)
	}
	if s.PeakGPS != 5 {
		t.Errorf("PeakGPS = %d, want 5", s.PeakGPS)
	}
}

func TestEngine_ScoreAndPeakConsistency(t *testing.T) {
	h := newHarness(t, customSettings(150, 900))
	h.engine.Start()

	prevPeak := 0
	for step := 0; step < 80; step++ {
		h.queue.Advance(50 * time.Millisecond)
		if step%3 == 0 {
			if gifts := h.engine.Gifts(); len(gifts) > 0 {
				h.engine.Collect(gifts[0].ID)
			}
		}
		s := h.engine.Stats()
		if s.Score != s.GiftCount*constants.PointsPerGift {
			t.Fatalf("step %d: score %d != giftCount %d x %d", step, s.Score, s.GiftCount, constants.PointsPerGift)
		}
		if s.PeakGPS < s.CurrentGPS {
			t.Fatalf("step %d: peakGPS %d < currentGPS %d", step, s.PeakGPS, s.CurrentGPS)
		}
		if s.PeakGPS < prevPeak {
			t.Fatalf("step %d: peakGPS decreased from %d to %d", step, prevPeak, s.PeakGPS)
		}
		prevPeak = s.PeakGPS
	}
}

func TestEngine_AverageGPSRounding(t *testing.T) {
	h := newHarness(t, customSettings(100, 0), WithFirstSpawnDelay(0))
	h.engine.Start()
	h.queue.Advance(300 * time.Millisecond)
	for _, g := range h.engine.Gifts()[:2] {
		h.engine.Collect(g.ID)
	}
	h.queue.AdvanceTo(testEpoch.Add(3 * time.Second))

	s := h.rec.lastStats()
	if s.GameTime != 3 {
		t.Fatalf("GameTime = %d, want 3", s.GameTime)
	}
	if s.AverageGPS != 0.67 {
		t.Errorf("AverageGPS = %v, want 0.67", s.AverageGPS)
	}
}

func TestEngine_GiftsStayInsideArena(t *testing.T) {
	s := customSettings(50, 0)
	s.RandomSizes = true
	s.MinSize = 20
	s.MaxSize = 90
	h := newHarness(t, s)
	h.arena.Width, h.arena.Height = 400, 300
	h.engine.Start()
	h.queue.Advance(5 * time.Second)

	if len(h.rec.spawned) < 50 {
		t.Fatalf("spawned %d gifts, want at least 50", len(h.rec.spawned))
	}
	seen := make(map[string]bool)
	for _, g := range h.rec.spawned {
		if seen[g.ID] {
			t.Errorf("duplicate gift id %s", g.ID)
		}
		seen[g.ID] = true
		if g.Size < 20 || g.Size > 90 {
			t.Errorf("gift size %v outside [20, 90]", g.Size)
		}
		half := g.Size / 2
		if g.X-half < 0 || g.X+half > 400 || g.Y-half < 0 || g.Y+half > 300 {
			t.Errorf("gift %s at (%v, %v) size %v leaves the arena", g.ID, g.X, g.Y, g.Size)
		}
	}
}

func TestEngine_FixedSizeAndDefaultEmojis(t *testing.T) {
	s := DefaultSettings()
	s.GiftSize = 42
	s.CustomEmojis = []string{"🚀"}
	h := newHarness(t, s)
	h.engine.Start()
	h.queue.Advance(3 * time.Second)

	for _, g := range h.rec.spawned {
		if g.Size != 42 {
			t.Errorf("gift size = %v, want 42", g.Size)
		}
		if g.Emoji == "🚀" {
			t.Error("custom emoji used outside custom difficulty")
		}
	}
}

func TestEngine_CustomEmojis(t *testing.T) {
	s := customSettings(200, 0)
	s.CustomEmojis = []string{"🚀", "🌟"}
	h := newHarness(t, s)
	h.engine.Start()
	h.queue.Advance(2 * time.Second)

	for _, g := range h.rec.spawned {
		if g.Emoji != "🚀" && g.Emoji != "🌟" {
			t.Errorf("gift emoji %q not in custom set", g.Emoji)
		}
	}
}

func TestEngine_ZeroArenaSkipsSpawn(t *testing.T) {
	h := newHarness(t, customSettings(100, 1000))
	h.arena.Width, h.arena.Height = 0, 0
	h.engine.Start()
	h.queue.Advance(time.Second)
	if len(h.rec.spawned) != 0 {
		t.Fatalf("spawned %d gifts in a zero-size arena", len(h.rec.spawned))
	}

	h.arena.Width, h.arena.Height = 60, 600
	h.queue.Advance(time.Second)
	if len(h.rec.spawned) != 0 {
		t.Fatal("spawned gifts in an arena narrower than two gift sizes")
	}

	h.arena.Width, h.arena.Height = 800, 600
	h.queue.Advance(time.Second)
	if len(h.rec.spawned) == 0 {
		t.Error("no gifts spawned once the arena was laid out")
	}
}

func TestEngine_SettingsLockedWhileRunning(t *testing.T) {
	h := newHarness(t, DefaultSettings())
	h.engine.Start()

	changed := DefaultSettings()
	changed.Difficulty = DifficultyImpossible
	if err := h.engine.UpdateSettings(changed); err != ErrGameRunning {
		t.Errorf("UpdateSettings() while running = %v, want ErrGameRunning", err)
	}
	if h.engine.Settings().Difficulty != DifficultyMedium {
		t.Error("settings changed while running")
	}

	h.engine.Stop()
	if err := h.engine.UpdateSettings(changed); err != nil {
		t.Errorf("UpdateSettings() while idle = %v", err)
	}
	if h.engine.Settings().Difficulty != DifficultyImpossible {
		t.Error("settings not applied while idle")
	}
}

func TestEngine_UpdateSettingsRejectsInvalid(t *testing.T) {
	h := newHarness(t, DefaultSettings())
	bad := DefaultSettings()
	bad.MinSize = 90
	if err := h.engine.UpdateSettings(bad); err == nil {
		t.Error("UpdateSettings() accepted min >= max")
	}
	if h.engine.Settings().MinSize != 30 {
		t.Error("invalid settings were applied")
	}
}

func TestEngine_SettingsSnapshotIsolated(t *testing.T) {
	h := newHarness(t, customSettings(500, 0))
	got := h.engine.Settings()
	got.CustomEmojis[0] = "💣"
	if h.engine.Settings().CustomEmojis[0] == "💣" {
		t.Error("Settings() exposes the engine's emoji slice")
	}
}

func TestEngine_DifficultyConfigResolvedAtStart(t *testing.T) {
	s := DefaultSettings()
	s.Difficulty = DifficultyImpossible
	h := newHarness(t, s)
	h.engine.Start()

	cfg := h.engine.ActiveConfig()
	if cfg.SpawnRate != 400*time.Millisecond || cfg.DespawnTime != 2000*time.Millisecond {
		t.Errorf("ActiveConfig() = %+v, want 400ms / 2000ms", cfg)
	}
	h.queue.Advance(time.Second)
	if h.engine.PendingDespawns() != len(h.engine.Gifts()) {
		t.Errorf("%d despawn timers for %d live gifts", h.engine.PendingDespawns(), len(h.engine.Gifts()))
	}
}

func TestEngine_RestartResetsStats(t *testing.T) {
	h := newHarness(t, customSettings(100, 0))
	h.engine.Start()
	h.queue.Advance(time.Second)
	h.engine.Collect(h.engine.Gifts()[0].ID)
	h.engine.Stop()

	h.engine.Start()
	if s := h.engine.Stats(); s != (Stats{}) {
		t.Errorf("Stats() after restart = %+v, want zero", s)
	}
	if len(h.engine.Gifts()) != 0 {
		t.Error("gifts carried over into the new game")
	}
}

func TestEngine_StopReportsFinalStats(t *testing.T) {
	h := newHarness(t, customSettings(100, 0))
	h.engine.Start()
	h.queue.Advance(time.Second)
	for _, g := range h.engine.Gifts()[:3] {
		h.engine.Collect(g.ID)
	}
	h.engine.Stop()

	final := h.rec.stopped[0]
	if final.GiftCount != 3 || final.Score != 30 {
		t.Errorf("final stats = %+v, want 3 gifts / 30 points", final)
	}
}

func TestEngine_LiveGiftCap(t *testing.T) {
	h := newHarness(t, customSettings(MinSpawnRate, 0), WithFirstSpawnDelay(0), WithMaxGifts(5))
	h.engine.Start()
	h.queue.Advance(20 * time.Duration(MinSpawnRate) * time.Millisecond)

	if n := len(h.engine.Gifts()); n != 5 {
		t.Fatalf("live gifts = %d, want cap of 5", n)
	}
	if len(h.rec.spawned) != 5 {
		t.Errorf("spawned %d gifts at the cap, want 5", len(h.rec.spawned))
	}

	h.engine.Collect(h.rec.spawned[0].ID)
	h.queue.Advance(time.Duration(MinSpawnRate) * time.Millisecond)
	if n := len(h.engine.Gifts()); n != 5 {
		t.Errorf("live gifts after collect and one tick = %d, want 5", n)
	}
	if len(h.rec.spawned) != 6 {
		t.Errorf("spawned %d gifts, want 6 once a slot freed", len(h.rec.spawned))
	}
}

func TestEngine_DefaultGiftCap(t *testing.T) {
	h := newHarness(t, customSettings(MinSpawnRate, 0), WithFirstSpawnDelay(0))
	h.engine.Start()
	h.queue.Advance(time.Duration(constants.MaxLiveGifts+50) * time.Duration(MinSpawnRate) * time.Millisecond)

	if n := len(h.engine.Gifts()); n != constants.MaxLiveGifts {
		t.Errorf("live gifts = %d, want %d", n, constants.MaxLiveGifts)
	}
}

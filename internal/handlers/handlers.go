package handlers

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/CodeAndHammer/giftsnipe/internal/constants"
	"github.com/CodeAndHammer/giftsnipe/internal/game"
	"github.com/CodeAndHammer/giftsnipe/internal/models"
	"github.com/CodeAndHammer/giftsnipe/internal/realtime"
	"github.com/CodeAndHammer/giftsnipe/internal/session"
	"github.com/CodeAndHammer/giftsnipe/internal/util"
)

// Snapshot is the full client-visible state of one session.
type Snapshot struct {
	Running  bool                  `json:"running"`
	Settings game.Settings         `json:"settings"`
	Spawn    game.SpawnConfig      `json:"spawn"`
	Stats    realtime.StatsPayload `json:"stats"`
	Gifts    []game.Gift           `json:"gifts"`
	Arena    game.ArenaSize        `json:"arena"`
}

type collectRequest struct {
	ID string `json:"id" binding:"required"`
}

type arenaRequest struct {
	Width  float64 `json:"width" binding:"gte=0,lte=20000"`
	Height float64 `json:"height" binding:"gte=0,lte=20000"`
}

// takeSnapshot must run on the clock loop.
func takeSnapshot(s *models.Session) Snapshot {
	settings := s.Engine.Settings()
	spawn := game.ResolveSpawnConfig(settings)
	if s.Engine.Running() {
		spawn = s.Engine.ActiveConfig()
	}
	return Snapshot{
		Running:  s.Engine.Running(),
		Settings: settings,
		Spawn:    spawn,
		Stats:    realtime.NewStatsPayload(s.Engine.Stats()),
		Gifts:    s.Engine.Gifts(),
		Arena:    *s.Arena,
	}
}

// withSession resolves the caller's session and runs fn on the clock loop.
// On failure it has already written the error response.
func withSession(app *models.App, c *gin.Context, fn func(s *models.Session)) (*models.Session, bool) {
	s := session.GetSession(app, session.GetOrCreateSession(app, c))
	return s, runOnLoop(app, c, s, fn)
}

func runOnLoop(app *models.App, c *gin.Context, s *models.Session, fn func(s *models.Session)) bool {
	if err := session.Do(c.Request.Context(), app, s, fn); err != nil {
		reqID, _ := c.Request.Context().Value(constants.RequestIDKey).(string)
		util.LogWarn("[request_id=%v] Engine unavailable for session %s: %v", reqID, s.ID, err)
		abortWithError(c, http.StatusServiceUnavailable, constants.ErrorCodeUnavailable, "game engine unavailable")
		return false
	}
	return true
}

func abortWithError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": message, "code": code})
}

func HomeHandler(app *models.App, c *gin.Context) {
	var snap Snapshot
	if _, ok := withSession(app, c, func(s *models.Session) { snap = takeSnapshot(s) }); !ok {
		return
	}

	csrfToken, _ := c.Cookie(constants.CSRFCookieName)
	if csrfToken == "" {
		csrfToken = c.GetString(constants.CSRFCookieName)
	}
	c.HTML(http.StatusOK, "index.html", gin.H{
		"title":        "Gift Snipe",
		"game":         snap,
		"difficulties": game.Difficulties,
		"modes":        []game.Mode{game.ModeClick, game.ModeHover},
		"presets":      game.PresetNames(app.Presets),
		"csrf_token":   csrfToken,
	})
}

func StartHandler(app *models.App, c *gin.Context) {
	var started bool
	var snap Snapshot
	s, ok := withSession(app, c, func(s *models.Session) {
		started = s.Engine.Start()
		snap = takeSnapshot(s)
	})
	if !ok {
		return
	}
	if started {
		util.LogInfo("Session %s started a game", s.ID)
	}
	c.JSON(http.StatusOK, gin.H{"started": started, "game": snap})
}

func StopHandler(app *models.App, c *gin.Context) {
	var stopped bool
	var final game.Stats
	s, ok := withSession(app, c, func(s *models.Session) {
		final = s.Engine.Stats()
		stopped = s.Engine.Stop()
	})
	if !ok {
		return
	}
	body := gin.H{"stopped": stopped, "final": realtime.NewStatsPayload(final)}
	if stopped {
		util.LogInfo("Session %s stopped a game with score %s", s.ID, util.FormatScore(final.Score))
		body["message"] = realtime.SummaryMessage(final)
	}
	c.JSON(http.StatusOK, body)
}

func CollectHandler(app *models.App, c *gin.Context) {
	var req collectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, constants.ErrorCodeInvalidRequest, "gift id is required")
		return
	}

	var collected bool
	var stats game.Stats
	if _, ok := withSession(app, c, func(s *models.Session) {
		collected = s.Engine.Collect(req.ID)
		stats = s.Engine.Stats()
	}); !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"collected": collected, "stats": realtime.NewStatsPayload(stats)})
}

// ArenaHandler records the play area size the client has laid out. Spawns
// are skipped until it is large enough to fit a gift.
func ArenaHandler(app *models.App, c *gin.Context) {
	var req arenaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, constants.ErrorCodeInvalidRequest, "width and height must be between 0 and 20000")
		return
	}

	var arena game.ArenaSize
	if _, ok := withSession(app, c, func(s *models.Session) {
		s.Arena.Width, s.Arena.Height = req.Width, req.Height
		arena = *s.Arena
	}); !ok {
		return
	}
	c.JSON(http.StatusOK, arena)
}

func StatsHandler(app *models.App, c *gin.Context) {
	var snap Snapshot
	if _, ok := withSession(app, c, func(s *models.Session) { snap = takeSnapshot(s) }); !ok {
		return
	}
	c.JSON(http.StatusOK, snap)
}

func HealthzHandler(app *models.App, c *gin.Context) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	uptime := time.Since(app.StartTime)

	app.SessionMutex.RLock()
	sessionCount := len(app.Sessions)
	app.SessionMutex.RUnlock()

	app.LimiterMutex.RLock()
	limiterCount := len(app.LimiterMap)
	app.LimiterMutex.RUnlock()

	loopStatus := "running"
	select {
	case <-app.Loop.Done():
		loopStatus = "stopped"
	default:
	}

	status := http.StatusOK
	if loopStatus != "running" {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{
		"status":          map[bool]string{true: "ok", false: "degraded"}[status == http.StatusOK],
		"env":             map[bool]string{true: "production", false: "development"}[app.IsProduction],
		"clock_loop":      loopStatus,
		"presets_loaded":  len(app.Presets),
		"active_sessions": sessionCount,
		"active_limiters": limiterCount,
		"memory_alloc_mb": m.Alloc / 1024 / 1024,
		"memory_sys_mb":   m.Sys / 1024 / 1024,
		"memory_gc_count": m.NumGC,
		"uptime":          util.FormatUptime(uptime),
		"timestamp":       time.Now().UTC().Format(time.RFC3339),
	})
}

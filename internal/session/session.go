package session

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/CodeAndHammer/giftsnipe/internal/clock"
	"github.com/CodeAndHammer/giftsnipe/internal/constants"
	"github.com/CodeAndHammer/giftsnipe/internal/game"
	"github.com/CodeAndHammer/giftsnipe/internal/models"
	"github.com/CodeAndHammer/giftsnipe/internal/realtime"
	"github.com/CodeAndHammer/giftsnipe/internal/util"
)

// stopTimeout bounds how long cleanup waits on the clock loop per session.
const stopTimeout = 5 * time.Second

func GetOrCreateSession(app *models.App, c *gin.Context) string {
	sessionID, err := c.Cookie(constants.SessionCookieName)
	if err != nil || len(sessionID) < 10 {
		sessionID = uuid.NewString()
		c.SetSameSite(http.SameSiteStrictMode)
		secure := app.IsProduction
		c.SetCookie(constants.SessionCookieName, sessionID, int(app.CookieMaxAge.Seconds()), "/", "", secure, true)
		util.LogInfo("Created new session: %s", sessionID)
	}
	return sessionID
}

// GetSession returns the session's game, creating an idle engine with the
// app's default settings on first use.
func GetSession(app *models.App, sessionID string) *models.Session {
	app.SessionMutex.Lock()
	defer app.SessionMutex.Unlock()

	if s, ok := app.Sessions[sessionID]; ok {
		s.LastAccessTime = time.Now()
		return s
	}

	hub := realtime.NewBroadcaster()
	arena := &game.ArenaSize{}
	opts := append([]game.Option{game.WithSettings(app.DefaultSettings)}, app.EngineOptions...)
	s := &models.Session{
		ID:             sessionID,
		Engine:         game.NewEngine(app.Loop.Scheduler(), arena, realtime.NewObserver(hub), opts...),
		Arena:          arena,
		Hub:            hub,
		LastAccessTime: time.Now(),
	}
	app.Sessions[sessionID] = s
	util.LogInfo("Created new game for session: %s", sessionID)
	return s
}

// Do runs fn against the session on the clock loop.
func Do(ctx context.Context, app *models.App, s *models.Session, fn func(s *models.Session)) error {
	return app.Loop.Do(ctx, func(clock.Scheduler) {
		fn(s)
	})
}

func CleanupExpiredSessions(app *models.App) int {
	cutoff := time.Now().Add(-app.SessionTimeout)

	app.SessionMutex.Lock()
	expired := lo.PickBy(app.Sessions, func(_ string, s *models.Session) bool {
		return s.LastAccessTime.Before(cutoff) && s.Hub.Subscribers() == 0
	})
	for sessionID := range expired {
		delete(app.Sessions, sessionID)
	}
	app.SessionMutex.Unlock()

	for _, s := range expired {
		closeSession(app, s)
	}
	if len(expired) > 0 {
		util.LogInfo("Cleaned up %d expired sessions", len(expired))
	}
	return len(expired)
}

// CloseAll stops every game and disconnects all event streams.
func CloseAll(app *models.App) {
	app.SessionMutex.Lock()
	sessions := lo.Values(app.Sessions)
	app.Sessions = make(map[string]*models.Session)
	app.SessionMutex.Unlock()

	for _, s := range sessions {
		closeSession(app, s)
	}
	util.LogInfo("Closed %d sessions", len(sessions))
}

func closeSession(app *models.App, s *models.Session) {
	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	if err := Do(ctx, app, s, func(s *models.Session) { s.Engine.Stop() }); err != nil {
		util.LogWarn("Failed to stop game for session %s: %v", s.ID, err)
	}
	s.Hub.Close()
}

func StartSessionCleanup(ctx context.Context, app *models.App) {
	interval := app.CleanupInterval
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				CleanupExpiredSessions(app)
			}
		}
	}()
	util.LogInfo("Started session cleanup goroutine")
}

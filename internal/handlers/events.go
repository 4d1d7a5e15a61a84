package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/CodeAndHammer/giftsnipe/internal/constants"
	"github.com/CodeAndHammer/giftsnipe/internal/models"
	"github.com/CodeAndHammer/giftsnipe/internal/session"
	"github.com/CodeAndHammer/giftsnipe/internal/util"
)

const defaultKeepAlive = 25 * time.Second

// EventsHandler streams the session's engine events. The first event is a
// full snapshot; later events are deltas.
func EventsHandler(app *models.App, c *gin.Context) {
	sessionID := session.GetOrCreateSession(app, c)
	s := session.GetSession(app, sessionID)

	// Subscribe before snapshotting so no event falls in between.
	sub := s.Hub.Subscribe()
	defer s.Hub.Unsubscribe(sub)

	var snap Snapshot
	if !runOnLoop(app, c, s, func(s *models.Session) { snap = takeSnapshot(s) }) {
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	c.SSEvent(constants.EventSnapshot, snap)
	c.Writer.Flush()

	interval := app.KeepAlive
	if interval <= 0 {
		interval = defaultKeepAlive
	}
	keepAlive := time.NewTicker(interval)
	defer keepAlive.Stop()

	ctx := c.Request.Context()
	reqID, _ := ctx.Value(constants.RequestIDKey).(string)
	util.LogDebug("[request_id=%v] Event stream opened for session %s", reqID, s.ID)
	defer util.LogDebug("[request_id=%v] Event stream closed for session %s", reqID, s.ID)

	for {
		select {
		case <-ctx.Done():
			return
		case ev, open := <-sub:
			if !open {
				return
			}
			c.SSEvent(ev.Type, ev.Data)
			c.Writer.Flush()
		case <-keepAlive.C:
			if _, err := c.Writer.WriteString(": keep-alive\n\n"); err != nil {
				return
			}
			c.Writer.Flush()
		}
	}
}

package constants

import "time"

type contextKey string

const (
	PointsPerGift   = 10
	StatsInterval   = 100 * time.Millisecond
	GPSWindow       = time.Second
	FirstSpawnDelay = 500 * time.Millisecond
	MaxLiveGifts    = 250
)

const (
	SessionCookieName = "session_id"
	CSRFCookieName    = "csrf_token"
	CSRFHeaderName    = "X-CSRF-Token"
)

const (
	RouteHome           = "/"
	RouteStart          = "/api/start"
	RouteStop           = "/api/stop"
	RouteCollect        = "/api/collect"
	RouteArena          = "/api/arena"
	RouteSettings       = "/api/settings"
	RouteSettingsPreset = "/api/settings/preset"
	RouteSettingsEmojis = "/api/settings/emojis"
	RouteStats          = "/api/stats"
	RouteEvents         = "/api/events"
	RouteHealthz        = "/healthz"
)

const (
	ErrorCodeSettingsLocked  = "settings_locked"
	ErrorCodeInvalidSettings = "invalid_settings"
	ErrorCodeInvalidRequest  = "invalid_request"
	ErrorCodeUnknownPreset   = "unknown_preset"
	ErrorCodeUnavailable     = "engine_unavailable"
	ErrorCodeRateLimited     = "rate_limited"
	ErrorCodeInvalidCSRF     = "invalid_csrf_token"
)

const (
	EventGiftSpawned = "gift_spawned"
	EventGiftRemoved = "gift_removed"
	EventStats       = "stats"
	EventGameStarted = "game_started"
	EventGameStopped = "game_stopped"
	EventSnapshot    = "snapshot"
)

const (
	RequestIDKey contextKey = "request_id"
)

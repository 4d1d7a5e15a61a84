package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/CodeAndHammer/giftsnipe/internal/constants"
	"github.com/CodeAndHammer/giftsnipe/internal/middleware"
	"github.com/CodeAndHammer/giftsnipe/internal/models"
)

// RegisterRoutes wires every endpoint. Control endpoints share one rate
// limit; collect gets its own, higher one.
func RegisterRoutes(router gin.IRouter, app *models.App) {
	control := middleware.RateLimit(app, "control", app.RateLimitRPS, app.RateLimitBurst)
	collect := middleware.RateLimit(app, "collect", app.CollectRPS, app.CollectBurst)

	bind := func(h func(*models.App, *gin.Context)) gin.HandlerFunc {
		return func(c *gin.Context) { h(app, c) }
	}

	router.GET(constants.RouteHome, bind(HomeHandler))
	router.POST(constants.RouteStart, control, bind(StartHandler))
	router.POST(constants.RouteStop, control, bind(StopHandler))
	router.POST(constants.RouteCollect, collect, bind(CollectHandler))
	router.POST(constants.RouteArena, control, bind(ArenaHandler))
	router.GET(constants.RouteSettings, bind(GetSettingsHandler))
	router.PUT(constants.RouteSettings, control, bind(UpdateSettingsHandler))
	router.POST(constants.RouteSettingsPreset, control, bind(PresetHandler))
	router.POST(constants.RouteSettingsEmojis, control, bind(EmojisHandler))
	router.GET(constants.RouteStats, bind(StatsHandler))
	router.GET(constants.RouteEvents, bind(EventsHandler))
	router.GET(constants.RouteHealthz, bind(HealthzHandler))
}

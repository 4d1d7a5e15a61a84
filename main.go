package main

import (
	"context"
	"errors"
	"html/template"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	ginGzip "github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/CodeAndHammer/giftsnipe/internal/clock"
	"github.com/CodeAndHammer/giftsnipe/internal/config"
	"github.com/CodeAndHammer/giftsnipe/internal/constants"
	"github.com/CodeAndHammer/giftsnipe/internal/game"
	"github.com/CodeAndHammer/giftsnipe/internal/handlers"
	"github.com/CodeAndHammer/giftsnipe/internal/middleware"
	"github.com/CodeAndHammer/giftsnipe/internal/models"
	"github.com/CodeAndHammer/giftsnipe/internal/session"
	"github.com/CodeAndHammer/giftsnipe/internal/util"
)

func main() {
	_ = godotenv.Load()

	isProduction := os.Getenv("GIN_MODE") == "release" || os.Getenv("ENV") == "production"

	configPath := util.GetEnvString("CONFIG_PATH", "config/giftsnipe.toml")
	cfg, found, err := config.LoadOrDefault(configPath)
	if err != nil {
		util.LogFatal("Failed to load config: %v", err)
	}

	logFormat := cfg.Logging.Format
	if isProduction && os.Getenv("LOG_FORMAT") == "" {
		logFormat = "json"
	}
	logger, err := util.NewLogger(util.GetEnvString("LOG_LEVEL", cfg.Logging.Level), util.GetEnvString("LOG_FORMAT", logFormat))
	if err != nil {
		util.LogFatal("Failed to build logger: %v", err)
	}
	util.SetLogger(logger)
	defer util.Sync()

	util.LogInfo("Starting Gift Snipe in %s mode", map[bool]string{true: "production", false: "development"}[isProduction])
	if found {
		util.LogInfo("Loaded config from %s", configPath)
	} else {
		util.LogInfo("No config at %s, using defaults", configPath)
	}

	defaultSettings, err := cfg.DefaultSettings()
	if err != nil {
		util.LogFatal("Invalid default settings: %v", err)
	}
	presets := loadPresets(util.GetEnvString("PRESETS_PATH", cfg.Presets.Path))

	loop := clock.NewLoop()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go loop.Run(ctx)

	app := &models.App{
		Loop:            loop,
		Sessions:        make(map[string]*models.Session),
		LimiterMap:      make(map[string]*models.RateLimiterEntry),
		Presets:         presets,
		DefaultSettings: defaultSettings,
		EngineOptions:   cfg.EngineOptions(),
		PresetRand:      rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		IsProduction:    isProduction,
		StartTime:       time.Now(),
		CookieMaxAge:    util.GetEnvDuration("COOKIE_MAX_AGE", 2*time.Hour),
		StaticCacheAge:  util.GetEnvDuration("STATIC_CACHE_AGE", 5*time.Minute),
		RateLimitRPS:    util.GetEnvInt("RATE_LIMIT_RPS", 5),
		RateLimitBurst:  util.GetEnvInt("RATE_LIMIT_BURST", 10),
		CollectRPS:      util.GetEnvInt("COLLECT_RATE_LIMIT_RPS", 50),
		CollectBurst:    util.GetEnvInt("COLLECT_RATE_LIMIT_BURST", 100),
		RateLimiterTTL:  util.GetEnvDuration("RATE_LIMITER_TTL", 1*time.Hour),
		SessionTimeout:  util.GetEnvDuration("SESSION_TTL", 3*time.Hour),
		CleanupInterval: util.GetEnvDuration("CLEANUP_INTERVAL", 10*time.Minute),
		KeepAlive:       util.GetEnvDuration("SSE_KEEPALIVE", 25*time.Second),
	}

	router := gin.Default()

	router.Use(middleware.RequestID())
	router.Use(middleware.SecurityHeaders())

	router.Use(middleware.CSRF(app))
	router.Use(middleware.ValidateCSRF())

	router.Use(ginGzip.Gzip(ginGzip.DefaultCompression,
		ginGzip.WithExcludedExtensions([]string{".svg", ".ico", ".png", ".jpg", ".jpeg", ".gif"}),
		ginGzip.WithExcludedPaths([]string{constants.RouteEvents})))

	if err := router.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		util.LogWarn("Failed to set trusted proxies: %v", err)
	}

	router.Use(middleware.CacheHeaders(app))

	var baseTplDir string
	if isProduction && util.DirExists("dist") {
		util.LogInfo("Serving assets from dist/ directory")
		baseTplDir = filepath.ToSlash(filepath.Join("dist", "templates"))
		router.Static("/static", "./dist/static")
	} else {
		util.LogInfo("Serving development assets from source directories")
		baseTplDir = "templates"
		router.Static("/static", "./static")
	}

	master := template.New("")
	if _, err := master.ParseGlob(filepath.ToSlash(filepath.Join(baseTplDir, "*.html"))); err != nil {
		util.LogFatal("Failed to parse root templates: %v", err)
	}
	if _, err := master.ParseGlob(filepath.ToSlash(filepath.Join(baseTplDir, "partials", "*.html"))); err != nil {
		util.LogFatal("Failed to parse partial templates: %v", err)
	}
	router.SetHTMLTemplate(master)

	handlers.RegisterRoutes(router, app)

	startCleanupRoutines(ctx, app)

	startServer(app, router)

	loop.Close()
	<-loop.Done()
	util.LogInfo("Clock loop stopped")
}

func loadPresets(path string) map[string]game.Preset {
	if !util.FileExists(path) {
		util.LogInfo("No preset table at %s, using built-in presets", path)
		return game.DefaultPresets()
	}
	presets, err := config.LoadPresets(path)
	if err != nil {
		util.LogFatal("Failed to load presets: %v", err)
	}
	util.LogInfo("Loaded %d presets from %s", len(presets), path)
	return presets
}

func startCleanupRoutines(ctx context.Context, app *models.App) {
	session.StartSessionCleanup(ctx, app)

	go func() {
		ticker := time.NewTicker(30 * time.Minute)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				middleware.CleanupStaleRateLimiters(app)
			}
		}
	}()

	util.LogInfo("Started cleanup routines for sessions and rate limiters")
}

func startServer(app *models.App, router *gin.Engine) {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	// WriteTimeout stays 0: event streams are long-lived.
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	idleConnsClosed := make(chan struct{})
	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, syscall.SIGINT, syscall.SIGTERM)
		<-sigint
		util.LogInfo("Shutdown signal received, shutting down server gracefully...")
		// Closing the hubs ends open event streams so Shutdown can drain.
		session.CloseAll(app)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			util.LogWarn("HTTP server Shutdown: %v", err)
		}
		close(idleConnsClosed)
	}()

	util.LogInfo("Server starting on http://localhost:%s", port)
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		util.LogFatal("Server failed to start: %v", err)
	}
	<-idleConnsClosed
	util.LogInfo("Server shutdown complete")
}

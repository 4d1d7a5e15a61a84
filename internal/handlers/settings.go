package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/CodeAndHammer/giftsnipe/internal/constants"
	"github.com/CodeAndHammer/giftsnipe/internal/game"
	"github.com/CodeAndHammer/giftsnipe/internal/models"
	"github.com/CodeAndHammer/giftsnipe/internal/util"
)

const maxSettingsBody = 64 << 10

type presetRequest struct {
	Name string `json:"name" binding:"required"`
}

type emojisRequest struct {
	Input  string `json:"input"`
	Random bool   `json:"random"`
}

const randomEmojiPicks = 8

func GetSettingsHandler(app *models.App, c *gin.Context) {
	var settings game.Settings
	var running bool
	if _, ok := withSession(app, c, func(s *models.Session) {
		settings = s.Engine.Settings()
		running = s.Engine.Running()
	}); !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"settings":     settings,
		"locked":       running,
		"spawn":        game.ResolveSpawnConfig(settings),
		"difficulties": game.Difficulties,
		"presets":      game.PresetNames(app.Presets),
	})
}

// UpdateSettingsHandler merges the JSON body over the current settings, so
// clients may send only the fields they change.
func UpdateSettingsHandler(app *models.App, c *gin.Context) {
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxSettingsBody))
	if err != nil || !json.Valid(raw) {
		abortWithError(c, http.StatusBadRequest, constants.ErrorCodeInvalidRequest, "request body must be a JSON object")
		return
	}

	var updated game.Settings
	var opErr error
	if _, ok := withSession(app, c, func(s *models.Session) {
		next := s.Engine.Settings()
		if opErr = json.Unmarshal(raw, &next); opErr != nil {
			return
		}
		if opErr = s.Engine.UpdateSettings(next); opErr == nil {
			updated = s.Engine.Settings()
		}
	}); !ok {
		return
	}
	if opErr != nil {
		respondSettingsError(c, opErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": updated, "spawn": game.ResolveSpawnConfig(updated)})
}

func PresetHandler(app *models.App, c *gin.Context) {
	var req presetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, constants.ErrorCodeInvalidRequest, "preset name is required")
		return
	}

	var updated game.Settings
	var opErr error
	s, ok := withSession(app, c, func(s *models.Session) {
		if s.Engine.Running() {
			opErr = game.ErrGameRunning
			return
		}
		var preset game.Preset
		if preset, opErr = game.LookupPreset(app.Presets, req.Name, app.PresetRand); opErr != nil {
			return
		}
		if opErr = s.Engine.UpdateSettings(preset.Apply(s.Engine.Settings())); opErr == nil {
			updated = s.Engine.Settings()
		}
	})
	if !ok {
		return
	}
	if opErr != nil {
		respondSettingsError(c, opErr)
		return
	}
	util.LogInfo("Session %s applied preset %s", s.ID, req.Name)
	c.JSON(http.StatusOK, gin.H{"preset": req.Name, "settings": updated, "spawn": game.ResolveSpawnConfig(updated)})
}

// EmojisHandler replaces the custom emoji set with the emojis found in free
// text input, falling back to the default set. With random set, the input
// is ignored and a fresh selection is drawn instead.
func EmojisHandler(app *models.App, c *gin.Context) {
	var req emojisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, constants.ErrorCodeInvalidRequest, "request body must be a JSON object")
		return
	}

	var emojis []string
	var opErr error
	if _, ok := withSession(app, c, func(s *models.Session) {
		if s.Engine.Running() {
			opErr = game.ErrGameRunning
			return
		}
		if req.Random {
			emojis = game.RandomEmojis(app.PresetRand, randomEmojiPicks)
		} else {
			emojis = game.ParseEmojis(req.Input)
		}
		next := s.Engine.Settings()
		next.CustomEmojis = emojis
		opErr = s.Engine.UpdateSettings(next)
	}); !ok {
		return
	}
	if opErr != nil {
		respondSettingsError(c, opErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"emojis": emojis})
}

func respondSettingsError(c *gin.Context, err error) {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.Is(err, game.ErrGameRunning):
		abortWithError(c, http.StatusConflict, constants.ErrorCodeSettingsLocked, err.Error())
	case errors.Is(err, game.ErrUnknownPreset):
		abortWithError(c, http.StatusNotFound, constants.ErrorCodeUnknownPreset, err.Error())
	case errors.As(err, &syntaxErr), errors.As(err, &typeErr):
		abortWithError(c, http.StatusBadRequest, constants.ErrorCodeInvalidRequest, err.Error())
	default:
		abortWithError(c, http.StatusUnprocessableEntity, constants.ErrorCodeInvalidSettings, err.Error())
	}
}

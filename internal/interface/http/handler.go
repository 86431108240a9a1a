package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/outfit-recommender/internal/domain/recommend"
	"github.com/yanqian/outfit-recommender/internal/domain/replenish"
	"github.com/yanqian/outfit-recommender/internal/domain/wardrobe"
	"github.com/yanqian/outfit-recommender/internal/domain/weather"
	apperrors "github.com/yanqian/outfit-recommender/pkg/errors"
)

const weatherUnavailableMessage = "Weather provider did not return data."

// OutfitGenerator produces images on demand.
type OutfitGenerator interface {
	GenerateNow(ctx context.Context, req replenish.GenerateRequest) (replenish.GenerateResponse, error)
}

// WeatherReporter serves the current conditions for a city.
type WeatherReporter interface {
	Status(ctx context.Context, city string) (weather.StatusResponse, error)
}

// Handler wires the HTTP transport to domain services.
type Handler struct {
	recommendSvc recommend.Service
	generator    OutfitGenerator
	weather      WeatherReporter
	wardrobe     wardrobe.Repository
	logger       *slog.Logger
}

// NewHandler constructs the root HTTP handler.
func NewHandler(recommendSvc recommend.Service, generator OutfitGenerator, weatherSvc WeatherReporter, wardrobeRepo wardrobe.Repository, logger *slog.Logger) *Handler {
	return &Handler{
		recommendSvc: recommendSvc,
		generator:    generator,
		weather:      weatherSvc,
		wardrobe:     wardrobeRepo,
		logger:       logger.With("component", "http.handler"),
	}
}

// Recommend returns outfits for the posted preferences.
func (h *Handler) Recommend(c *gin.Context) {
	req, ok := h.bindRequest(c)
	if !ok {
		return
	}

	resp, err := h.recommendSvc.Recommend(c.Request.Context(), callerID(c), req)
	if err != nil {
		abortWithError(c, fromAppError(err, "recommend_failed"))
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Generated lists previously generated outfits matching the preferences.
func (h *Handler) Generated(c *gin.Context) {
	req, ok := h.bindRequest(c)
	if !ok {
		return
	}

	resp, err := h.recommendSvc.Generated(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, fromAppError(err, "generated_failed"))
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Generate creates outfits synchronously and returns them inline.
func (h *Handler) Generate(c *gin.Context) {
	req, ok := h.bindRequest(c)
	if !ok {
		return
	}

	resp, err := h.generator.GenerateNow(c.Request.Context(), replenish.GenerateRequest{
		Styles:     req.Styles,
		BodyShapes: req.BodyShapes,
		Occasions:  req.Occasions,
		ImageCount: req.ImageCount,
	})
	if err != nil {
		abortWithError(c, fromAppError(err, "generate_failed"))
		return
	}

	c.JSON(http.StatusOK, resp)
}

// WeatherStatus reports the conditions used for weather-aware recommendations.
func (h *Handler) WeatherStatus(c *gin.Context) {
	resp, err := h.weather.Status(c.Request.Context(), c.Query("city"))
	if apperrors.IsCode(err, apperrors.CodeWeatherUnavailable) {
		h.logger.Warn("weather status unavailable", "city", resp.City, "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "unavailable",
			"city":    resp.City,
			"message": weatherUnavailableMessage,
		})
		return
	}
	if err != nil {
		abortWithError(c, fromAppError(err, "weather_failed"))
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Wardrobe lists the outfits generated for the authenticated user.
func (h *Handler) Wardrobe(c *gin.Context) {
	userID := callerID(c)
	if userID == "" {
		abortWithError(c, NewHTTPError(http.StatusUnauthorized, apperrors.CodeUnauthorized, "authentication required", nil))
		return
	}

	items, err := h.wardrobe.ListByUser(c.Request.Context(), userID)
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusInternalServerError, apperrors.CodeStorageError, "failed to load wardrobe", err))
		return
	}
	if items == nil {
		items = []wardrobe.Item{}
	}

	c.JSON(http.StatusOK, gin.H{"items": items})
}

// Healthz is the liveness probe.
func (h *Handler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) bindRequest(c *gin.Context) (recommend.Request, bool) {
	body, err := c.GetRawData()
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "failed to read request body", err))
		return recommend.Request{}, false
	}
	req, err := recommend.ParseRequest(body)
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return recommend.Request{}, false
	}
	return req, true
}

func errMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

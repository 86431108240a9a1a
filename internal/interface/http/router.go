package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yanqian/outfit-recommender/internal/domain/auth"
	"github.com/yanqian/outfit-recommender/internal/infra/config"
)

// NewRouter wires up the HTTP handlers and returns a configured server.
func NewRouter(cfg *config.Config, handler *Handler, authSvc auth.Service) *http.Server {
	gin.SetMode(gin.ReleaseMode)

	limiter := newIPRateLimiter(cfg.HTTP.RateLimit)

	router := gin.New()
	router.Use(
		gin.Recovery(),
		requestLogger(handler.logger),
		metricsMiddleware(),
		corsMiddleware(cfg.HTTP.AllowedOrigins),
		errorHandlingMiddleware(handler.logger),
	)

	router.GET("/healthz", handler.Healthz)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v1", rateLimitMiddleware(limiter, handler.logger))
	{
		api.POST("/recommendations", optionalAuthMiddleware(authSvc), handler.Recommend)
		api.POST("/outfits/generated", handler.Generated)
		api.POST("/outfits/generate", handler.Generate)
		api.GET("/weather", handler.WeatherStatus)
		api.GET("/wardrobe", authMiddleware(authSvc), handler.Wardrobe)
	}

	server := &http.Server{
		Addr:           cfg.HTTP.Address,
		Handler:        router,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}
	if limiter != nil {
		go limiter.startCleanup(limiterCleanupInterval)
		server.RegisterOnShutdown(limiter.stop)
	}
	return server
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("http request", "method", c.Request.Method, "path", c.Request.URL.Path, "status", c.Writer.Status(), "latency_ms", latency.Milliseconds())
	}
}

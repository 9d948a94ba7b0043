// Package api exposes the decode pipeline over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/motomind/vin-decoder-service/internal/domain"
	"github.com/motomind/vin-decoder-service/internal/service"
)

// BreakerStatus reports the upstream circuit breaker states for the health
// endpoint. Nil when the service runs without network decode strategies.
type BreakerStatus interface {
	GetCircuitBreakerStates() map[string]gobreaker.State
}

// CacheStatsProvider reports hot tier cache statistics when a Redis tier is
// configured.
type CacheStatsProvider interface {
	GetCacheStats(ctx context.Context) (map[string]interface{}, error)
}

// Server represents the HTTP server
type Server struct {
	configManager domain.ConfigManager
	pipeline      *service.Pipeline
	breakers      BreakerStatus
	logger        *logrus.Logger
	router        *gin.Engine
	server        *http.Server
}

// NewServer creates a new HTTP server instance. breakers may be nil.
func NewServer(configManager domain.ConfigManager, pipeline *service.Pipeline, breakers BreakerStatus, logger *logrus.Logger) *Server {
	cfg := configManager.GetConfig()

	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())
	router.Use(requestIDMiddleware())

	server := &Server{
		configManager: configManager,
		pipeline:      pipeline,
		breakers:      breakers,
		logger:        logger,
		router:        router,
	}

	server.setupRoutes()

	return server
}

// Router returns the underlying gin engine, used by tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start starts the HTTP server and blocks until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	cfg := s.configManager.GetServerConfig()
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", addr).Info("HTTP server listening")
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return s.server.Shutdown(shutdownCtx)
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	v1 := s.router.Group("/api/v1")
	{
		v1.POST("/vin/decode", s.handleDecode)
		v1.POST("/vin/validate", s.handleValidate)
		v1.GET("/vehicle/:vin", s.handleGetVehicle)
		v1.POST("/vehicle", s.handleManualEntry)
	}
}

// handleHealth reports service health and pipeline counters.
func (s *Server) handleHealth(c *gin.Context) {
	status := "healthy"
	httpStatus := http.StatusOK

	if err := s.pipeline.Ping(c.Request.Context()); err != nil {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
		s.logger.WithError(err).Warn("Health check: store unreachable")
	}

	body := gin.H{
		"status":    status,
		"timestamp": time.Now().UTC(),
		"stats":     s.pipeline.Stats(),
	}
	if s.breakers != nil {
		states := make(map[string]string)
		for name, state := range s.breakers.GetCircuitBreakerStates() {
			states[name] = state.String()
		}
		body["circuit_breakers"] = states

		if provider, ok := s.breakers.(CacheStatsProvider); ok {
			if stats, err := provider.GetCacheStats(c.Request.Context()); err == nil && stats != nil {
				body["hot_tier"] = stats
			}
		}
	}

	c.JSON(httpStatus, body)
}

// handleDecode runs the full decode pipeline for a VIN.
func (s *Server) handleDecode(c *gin.Context) {
	var req domain.DecodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, domain.ErrInvalidVIN, "request body must contain a vin field", err.Error())
		return
	}

	result, err := s.pipeline.Decode(c.Request.Context(), req.VIN)
	if err != nil {
		if errors.Is(err, service.ErrRejected) {
			// The result still carries the validation detail for the caller
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":      domain.NewAPIError(domain.ErrInvalidVIN, result.Validation.Error, "", requestID(c)),
				"validation": result.Validation,
			})
			return
		}
		s.respondError(c, http.StatusBadGateway, domain.ErrDecodeFailed, "vehicle decode failed", err.Error())
		return
	}

	c.JSON(http.StatusOK, result)
}

// handleValidate checks a VIN without decoding it.
func (s *Server) handleValidate(c *gin.Context) {
	var req domain.DecodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, domain.ErrInvalidVIN, "request body must contain a vin field", err.Error())
		return
	}

	c.JSON(http.StatusOK, s.pipeline.Validate(req.VIN))
}

// handleGetVehicle serves a previously decoded vehicle from cache.
func (s *Server) handleGetVehicle(c *gin.Context) {
	vinID := c.Param("vin")

	entry, err := s.pipeline.GetVehicle(c.Request.Context(), vinID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.respondError(c, http.StatusNotFound, domain.ErrDecodeFailed, "vehicle has not been decoded yet", "")
			return
		}
		s.respondError(c, http.StatusInternalServerError, domain.ErrCacheError, "cache lookup failed", err.Error())
		return
	}

	c.JSON(http.StatusOK, entry)
}

// handleManualEntry stores caller-entered vehicle data.
func (s *Server) handleManualEntry(c *gin.Context) {
	var req domain.ManualEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, domain.ErrInvalidVIN, "request body must contain a vin field", err.Error())
		return
	}

	result, err := s.pipeline.ManualEntry(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrRejected) {
			s.respondError(c, http.StatusUnprocessableEntity, domain.ErrInvalidVIN, "vin failed validation", err.Error())
			return
		}
		s.respondError(c, http.StatusInternalServerError, domain.ErrInternalServer, "manual entry failed", err.Error())
		return
	}

	c.JSON(http.StatusCreated, result)
}

func (s *Server) respondError(c *gin.Context, status int, code, message, details string) {
	c.JSON(status, gin.H{
		"error": domain.NewAPIError(code, message, details, requestID(c)),
	})
}

func requestID(c *gin.Context) string {
	if id, ok := c.Get("request_id"); ok {
		if str, ok := id.(string); ok {
			return str
		}
	}
	return ""
}

// corsMiddleware adds CORS headers to responses
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, X-API-Key")
		c.Header("Access-Control-Expose-Headers", "Content-Length")
		c.Header("Access-Control-Allow-Credentials", "true")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// requestIDMiddleware adds a unique request ID to each request
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.New().String()
		}
		c.Header("X-Request-ID", id)
		c.Set("request_id", id)
		c.Next()
	}
}

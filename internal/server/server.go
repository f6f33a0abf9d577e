package server

import (
	"context"
	"crypto/subtle"
	"net/http"
	"time"

	"report_bridge/internal/config"
	"report_bridge/internal/metrics"
	"report_bridge/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
)

const healthTimeout = 2 * time.Second

// Pinger reports whether the LMS store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HTTPServer is what the application lifecycle starts and stops.
type HTTPServer interface {
	Start(address string) error
	Shutdown(ctx context.Context) error
}

// Server represents the HTTP server
type Server struct {
	echo    *echo.Echo
	service *usecase.ReportService
	store   Pinger
	metrics *metrics.Recorder
	logger  *logrus.Logger
}

// NewServer creates a new HTTP server. recorder and store may be nil.
func NewServer(cfg config.Config, reportService *usecase.ReportService, recorder *metrics.Recorder, store Pinger, logger *logrus.Logger) *Server {
	e := echo.New()
	e.Debug = cfg.Server.Debug
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.CORS())
	e.Use(requestLogger(logger))
	if recorder != nil {
		e.Use(recorder.Middleware())
	}

	server := &Server{
		echo:    e,
		service: reportService,
		store:   store,
		metrics: recorder,
		logger:  logger,
	}

	server.setupRoutes(cfg)
	return server
}

// Start starts the HTTP server
func (s *Server) Start(address string) error {
	s.logger.WithField("address", address).Info("Starting HTTP server")
	return s.echo.Start(address)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	return s.echo.Shutdown(ctx)
}

// ServeHTTP lets the server be used as an http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

// setupRoutes configures the server routes
func (s *Server) setupRoutes(cfg config.Config) {
	s.echo.GET("/health", s.healthCheck)
	if s.metrics != nil && cfg.Metrics.Enabled {
		s.echo.GET(cfg.Metrics.Path, echo.WrapHandler(s.metrics.Handler()))
	}

	api := s.echo.Group("/api/v1")
	if !cfg.Server.AllowAnonymous {
		api.Use(keyAuth(cfg.Server.APIKey))
	}
	{
		api.GET("/reports", s.listReports)
		api.POST("/reports/:id/run", s.runReport)
		api.POST("/reports/:id/export", s.exportReport)
		api.GET("/exports/*", s.downloadExport)
		api.POST("/query/preview", s.previewQuery)
		api.POST("/kpi/batch", s.batchKPI)
		api.GET("/executions", s.listExecutions)
	}
}

// keyAuth accepts the key in X-API-Key or as a Bearer token. An empty apiKey
// matches nothing.
func keyAuth(apiKey string) echo.MiddlewareFunc {
	return middleware.KeyAuthWithConfig(middleware.KeyAuthConfig{
		KeyLookup: "header:X-API-Key,header:Authorization:Bearer ",
		Validator: func(key string, _ echo.Context) (bool, error) {
			if apiKey == "" {
				return false, nil
			}
			return subtle.ConstantTimeCompare([]byte(key), []byte(apiKey)) == 1, nil
		},
		ErrorHandler: func(_ error, c echo.Context) error {
			return c.JSON(http.StatusUnauthorized, errorBody("unauthorized"))
		},
	})
}

func requestLogger(logger *logrus.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			entry := logger.WithFields(logrus.Fields{
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"latency":    v.Latency,
				"request_id": v.RequestID,
			})
			if v.Error != nil {
				entry.WithError(v.Error).Warn("Request failed")
				return nil
			}
			entry.Debug("Request")
			return nil
		},
	})
}

// healthCheck handles health check requests
func (s *Server) healthCheck(c echo.Context) error {
	body := map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"service":   "report-bridge",
	}
	if s.store != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), healthTimeout)
		defer cancel()
		if err := s.store.Ping(ctx); err != nil {
			s.logger.WithError(err).Warn("Store health check failed")
			body["status"] = "degraded"
			body["store"] = "unreachable"
			return c.JSON(http.StatusServiceUnavailable, body)
		}
		body["store"] = "ok"
	}
	return c.JSON(http.StatusOK, body)
}

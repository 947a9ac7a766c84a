package server

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	portalapi "github.com/zensoft-hr/basegate/api/echo"
	"github.com/zensoft-hr/basegate/config"
	"github.com/zensoft-hr/basegate/log"
)

// NewHTTPServer builds the portal's HTTP server: an echo router with
// recovery, tracing, and structured request logging, wrapped in an
// http.Server with conservative timeouts.
func NewHTTPServer(cfg *config.Config, appLogger log.Logger, api *portalapi.PortalAPI) *http.Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomw.Recover())
	// Tracing wraps the request logger so log lines carry trace ids.
	e.Use(otelecho.Middleware(cfg.OtelServiceName))
	e.Use(requestLogger(appLogger))

	api.RegisterRoutes(e)

	return &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      e,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
}

// requestLogger logs each request through the application logger.
func requestLogger(appLogger log.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			fields := map[string]any{
				"method":     req.Method,
				"path":       req.URL.Path,
				"status":     c.Response().Status,
				"latency":    time.Since(start).String(),
				"ip":         c.RealIP(),
				"user_agent": req.UserAgent(),
			}
			if err != nil {
				appLogger.Error(req.Context(), "http request failed", err, fields)
			} else {
				appLogger.Info(req.Context(), "http request", fields)
			}
			return nil
		}
	}
}

// Package server assembles the fiber application: global middleware, the health and
// metrics endpoints, and every resource route under /api.
package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	fiberrecover "github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/trentd187/gym-api/internal/handlers"
	"github.com/trentd187/gym-api/internal/middleware"
)

// Options are the collaborators and knobs New needs. Pinger and Metrics are
// optional; their endpoints are only mounted when set.
type Options struct {
	Gateway          *handlers.Gateway
	Logger           *zap.Logger
	Pinger           handlers.Pinger
	Metrics          http.Handler
	CORSOrigins      []string
	BodyLimit        int
	ReadinessTimeout time.Duration
	Production       bool
	AccessLog        bool
}

// New returns a fully routed fiber app.
func New(opts Options) *fiber.App {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	// UnescapePath hands path params to the procedures decoded:
	// /api/classes/1%2C2 binds "1,2".
	app := fiber.New(fiber.Config{
		AppName:               "Gym API",
		ErrorHandler:          middleware.ErrorHandler(log),
		BodyLimit:             opts.BodyLimit,
		UnescapePath:          true,
		DisableStartupMessage: opts.Production,
	})

	// --- Global middleware ---
	// recover turns a panicking handler into a 500 instead of killing the process.
	app.Use(fiberrecover.New(fiberrecover.Config{EnableStackTrace: !opts.Production}))
	app.Use(middleware.RequestIDMiddleware())
	if opts.AccessLog {
		// One line per request: method, path, status, latency and the request ID.
		app.Use(logger.New(logger.Config{
			Format: "${time} ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
		}))
	}
	origins := "*"
	if len(opts.CORSOrigins) > 0 {
		origins = strings.Join(opts.CORSOrigins, ",")
	}
	app.Use(cors.New(cors.Config{AllowOrigins: origins}))

	// --- Operational routes ---
	app.Get("/health", handlers.HealthCheck)
	if opts.Pinger != nil {
		timeout := opts.ReadinessTimeout
		if timeout <= 0 {
			timeout = 2 * time.Second
		}
		app.Get("/health/ready", handlers.Readiness(opts.Pinger, timeout, log))
	}
	if opts.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(opts.Metrics))
	}

	// --- Resource routes ---
	// /api/classes, /api/members, ... one stored procedure per verb.
	handlers.Register(app.Group("/api"), opts.Gateway)

	return app
}

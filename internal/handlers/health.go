package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// HealthCheck handles GET /health.
// It returns a simple JSON response indicating the server is alive and reachable.
// No database call is made, so a slow or unreachable database never makes the
// process look dead to a liveness probe.
func HealthCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// Pinger is satisfied by database.GormCaller.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Readiness returns a handler for GET /health/ready.
// It acquires a pooled connection and pings the database within timeout;
// load balancers should stop routing traffic here while it answers 503.
func Readiness(p Pinger, timeout time.Duration, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()

		if err := p.Ping(ctx); err != nil {
			log.Warn("readiness check failed", zap.Error(err))
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "unavailable",
			})
		}

		return c.JSON(fiber.Map{"status": "ready"})
	}
}

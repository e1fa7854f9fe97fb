// Package middleware contains HTTP middleware for the Gym API.
// Middleware sits between the HTTP server and the route handlers and runs on every
// request that passes through it. Request IDs and error rendering live here.
package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/trentd187/gym-api/internal/apperr"
	"github.com/trentd187/gym-api/internal/handlers"
	"github.com/trentd187/gym-api/internal/models"
)

// InternalError is the only message a client ever sees for a failed procedure call.
const InternalError = "Internal server error"

// StatusFor maps a handler error to the HTTP status and client-facing message.
//
//   - any failure returned by the database          → 500, generic message
//   - validation detected before the call           → 400, the error's message
//   - failed credential check                       → 401, the error's message
//   - *fiber.Error (unknown route, body too large)  → its own code and message
//   - everything else                               → 500, generic message
func StatusFor(err error) (int, string) {
	if apperr.IsRemote(err) {
		return fiber.StatusInternalServerError, InternalError
	}

	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code, fe.Message
	}

	switch apperr.KindOf(err) {
	case apperr.Validation:
		return fiber.StatusBadRequest, apperr.MessageOf(err)
	case apperr.Unauthorized:
		return fiber.StatusUnauthorized, apperr.MessageOf(err)
	}

	return fiber.StatusInternalServerError, InternalError
}

// ErrorHandler returns the fiber.ErrorHandler that renders every error as
// {"error": "..."}. The underlying cause is logged with the procedure, the error
// kind and the request ID, and is never written to the response.
func ErrorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status, msg := StatusFor(err)

		level := zapcore.InfoLevel
		if status >= fiber.StatusInternalServerError {
			level = zapcore.ErrorLevel
		}
		if ce := log.Check(level, "request failed"); ce != nil {
			procedure, _ := c.Locals(handlers.LocalProcedure).(string)
			ce.Write(
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.String("procedure", procedure),
				zap.String("kind", string(apperr.KindOf(err))),
				zap.Int("status", status),
				zap.String("request_id", RequestID(c)),
				zap.Error(err),
			)
		}

		if werr := c.Status(status).JSON(models.ErrorResponse{Error: msg}); werr != nil {
			// The client is gone; nothing left to tell it.
			log.Debug("write error response", zap.Error(werr))
		}
		return nil
	}
}

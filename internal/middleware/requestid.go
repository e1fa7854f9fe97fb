package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
)

// requestIDKey is the c.Locals key the request ID is stored under.
const requestIDKey = "requestid"

// RequestIDMiddleware returns middleware that honours an incoming X-Request-ID header or
// assigns a UUID, echoes it on the response, and stores it for the logger.
func RequestIDMiddleware() fiber.Handler {
	return requestid.New(requestid.Config{
		Header:     fiber.HeaderXRequestID,
		Generator:  uuid.NewString,
		ContextKey: requestIDKey,
	})
}

// RequestID returns the current request's ID, or "" outside RequestIDMiddleware.
func RequestID(c *fiber.Ctx) string {
	id, _ := c.Locals(requestIDKey).(string)
	return id
}

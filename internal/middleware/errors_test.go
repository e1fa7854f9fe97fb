package middleware

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/trentd187/gym-api/internal/apperr"
	"github.com/trentd187/gym-api/internal/handlers"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{"remote conflict", apperr.Remote("CreateMember", apperr.Wrap(apperr.Conflict, "database call failed", errors.New("dup"))), 500, InternalError},
		{"remote validation", apperr.Remote("UpdateRoom", apperr.Wrap(apperr.Validation, "database call failed", errors.New("bad"))), 500, InternalError},
		{"remote untagged", apperr.Remote("GetRooms", errors.New("boom")), 500, InternalError},
		{"local validation", apperr.Invalid("Invalid member ID"), 400, "Invalid member ID"},
		{"unauthorized", apperr.New(apperr.Unauthorized, "Invalid username or password"), 401, "Invalid username or password"},
		{"fiber error", fiber.NewError(fiber.StatusRequestEntityTooLarge, "Request Entity Too Large"), 413, "Request Entity Too Large"},
		{"internal", apperr.Wrap(apperr.Internal, "issue token", errors.New("sign")), 500, InternalError},
		{"plain error", errors.New("plain"), 500, InternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, msg := StatusFor(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.msg, msg)
		})
	}
}

func TestErrorHandlerLogsCauseButHidesIt(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(zap.New(core))})
	app.Use(RequestIDMiddleware())
	app.Get("/rooms", func(c *fiber.Ctx) error {
		c.Locals(handlers.LocalProcedure, "GetRooms")
		return apperr.Remote("GetRooms", apperr.Wrap(apperr.Transient, "database call failed", errors.New("connection refused")))
	})

	req := httptest.NewRequest("GET", "/rooms", nil)
	req.Header.Set("X-Request-ID", "req-1")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, 500, resp.StatusCode)
	assert.JSONEq(t, `{"error":"Internal server error"}`, string(body))
	assert.NotContains(t, string(body), "connection refused")

	entries := logs.FilterMessage("request failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)

	fields := entries[0].ContextMap()
	assert.Equal(t, "GetRooms", fields["procedure"])
	assert.Equal(t, "transient", fields["kind"])
	assert.Equal(t, "req-1", fields["request_id"])
	assert.Contains(t, fields["error"], "connection refused")
}

func TestErrorHandlerClientErrorsLogAtInfo(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(zap.New(core))})
	app.Delete("/members/:id", func(c *fiber.Ctx) error {
		return apperr.Invalid("Invalid member ID")
	})

	resp, err := app.Test(httptest.NewRequest("DELETE", "/members/abc", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)

	entries := logs.FilterMessage("request failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
}

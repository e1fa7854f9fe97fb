package handlers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/trentd187/gym-api/internal/apperr"
	"github.com/trentd187/gym-api/internal/database"
	"github.com/trentd187/gym-api/internal/models"
)

// invalidCredentials is the message for an unknown user and for a wrong password alike.
const invalidCredentials = "Invalid username or password"

// login handles POST /api/login.
// args holds the bound username; the procedure returns the user row (at most one)
// including the stored bcrypt hash, which is compared here and stripped before the
// row is sent back.
func (g *Gateway) login(c *fiber.Ctx, op Operation, args []any, body *requestBody) error {
	res, err := g.caller.Call(c.UserContext(), database.Call{
		Procedure:   op.Procedure,
		Args:        args,
		ReturnsRows: true,
	})
	if err != nil {
		return apperr.Remote(op.Procedure, err)
	}

	if len(res.Rows) == 0 {
		return apperr.New(apperr.Unauthorized, invalidCredentials)
	}
	row := res.Rows[0]

	stored, ok := row.Get(g.passwordColumn)
	hash, isString := stored.(string)
	if !ok || !isString {
		// PASSWORD_COLUMN does not match the procedure's result set.
		g.log.Error("login row has no password hash column",
			zap.String("procedure", op.Procedure),
			zap.String("column", g.passwordColumn),
			zap.Strings("columns", row.Columns),
		)
		return apperr.New(apperr.Unauthorized, invalidCredentials)
	}

	password, err := plaintextPassword(c, body, op.PasswordField)
	if err != nil {
		return err
	}

	if err := g.hasher.Verify(hash, password); err != nil {
		return apperr.Wrap(apperr.Unauthorized, invalidCredentials, err)
	}

	resp := models.LoginResponse{User: row.Without(g.passwordColumn)}

	if g.issuer != nil && len(args) > 0 {
		token, err := g.issuer.Issue(fmt.Sprint(args[0]))
		if err != nil {
			return apperr.Wrap(apperr.Internal, "issue token", err)
		}
		resp.Token = token
	}

	return c.Status(fiber.StatusOK).JSON(resp)
}

// plaintextPassword reads the submitted password from the body already decoded
// by bind, decoding it only when no bound param needed it. A missing or
// non-string password simply fails verification.
func plaintextPassword(c *fiber.Ctx, body *requestBody, field string) (string, error) {
	if body == nil {
		b, err := readBody(c)
		if err != nil {
			return "", err
		}
		body = b
	}
	switch v := body.get(field).(type) {
	case string:
		return v, nil
	case fmt.Stringer:
		return v.String(), nil
	default:
		return "", nil
	}
}

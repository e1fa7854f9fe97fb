// Package handlers contains the HTTP route handlers for the Gym API.
//
// Every endpoint follows the same pipeline: bind the request into an ordered list of
// procedure arguments, optionally hash a password, invoke exactly one stored procedure
// through the shared pool, and shape the result into a JSON response. The pipeline is
// written once here; routes.go declares every operation as data.
package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/trentd187/gym-api/internal/apperr"
	"github.com/trentd187/gym-api/internal/auth"
	"github.com/trentd187/gym-api/internal/database"
	"github.com/trentd187/gym-api/internal/models"
)

// Source says where a parameter is read from.
type Source int

const (
	FromPath        Source = iota // URL path segment, e.g. :id
	FromQuery                     // URL query string
	FromBody                      // JSON or form-encoded body field
	FromPathOrQuery               // path segment when present, otherwise the query parameter of the same name
)

// Param is one positional argument of a procedure call.
type Param struct {
	Name   string
	Source Source

	// Optional marks list filters: when absent they bind as an unset models.Optional
	// instead of a value, and the database layer decides how "no filter" is encoded.
	Optional bool

	// Integer params are parsed before the call; a parse failure rejects the request
	// with Invalid as the 400 message and no procedure is invoked.
	Integer bool
	Invalid string

	// Password params are replaced by their bcrypt hash before binding.
	Password bool
}

// Param constructors keep the operation table in routes.go readable.

// PathParam binds a required URL segment such as :id. It is passed through as a
// string; the procedure does any conversion.
func PathParam(name string) Param { return Param{Name: name, Source: FromPath} }

// BodyField binds one field of the JSON or form body. A missing field binds NULL.
func BodyField(name string) Param { return Param{Name: name, Source: FromBody} }

// QueryFilter binds an optional list filter read only from the query string.
func QueryFilter(name string) Param { return Param{Name: name, Source: FromQuery, Optional: true} }

// Filter binds an optional list filter from the path segment of the same name,
// falling back to the query string when the segment is absent.
func Filter(name string) Param { return Param{Name: name, Source: FromPathOrQuery, Optional: true} }

// PasswordField binds a body field that is bcrypt-hashed before the call. The
// plaintext never reaches the database; a missing value rejects the request.
func PasswordField(name string) Param {
	return Param{Name: name, Source: FromBody, Password: true}
}

// IntPathParam binds a URL segment that must be a base-10 integer. The whole
// segment has to parse: "12abc" is rejected with invalid as the 400 message
// rather than being read as 12 the way a lenient parseInt would.
func IntPathParam(name, invalid string) Param {
	return Param{Name: name, Source: FromPath, Integer: true, Invalid: invalid}
}

// Shape selects how a procedure result becomes a response.
type Shape int

const (
	ShapeRows    Shape = iota // first result set as a JSON array
	ShapeMessage              // rows ignored, fixed success message
	ShapeLogin                // first row verified against the submitted password
)

// Operation declares one endpoint: verb and path (relative to its resource), the
// procedure it calls, the ordered parameters, and how the result is shaped.
type Operation struct {
	Method    string
	Path      string
	Aliases   []string // extra paths served by the same handler
	Procedure string
	Params    []Param
	Shape     Shape
	Status    int    // success status; defaults to 200
	Message   string // success message for ShapeMessage

	// PasswordField names the body field holding the plaintext password of a
	// ShapeLogin operation. It is verified locally and never sent to the database.
	PasswordField string
}

// Gateway holds the collaborators every handler shares. It has no mutable state,
// so one Gateway serves all requests concurrently.
type Gateway struct {
	caller         database.Caller
	hasher         *auth.Hasher
	issuer         *auth.Issuer
	passwordColumn string
	log            *zap.Logger
}

// Options configures a Gateway.
type Options struct {
	Caller         database.Caller
	Hasher         *auth.Hasher
	Issuer         *auth.Issuer // nil disables login tokens
	PasswordColumn string
	Logger         *zap.Logger
}

// NewGateway returns a Gateway. A nil logger is replaced with a no-op logger.
func NewGateway(opts Options) *Gateway {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Gateway{
		caller:         opts.Caller,
		hasher:         opts.Hasher,
		issuer:         opts.Issuer,
		passwordColumn: opts.PasswordColumn,
		log:            log,
	}
}

// Handler returns the fiber handler for op.
func (g *Gateway) Handler(op Operation) fiber.Handler {
	status := op.Status
	if status == 0 {
		status = fiber.StatusOK
	}

	return func(c *fiber.Ctx) error {
		// The procedure name is picked up by the error handler for logging.
		c.Locals(LocalProcedure, op.Procedure)

		args, body, err := g.bind(c, op.Params)
		if err != nil {
			return err
		}

		if op.Shape == ShapeLogin {
			return g.login(c, op, args, body)
		}

		res, err := g.caller.Call(c.UserContext(), database.Call{
			Procedure:   op.Procedure,
			Args:        args,
			ReturnsRows: op.Shape == ShapeRows,
		})
		if err != nil {
			return apperr.Remote(op.Procedure, err)
		}

		if op.Shape == ShapeMessage {
			return c.Status(status).JSON(models.MessageResponse{Message: op.Message})
		}
		return c.Status(status).JSON(res.Rows)
	}
}

// LocalProcedure is the c.Locals key holding the procedure a request invoked.
const LocalProcedure = "procedure"

// Bind extracts params from the request in declared order.
func (g *Gateway) Bind(c *fiber.Ctx, params []Param) ([]any, error) {
	args, _, err := g.bind(c, params)
	return args, err
}

// bind is Bind that also hands back the decoded body (nil when no param read
// it), so later steps never decode the same request twice.
func (g *Gateway) bind(c *fiber.Ctx, params []Param) ([]any, *requestBody, error) {
	var body *requestBody
	args := make([]any, 0, len(params))

	for _, p := range params {
		var v any
		switch p.Source {
		case FromPath:
			v = pathValue(c, p)
		case FromQuery:
			v = queryValue(c, p)
		case FromPathOrQuery:
			if s := c.Params(p.Name); s != "" {
				v = present(p, s)
			} else {
				v = queryValue(c, p)
			}
		case FromBody:
			if body == nil {
				b, err := readBody(c)
				if err != nil {
					return nil, nil, err
				}
				body = b
			}
			v = body.get(p.Name)
		}

		if p.Integer {
			n, err := strconv.Atoi(fmt.Sprint(v))
			if err != nil {
				return nil, nil, apperr.Wrap(apperr.Validation, p.Invalid, err)
			}
			v = n
		}

		if p.Password {
			hashed, err := g.hashPassword(p.Name, v)
			if err != nil {
				return nil, nil, err
			}
			v = hashed
		}

		args = append(args, v)
	}

	return args, body, nil
}

// pathValue returns a path segment, or "" when the segment is absent.
func pathValue(c *fiber.Ctx, p Param) any {
	s := c.Params(p.Name)
	if s == "" && p.Optional {
		return models.None()
	}
	return present(p, s)
}

func queryValue(c *fiber.Ctx, p Param) any {
	if !c.Context().QueryArgs().Has(p.Name) {
		if p.Optional {
			return models.None()
		}
		return ""
	}
	return present(p, c.Query(p.Name))
}

// present wraps a supplied value. The string is copied: fiber reuses the
// request buffers once the handler returns.
func present(p Param, s string) any {
	s = string([]byte(s))
	if p.Optional {
		return models.Some(s)
	}
	return s
}

func (g *Gateway) hashPassword(field string, v any) (string, error) {
	var plain string
	switch t := v.(type) {
	case nil:
		return "", apperr.Invalid(field + " is required")
	case string:
		plain = t
	case json.Number:
		plain = t.String()
	default:
		return "", apperr.Invalid(field + " must be a string")
	}
	return g.hasher.Hash(plain)
}

const invalidBody = "Invalid request body"

// requestBody is a request body decoded once and read field by field.
type requestBody struct {
	c      *fiber.Ctx
	isJSON bool
	fields map[string]any
}

// readBody accepts JSON objects and url-encoded or multipart forms. An empty
// body is valid and binds every body field as NULL.
func readBody(c *fiber.Ctx) (*requestBody, error) {
	b := &requestBody{c: c}
	raw := c.Body()
	if len(bytes.TrimSpace(raw)) == 0 || !c.Is("json") {
		return b, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	// Numbers are forwarded as written so the database does any conversion.
	dec.UseNumber()
	if err := dec.Decode(&b.fields); err != nil {
		return nil, apperr.Wrap(apperr.Validation, invalidBody, err)
	}
	// Exactly one JSON value: {"Name":"x"}garbage is rejected.
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, apperr.Wrap(apperr.Validation, invalidBody, errors.New("trailing data after JSON body"))
	}
	b.isJSON = true
	return b, nil
}

// get returns the named field, or nil when the client did not send it.
// Nested objects and arrays are forwarded as their JSON text so every field
// occupies exactly one placeholder.
func (b *requestBody) get(name string) any {
	if b.isJSON {
		v, ok := b.fields[name]
		if !ok {
			return nil
		}
		switch v.(type) {
		case map[string]any, []any:
			text, err := json.Marshal(v)
			if err != nil {
				return nil
			}
			return string(text)
		}
		return v
	}

	args := b.c.Request().PostArgs()
	if args.Has(name) {
		return string(args.Peek(name))
	}
	if form, err := b.c.MultipartForm(); err == nil {
		if values, ok := form.Value[name]; ok && len(values) > 0 {
			return values[0]
		}
	}
	return nil
}

package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/trentd187/gym-api/internal/apperr"
	"github.com/trentd187/gym-api/internal/models"
)

// Call is one remote procedure invocation: the procedure name and its positional
// arguments in declared order. ReturnsRows tells the dialect whether the caller
// wants the first result set back.
type Call struct {
	Procedure   string
	Args        []any
	ReturnsRows bool
}

// Result is the first result set of a call, in the order the database produced it.
type Result struct {
	Columns []string
	Rows    models.Rows
}

// Caller issues exactly one round trip per call.
type Caller interface {
	Call(ctx context.Context, call Call) (Result, error)
}

// CallerOptions tune how a GormCaller talks to the pool.
type CallerOptions struct {
	// Timeout bounds each call; zero means the request context alone decides.
	Timeout time.Duration
	// UnsetAsNull binds an unset models.Optional as SQL NULL instead of ''.
	UnsetAsNull bool
}

// GormCaller is the Caller backed by the shared GORM pool.
type GormCaller struct {
	db      *gorm.DB
	dialect Dialect
	opts    CallerOptions
}

// NewCaller returns a Caller that renders statements with dialect and runs them on db.
func NewCaller(db *gorm.DB, dialect Dialect, opts CallerOptions) *GormCaller {
	return &GormCaller{db: db, dialect: dialect, opts: opts}
}

// Call runs the procedure and collects its first result set. Any further result
// sets (MySQL appends a status result to every CALL) are drained when the rows
// are closed. Errors come back classified; see Classify.
func (g *GormCaller) Call(ctx context.Context, call Call) (Result, error) {
	stmt, err := g.dialect.Statement(call.Procedure, len(call.Args), call.ReturnsRows)
	if err != nil {
		return Result{}, apperr.Wrap(apperr.Internal, "invalid procedure", err)
	}

	if g.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.opts.Timeout)
		defer cancel()
	}

	rows, err := g.db.WithContext(ctx).Raw(stmt, g.encode(call.Args)...).Rows()
	if err != nil {
		return Result{}, callError(ctx, call.Procedure, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return Result{}, callError(ctx, call.Procedure, err)
	}

	res := Result{Columns: columns, Rows: models.Rows{}}
	for rows.Next() {
		values := make([]any, len(columns))
		dest := make([]any, len(columns))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return Result{}, callError(ctx, call.Procedure, err)
		}
		for i, v := range values {
			values[i] = normalize(v)
		}
		res.Rows = append(res.Rows, models.Row{Columns: columns, Values: values})
	}
	if err := rows.Err(); err != nil {
		return Result{}, callError(ctx, call.Procedure, err)
	}

	return res, nil
}

// callError classifies a failed call. When the call's own deadline fired, the
// context error is kept in the chain so the failure reads as transient even if
// the driver reported it in its own words.
func callError(ctx context.Context, procedure string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
		err = fmt.Errorf("%w: %w", ctxErr, err)
	}
	return fmt.Errorf("call %s: %w", procedure, Classify(err))
}

// Ping checks that a connection can be acquired and the server answers.
func (g *GormCaller) Ping(ctx context.Context) error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return apperr.Wrap(apperr.Internal, "pool unavailable", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return Classify(err)
	}
	return nil
}

// encode turns bound request values into driver arguments.
func (g *GormCaller) encode(args []any) []any {
	out := make([]any, len(args))
	for i, a := range args {
		out[i] = EncodeArg(a, g.opts.UnsetAsNull)
	}
	return out
}

// EncodeArg resolves models.Optional into the procedure's "no filter" value
// and passes every other value through untouched.
func EncodeArg(a any, unsetAsNull bool) any {
	opt, ok := a.(models.Optional)
	if !ok {
		return a
	}
	if opt.Set {
		return opt.Value
	}
	if unsetAsNull {
		return nil
	}
	return ""
}

// normalize converts driver byte slices (MySQL returns text columns as []byte)
// into strings so they serialise as JSON strings instead of base64.
func normalize(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

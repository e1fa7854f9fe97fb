package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"net"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/trentd187/gym-api/internal/apperr"
)

// MySQL server error numbers the gateway distinguishes.
const (
	mysqlDuplicateEntry     = 1062
	mysqlRowIsReferenced    = 1451
	mysqlNoReferencedRow    = 1452
	mysqlBadNull            = 1048
	mysqlOutOfRange         = 1264
	mysqlTruncatedValue     = 1292
	mysqlIncorrectValue     = 1366
	mysqlDataTooLong        = 1406
	mysqlSignalException    = 1644
	mysqlTooManyConnections = 1040
	mysqlLockWaitTimeout    = 1205
	mysqlDeadlock           = 1213
)

// Classify tags a driver error with an apperr.Kind. The wrapped error keeps the
// original cause for logging; the message is generic and safe to expose.
func Classify(err error) error {
	if err == nil {
		return nil
	}

	var tagged *apperr.E
	if errors.As(err, &tagged) {
		return err
	}

	return apperr.Wrap(kindOf(err), "database call failed", err)
}

func kindOf(err error) apperr.Kind {
	switch {
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled),
		errors.Is(err, driver.ErrBadConn),
		errors.Is(err, sql.ErrConnDone),
		errors.Is(err, mysql.ErrInvalidConn):
		return apperr.Transient
	case errors.Is(err, sql.ErrNoRows):
		return apperr.NotFound
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return mysqlKind(myErr)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return postgresKind(pgErr.Code)
	}

	if pgconn.Timeout(err) || pgconn.SafeToRetry(err) {
		return apperr.Transient
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return apperr.Transient
	}

	return apperr.Internal
}

func mysqlKind(e *mysql.MySQLError) apperr.Kind {
	switch e.Number {
	case mysqlDuplicateEntry, mysqlRowIsReferenced, mysqlNoReferencedRow:
		return apperr.Conflict
	case mysqlBadNull, mysqlOutOfRange, mysqlTruncatedValue, mysqlIncorrectValue, mysqlDataTooLong:
		return apperr.Validation
	case mysqlTooManyConnections, mysqlLockWaitTimeout, mysqlDeadlock:
		return apperr.Transient
	case mysqlSignalException:
		// SIGNAL SQLSTATE '02000' is the "no data" class; anything else raised by
		// a procedure is a rejection of its input.
		if string(e.SQLState[:]) == "02000" {
			return apperr.NotFound
		}
		return apperr.Validation
	}
	return apperr.Internal
}

func postgresKind(code string) apperr.Kind {
	switch code {
	case "23505", "23503", "23P01":
		return apperr.Conflict
	case "23502", "23514", "P0001":
		return apperr.Validation
	case "P0002":
		return apperr.NotFound
	case "40001", "40P01", "57014":
		return apperr.Transient
	}

	switch {
	case strings.HasPrefix(code, "22"):
		return apperr.Validation
	case strings.HasPrefix(code, "08"), strings.HasPrefix(code, "53"):
		return apperr.Transient
	}
	return apperr.Internal
}

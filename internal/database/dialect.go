package database

import (
	"fmt"
	"regexp"
	"strings"
)

// procedureName is the accepted shape of a procedure identifier. Names are
// interpolated into the statement text, so anything else is refused.
var procedureName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Dialect renders the statement that invokes one procedure with positional
// placeholders. GORM rewrites "?" into "$n" for PostgreSQL.
type Dialect interface {
	// Statement returns the SQL for calling procedure with arity placeholders.
	// returnsRows says whether the caller reads a result set back.
	Statement(procedure string, arity int, returnsRows bool) (string, error)
}

// DialectFor returns the dialect for a driver name.
func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case "mysql":
		return MySQL{}, nil
	case "postgres":
		return Postgres{}, nil
	default:
		return nil, fmt.Errorf("no dialect for driver %q", driver)
	}
}

// MySQL procedures return result sets directly from CALL.
type MySQL struct{}

// Statement renders "CALL Name(?, ?)" for reads and writes alike. The first
// result set of the CALL is what a read returns.
func (MySQL) Statement(procedure string, arity int, _ bool) (string, error) {
	if err := checkName(procedure); err != nil {
		return "", err
	}
	return "CALL " + procedure + "(" + placeholders(arity) + ")", nil
}

// Postgres procedures cannot return rows, so reads target a set-returning
// function of the same name. Names are left unquoted and therefore fold to
// lower case.
type Postgres struct{}

// Statement renders "SELECT * FROM name(?, ?)" for reads and "CALL name(?, ?)"
// for writes.
func (Postgres) Statement(procedure string, arity int, returnsRows bool) (string, error) {
	if err := checkName(procedure); err != nil {
		return "", err
	}
	if returnsRows {
		return "SELECT * FROM " + procedure + "(" + placeholders(arity) + ")", nil
	}
	return "CALL " + procedure + "(" + placeholders(arity) + ")", nil
}

// checkName refuses anything that is not a plain SQL identifier.
func checkName(procedure string) error {
	if !procedureName.MatchString(procedure) {
		return fmt.Errorf("invalid procedure name %q", procedure)
	}
	return nil
}

// placeholders returns n comma-separated "?" markers.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

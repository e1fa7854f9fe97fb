// Package models defines the transient data structures that travel through a single
// request: the ordered rows a procedure returns, the optional filters a request binds,
// and the JSON envelopes the API responds with.
//
// Nothing here maps to a table. The schema belongs to the stored procedures and is
// opaque to this service; a procedure's result set is relayed column for column.
package models

import (
	"bytes"
	"encoding/json"
)

// --- Result rows ---

// Row is one row of a procedure's result set.
// Columns and Values are parallel slices; the JSON encoding is an object whose keys
// appear in result-set column order, so two identical result sets always serialise
// to byte-identical output.
type Row struct {
	Columns []string
	Values  []any
}

// Get returns the value of the named column and whether the column exists.
func (r Row) Get(column string) (any, bool) {
	for i, c := range r.Columns {
		if c == column {
			return r.Values[i], true
		}
	}
	return nil, false
}

// Without returns a copy of the row with the named column removed.
// Used to strip the stored password hash from a login row before it is returned.
func (r Row) Without(column string) Row {
	out := Row{
		Columns: make([]string, 0, len(r.Columns)),
		Values:  make([]any, 0, len(r.Values)),
	}
	for i, c := range r.Columns {
		if c == column {
			continue
		}
		out.Columns = append(out.Columns, c)
		out.Values = append(out.Values, r.Values[i])
	}
	return out
}

// MarshalJSON writes the row as a JSON object preserving column order.
func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range r.Columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(c)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(r.Values[i])
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Rows is the first result set of a read procedure.
type Rows []Row

// MarshalJSON encodes an empty or nil result set as [] rather than null.
func (rs Rows) MarshalJSON() ([]byte, error) {
	if len(rs) == 0 {
		return []byte("[]"), nil
	}
	return json.Marshal([]Row(rs))
}

// --- Request values ---

// Optional is a filter value that may be omitted by the client, e.g. the
// comma-separated ID list of GET /api/members/:Members?.
// An unset Optional is not the same thing as a supplied empty string; how it is
// encoded for the procedure is decided by the database layer (UNSET_FILTER).
type Optional struct {
	Value string
	Set   bool
}

// Some returns a set Optional holding v.
func Some(v string) Optional { return Optional{Value: v, Set: true} }

// None returns an unset Optional.
func None() Optional { return Optional{} }

// --- Response envelopes ---

// MessageResponse is returned by every successful write.
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// LoginResponse is returned by a successful POST /api/login.
// Token is only present when the server is configured with a JWT signing key.
type LoginResponse struct {
	User  Row    `json:"user"`
	Token string `json:"token,omitempty"`
}

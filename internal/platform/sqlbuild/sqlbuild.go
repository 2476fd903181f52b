// Package sqlbuild generates record SQL from the schema registry. Identifiers
// come only from the registry; values are always bound as arguments.
package sqlbuild

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"hrrecords/internal/domain/records"
)

var (
	ErrUnknownKind = errors.New("unknown record kind")
	ErrNoFields    = errors.New("record has no storable fields")
	ErrMissingKey  = errors.New("record is missing its natural key")
)

type Dialect int

const (
	Postgres Dialect = iota
	SQLite
)

func (d Dialect) String() string {
	if d == SQLite {
		return "sqlite"
	}
	return "postgres"
}

// Placeholder returns the n-th (1-based) bind marker.
func (d Dialect) Placeholder(n int) string {
	if d == SQLite {
		return "?"
	}
	return "$" + strconv.Itoa(n)
}

// Quote double-quotes an identifier. Both dialects keep quoted identifiers
// case-sensitive.
func Quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

type Statement struct {
	SQL  string
	Args []any
}

// Insert writes every non-hidden field present on the record, in canonical
// order. Hidden fields are generated by storage. Values not in the schema are
// ignored.
func Insert(d Dialect, rec *records.Record) (Statement, error) {
	kind := rec.Kind()
	if !kind.Valid() {
		return Statement{}, ErrUnknownKind
	}

	var cols, marks []string
	var args []any
	for _, def := range records.Definitions(kind) {
		if def.Hidden {
			continue
		}
		value, ok := rec.Value(def.Name)
		if !ok {
			continue
		}
		args = append(args, value)
		cols = append(cols, Quote(def.Name))
		marks = append(marks, d.Placeholder(len(args)))
	}
	if len(cols) == 0 {
		return Statement{}, ErrNoFields
	}

	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		Quote(kind.Table()), strings.Join(cols, ", "), strings.Join(marks, ", "))
	return Statement{SQL: sql, Args: args}, nil
}

// Update sets every editable, non-hidden, non-key field present on the record
// and matches the row by the kind's natural key. Absent fields keep their
// stored value. The row must also belong to the record's employee, so a
// generated key can only reach rows of the employee that was authorized.
func Update(d Dialect, rec *records.Record) (Statement, error) {
	kind := rec.Kind()
	if !kind.Valid() {
		return Statement{}, ErrUnknownKind
	}

	key := records.NaturalKey(kind)
	isKey := make(map[string]bool, len(key))
	for _, name := range key {
		isKey[name] = true
	}
	if !isKey[records.FieldEmployeeID] {
		key = append(key, records.FieldEmployeeID)
		isKey[records.FieldEmployeeID] = true
	}

	var sets []string
	var args []any
	for _, def := range records.Definitions(kind) {
		if def.Hidden || !def.Editable || isKey[def.Name] {
			continue
		}
		value, ok := rec.Value(def.Name)
		if !ok {
			continue
		}
		args = append(args, value)
		sets = append(sets, Quote(def.Name)+" = "+d.Placeholder(len(args)))
	}
	if len(sets) == 0 {
		return Statement{}, ErrNoFields
	}

	var where []string
	for _, name := range key {
		value, ok := rec.Value(name)
		if !ok || value == "" {
			return Statement{}, fmt.Errorf("%w: %s", ErrMissingKey, name)
		}
		args = append(args, value)
		where = append(where, Quote(name)+" = "+d.Placeholder(len(args)))
	}

	sql := fmt.Sprintf("UPDATE %s SET %s WHERE %s",
		Quote(kind.Table()), strings.Join(sets, ", "), strings.Join(where, " AND "))
	return Statement{SQL: sql, Args: args}, nil
}

// SelectByEmployee reads every field, in canonical order and as text, of the
// rows belonging to employeeID ordered by natural key.
func SelectByEmployee(d Dialect, kind records.Kind, employeeID string) (Statement, error) {
	if !kind.Valid() {
		return Statement{}, ErrUnknownKind
	}

	names := records.FieldNames(kind)
	cols := make([]string, 0, len(names))
	for _, name := range names {
		cols = append(cols, fmt.Sprintf("COALESCE(CAST(%s AS TEXT), '')", Quote(name)))
	}
	var order []string
	for _, name := range records.NaturalKey(kind) {
		order = append(order, Quote(name))
	}

	sql := fmt.Sprintf("SELECT %s FROM %s WHERE %s = %s ORDER BY %s",
		strings.Join(cols, ", "),
		Quote(kind.Table()),
		Quote(records.FieldEmployeeID),
		d.Placeholder(1),
		strings.Join(order, ", "))
	return Statement{SQL: sql, Args: []any{employeeID}}, nil
}

// CreateTable returns the DDL for a kind's table. Every visible field is a
// text column; the natural key is unique unless it is the generated id.
func CreateTable(d Dialect, kind records.Kind) (string, error) {
	if !kind.Valid() {
		return "", ErrUnknownKind
	}

	var cols []string
	for _, def := range records.Definitions(kind) {
		if def.Hidden {
			cols = append(cols, Quote(def.Name)+" "+generatedID(d))
			continue
		}
		cols = append(cols, Quote(def.Name)+" TEXT NOT NULL DEFAULT ''")
	}

	key := records.NaturalKey(kind)
	if !keyIsGenerated(kind, key) {
		quoted := make([]string, 0, len(key))
		for _, name := range key {
			quoted = append(quoted, Quote(name))
		}
		cols = append(cols, "UNIQUE ("+strings.Join(quoted, ", ")+")")
	}

	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n  %s\n)",
		Quote(kind.Table()), strings.Join(cols, ",\n  ")), nil
}

func generatedID(d Dialect) string {
	if d == SQLite {
		return "INTEGER PRIMARY KEY AUTOINCREMENT"
	}
	return "BIGSERIAL PRIMARY KEY"
}

func keyIsGenerated(kind records.Kind, key []string) bool {
	if len(key) != 1 {
		return false
	}
	def, ok := records.Lookup(kind, key[0])
	return ok && def.Hidden
}

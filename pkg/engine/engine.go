// Package engine enumerates the source database engines a readiness check can
// assess.
package engine

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownEngine is returned when an engine name is not recognized.
var ErrUnknownEngine = errors.New("unknown database engine")

// Type identifies a source database engine.
type Type string

// Supported engines.
const (
	Postgres  Type = "postgres"
	MySQL     Type = "mysql"
	Oracle    Type = "oracle"
	SQLServer Type = "sqlserver"
)

// aliases maps alternate spellings to their engine.
var aliases = map[string]Type{
	"postgres":   Postgres,
	"postgresql": Postgres,
	"mysql":      MySQL,
	"oracle":     Oracle,
	"sqlserver":  SQLServer,
	"mssql":      SQLServer,
}

// All returns every supported engine in a stable order.
func All() []Type {
	return []Type{Postgres, MySQL, Oracle, SQLServer}
}

// Parse resolves a user-supplied engine name. Matching is case-insensitive and
// accepts "mssql" and "postgresql" as aliases.
func Parse(name string) (Type, error) {
	t, ok := aliases[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownEngine, name)
	}
	return t, nil
}

// Valid reports whether t is one of the supported engines.
func (t Type) Valid() bool {
	switch t {
	case Postgres, MySQL, Oracle, SQLServer:
		return true
	default:
		return false
	}
}

// String returns the engine name.
func (t Type) String() string {
	return string(t)
}

// DefaultPort returns the conventional listener port for the engine, or zero
// when the engine is unknown.
func (t Type) DefaultPort() int {
	switch t {
	case Postgres:
		return 5432
	case MySQL:
		return 3306
	case Oracle:
		return 1521
	case SQLServer:
		return 1433
	default:
		return 0
	}
}

package catalog

import (
	"errors"
	"fmt"
)

// Catalog validation errors.
var (
	// ErrEmptyName is returned when a statement has no name.
	ErrEmptyName = errors.New("query name is required")

	// ErrDuplicateName is returned when a name is declared twice.
	ErrDuplicateName = errors.New("duplicate query name")

	// ErrUnknownCategory is returned when a name has no recognized category prefix.
	ErrUnknownCategory = errors.New("unknown query category")

	// ErrEmptyStatement is returned when a named block has no SQL body.
	ErrEmptyStatement = errors.New("query has no statement")

	// ErrStrayStatement is returned when SQL appears before the first name header.
	ErrStrayStatement = errors.New("statement text outside a named block")

	// ErrNoCatalog is returned when no embedded catalog exists for an engine.
	ErrNoCatalog = errors.New("no catalog for engine")
)

// LoadError reports a catalog that is missing or malformed. It is fatal and
// is raised before any connection is opened.
type LoadError struct {
	Catalog string
	File    string
	Err     error
}

func (e *LoadError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("loading catalog %s: %s: %v", e.Catalog, e.File, e.Err)
	}
	return fmt.Sprintf("loading catalog %s: %v", e.Catalog, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

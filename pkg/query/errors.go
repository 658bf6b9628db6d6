package query

import (
	"errors"
	"fmt"

	"github.com/txn2/dma-readiness/pkg/catalog"
)

var (
	// ErrQueryNotFound is returned when a name is not in the bound catalog.
	ErrQueryNotFound = errors.New("query not found in catalog")

	// ErrMissingParameter is returned when a statement references a
	// parameter that was not supplied.
	ErrMissingParameter = errors.New("missing statement parameter")
)

// ExecutionError reports a single failed script. It aborts the enclosing
// category and the run.
type ExecutionError struct {
	Catalog  string
	Category catalog.Category
	Query    string
	Err      error
}

func (e *ExecutionError) Error() string {
	if e.Category == "" {
		return fmt.Sprintf("executing query %s: %v", e.Query, e.Err)
	}
	return fmt.Sprintf("executing %s query %s: %v", e.Category, e.Query, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

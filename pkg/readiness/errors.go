package readiness

import (
	"errors"
	"fmt"

	"github.com/txn2/dma-readiness/pkg/engine"
)

// ErrClosed is returned when a closed workflow is used.
var ErrClosed = errors.New("workflow is closed")

// ResourceAcquisitionError reports a connection that could not be opened.
// Resources acquired before it have already been released.
type ResourceAcquisitionError struct {
	Resource string
	Engine   engine.Type
	Err      error
}

func (e *ResourceAcquisitionError) Error() string {
	return fmt.Sprintf("acquiring %s connection for %s: %v", e.Resource, e.Engine, e.Err)
}

func (e *ResourceAcquisitionError) Unwrap() error {
	return e.Err
}

// UnsupportedEngineError reports an engine with no summary renderer. It is
// raised at report time, after every earlier state succeeded.
type UnsupportedEngineError struct {
	Engine engine.Type
}

func (e *UnsupportedEngineError) Error() string {
	return fmt.Sprintf("summary for %s is not implemented", e.Engine)
}

// StageError attributes a failure to the workflow state it happened in.
type StageError struct {
	State State
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.State, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

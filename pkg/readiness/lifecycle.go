package readiness

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// resource is one acquire/release pair owned by a lifecycle.
type resource struct {
	name    string
	acquire func(context.Context) error
	release func(context.Context) error
}

// lifecycle acquires resources in registration order and releases them in
// reverse. When an acquisition fails the ones before it are released
// immediately.
type lifecycle struct {
	mu sync.Mutex

	resources []resource
	acquired  int
	stopped   bool
}

func newLifecycle() *lifecycle {
	return &lifecycle{resources: make([]resource, 0, 2)}
}

// add registers a resource. acquire may be nil for resources that are
// already held; release may be nil for resources needing no cleanup.
func (l *lifecycle) add(name string, acquire, release func(context.Context) error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.resources = append(l.resources, resource{name: name, acquire: acquire, release: release})
}

// start acquires every registered resource that has not been acquired yet.
func (l *lifecycle) start(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.stopped {
		return ErrClosed
	}

	for i := l.acquired; i < len(l.resources); i++ {
		r := l.resources[i]
		if r.acquire != nil {
			if err := r.acquire(ctx); err != nil {
				l.rollback(ctx, i)
				return &ResourceAcquisitionError{Resource: r.name, Err: err}
			}
		}
		l.acquired = i + 1
	}
	return nil
}

// rollback releases already-acquired resources in reverse order. Called when
// the acquisition at index failedAt fails.
func (l *lifecycle) rollback(ctx context.Context, failedAt int) {
	for j := failedAt - 1; j >= 0; j-- {
		if l.resources[j].release == nil {
			continue
		}
		if err := l.resources[j].release(ctx); err != nil {
			slog.Warn("releasing resource after failed acquisition",
				"resource", l.resources[j].name, "error", err)
		}
	}
	l.acquired = 0
	l.stopped = true
}

// stop releases every acquired resource in reverse order. Later calls do
// nothing.
func (l *lifecycle) stop(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.stopped {
		return nil
	}
	l.stopped = true

	var errs []error
	for i := l.acquired - 1; i >= 0; i-- {
		r := l.resources[i]
		if r.release == nil {
			continue
		}
		if err := r.release(ctx); err != nil {
			errs = append(errs, fmt.Errorf("releasing %s: %w", r.name, err))
		}
	}
	l.acquired = 0
	return errors.Join(errs...)
}

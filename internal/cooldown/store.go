// Package cooldown persists the last successful trigger time per action.
//
// The store is shared between every instance of the trigger proxy, so an
// in-process timestamp is not enough (see the redis implementation). The
// default check-then-stamp flow is best effort: two racing requests may
// both observe an elapsed window and both forward upstream. Acquire closes
// that race for deployments that want strict mutual exclusion.
package cooldown

import (
	"context"
	"time"
)

// Store records the last successful trigger per action.
type Store interface {
	// Last returns the timestamp of the last successful trigger of the
	// action. The second return is false when no record exists.
	Last(ctx context.Context, action string) (time.Time, bool, error)

	// Record stamps the action with the given time, replacing any
	// previous record. The record may expire once the cooldown window
	// for the action has passed.
	Record(ctx context.Context, action string, at time.Time) error

	// Acquire atomically claims the cooldown window for the action.
	// It returns false when the window is already held. Used in strict
	// mode instead of the Last/Record pair.
	Acquire(ctx context.Context, action string, window time.Duration) (bool, error)

	// Release gives back a window claimed by Acquire. Called when the
	// upstream dispatch fails, so a failed attempt does not start a new
	// cooldown window.
	Release(ctx context.Context, action string) error

	// Close releases underlying resources.
	Close() error
}

// Package dispatch forwards trigger requests to the upstream
// repository_dispatch API that runs the boiler-data workflows.
package dispatch

import (
	"context"
	"fmt"
)

// Dispatcher sends a named event upstream.
type Dispatcher interface {
	// Dispatch forwards the action. A nil error means the upstream
	// accepted the event. An *UpstreamError carries the upstream
	// status and body when the call was rejected.
	Dispatch(ctx context.Context, action string) error
}

// UpstreamError reports a non-success response from the dispatch API.
// The upstream details are passed through verbatim so the caller can
// surface them.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream dispatch returned %d: %s", e.Status, e.Body)
}

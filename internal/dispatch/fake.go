package dispatch

import (
	"context"
	"sync"
)

// FakeDispatcher records dispatched actions for tests.
type FakeDispatcher struct {
	mu      sync.Mutex
	actions []string

	// Err is returned from Dispatch when set.
	Err error
}

// NewFake creates a dispatcher that accepts everything.
func NewFake() *FakeDispatcher {
	return &FakeDispatcher{}
}

func (f *FakeDispatcher) Dispatch(ctx context.Context, action string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	f.actions = append(f.actions, action)
	return nil
}

// Actions returns the actions dispatched so far.
func (f *FakeDispatcher) Actions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.actions...)
}

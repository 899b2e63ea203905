package vaillant

import (
	"context"
	"sync"
)

// FakeClient serves canned systems for tests.
type FakeClient struct {
	mu      sync.Mutex
	systems []System
	boosted []string

	// SystemsErr and BoostErr are returned when set.
	SystemsErr error
	BoostErr   error
}

// NewFake creates a fake serving the given systems.
func NewFake(systems ...System) *FakeClient {
	return &FakeClient{systems: systems}
}

func (f *FakeClient) Systems(ctx context.Context) ([]System, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SystemsErr != nil {
		return nil, f.SystemsErr
	}
	return append([]System(nil), f.systems...), nil
}

func (f *FakeClient) BoostDHW(ctx context.Context, systemID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.BoostErr != nil {
		return f.BoostErr
	}
	f.boosted = append(f.boosted, systemID)
	return nil
}

// Boosted returns the system IDs boosted so far.
func (f *FakeClient) Boosted() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.boosted...)
}

// Float is a helper for building snapshots in tests.
func Float(v float64) *float64 {
	return &v
}

package trigger_test

import (
	"context"
	"testing"
	"time"

	"github.com/boilerwatch/boilerwatch/internal/cooldown"
	"github.com/boilerwatch/boilerwatch/internal/dispatch"
	"github.com/boilerwatch/boilerwatch/internal/logging"
	"github.com/boilerwatch/boilerwatch/internal/trigger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testCooldowns = map[string]time.Duration{
	"log-data": 600 * time.Second,
	"boost":    1800 * time.Second,
}

type fixture struct {
	svc        *trigger.Service
	store      *cooldown.MemoryStore
	dispatcher *dispatch.FakeDispatcher
	now        time.Time
}

func newFixture(t *testing.T, opts ...trigger.Option) *fixture {
	t.Helper()
	f := &fixture{
		dispatcher: dispatch.NewFake(),
		now:        time.Date(2026, 2, 7, 12, 0, 0, 0, time.UTC),
	}
	f.store = cooldown.NewMemory(cooldown.WithClock(func() time.Time { return f.now }))
	opts = append([]trigger.Option{
		trigger.WithNow(func() time.Time { return f.now }),
		trigger.WithLogger(logging.NewNop()),
	}, opts...)
	f.svc = trigger.New(f.store, f.dispatcher, testCooldowns, "log-data", opts...)
	return f
}

func (f *fixture) advance(d time.Duration) {
	f.now = f.now.Add(d)
}

func TestTrigger_ForwardsAndStamps(t *testing.T) {
	f := newFixture(t)

	res, err := f.svc.Trigger(context.Background(), "log-data")
	require.NoError(t, err)
	assert.Equal(t, trigger.Triggered, res.Outcome)
	assert.Equal(t, "log-data", res.Action)
	assert.Equal(t, []string{"log-data"}, f.dispatcher.Actions())

	last, ok, err := f.store.Last(context.Background(), "log-data")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, last.Equal(f.now))
}

func TestTrigger_CooldownWindow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.svc.Trigger(ctx, "log-data")
	require.NoError(t, err)
	require.Equal(t, trigger.Triggered, res.Outcome)

	// Halfway through the 600s window.
	f.advance(300 * time.Second)
	res, err = f.svc.Trigger(ctx, "log-data")
	require.NoError(t, err)
	assert.Equal(t, trigger.Cooldown, res.Outcome)
	assert.Equal(t, "log-data", res.Action)
	assert.Equal(t, 300, res.RetryIn)
	assert.Len(t, f.dispatcher.Actions(), 1, "no second upstream call during cooldown")

	// Exactly at the window boundary the action is eligible again.
	f.advance(300 * time.Second)
	res, err = f.svc.Trigger(ctx, "log-data")
	require.NoError(t, err)
	assert.Equal(t, trigger.Triggered, res.Outcome)
	assert.Len(t, f.dispatcher.Actions(), 2)
}

func TestTrigger_RetryInRoundsUp(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Trigger(ctx, "log-data")
	require.NoError(t, err)

	f.advance(299*time.Second + 500*time.Millisecond)
	res, err := f.svc.Trigger(ctx, "log-data")
	require.NoError(t, err)
	assert.Equal(t, trigger.Cooldown, res.Outcome)
	assert.Equal(t, 301, res.RetryIn, "fractional seconds round up")
}

func TestTrigger_UnknownActionResolvesToDefault(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.svc.Trigger(ctx, "frobnicate")
	require.NoError(t, err)
	assert.Equal(t, trigger.Triggered, res.Outcome)
	assert.Equal(t, "log-data", res.Action)

	// The default action's cooldown applies to the resolved action.
	f.advance(100 * time.Second)
	res, err = f.svc.Trigger(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, trigger.Cooldown, res.Outcome)
	assert.Equal(t, "log-data", res.Action)
	assert.Equal(t, 500, res.RetryIn)
}

func TestTrigger_ActionsHaveIndependentWindows(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Trigger(ctx, "log-data")
	require.NoError(t, err)

	res, err := f.svc.Trigger(ctx, "boost")
	require.NoError(t, err)
	assert.Equal(t, trigger.Triggered, res.Outcome)
	assert.Equal(t, []string{"log-data", "boost"}, f.dispatcher.Actions())
}

func TestTrigger_MissingCredential(t *testing.T) {
	f := newFixture(t)
	// nil dispatcher marks the credential as unconfigured.
	svc := trigger.New(f.store, nil, testCooldowns, "log-data",
		trigger.WithNow(func() time.Time { return f.now }),
		trigger.WithLogger(logging.NewNop()))
	ctx := context.Background()

	for _, action := range []string{"log-data", "boost"} {
		res, err := svc.Trigger(ctx, action)
		require.NoError(t, err)
		assert.Equal(t, trigger.ConfigError, res.Outcome)
	}

	// No cooldown record was created either.
	_, ok, err := f.store.Last(ctx, "log-data")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTrigger_UpstreamErrorDoesNotStamp(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.dispatcher.Err = &dispatch.UpstreamError{Status: 500, Body: `{"message":"boom"}`}

	res, err := f.svc.Trigger(ctx, "log-data")
	require.NoError(t, err)
	assert.Equal(t, trigger.UpstreamError, res.Outcome)
	assert.Equal(t, 500, res.UpstreamStatus)
	assert.Equal(t, `{"message":"boom"}`, res.UpstreamBody)

	// A failed attempt does not start a cooldown window: the next
	// request goes straight back upstream.
	f.dispatcher.Err = nil
	res, err = f.svc.Trigger(ctx, "log-data")
	require.NoError(t, err)
	assert.Equal(t, trigger.Triggered, res.Outcome)
}

func TestTrigger_UpstreamErrorPreservesExistingWindow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Trigger(ctx, "log-data")
	require.NoError(t, err)

	// Past the window, upstream starts failing.
	f.advance(700 * time.Second)
	f.dispatcher.Err = &dispatch.UpstreamError{Status: 502, Body: "bad gateway"}
	res, err := f.svc.Trigger(ctx, "log-data")
	require.NoError(t, err)
	require.Equal(t, trigger.UpstreamError, res.Outcome)

	// The old stamp is untouched: it is still 700s old, so the next
	// request is eligible immediately once upstream recovers.
	f.dispatcher.Err = nil
	res, err = f.svc.Trigger(ctx, "log-data")
	require.NoError(t, err)
	assert.Equal(t, trigger.Triggered, res.Outcome)
}

func TestTrigger_StrictModeSingleWinner(t *testing.T) {
	f := newFixture(t, trigger.WithStrict(true))
	ctx := context.Background()

	res, err := f.svc.Trigger(ctx, "log-data")
	require.NoError(t, err)
	require.Equal(t, trigger.Triggered, res.Outcome)

	f.advance(10 * time.Second)
	res, err = f.svc.Trigger(ctx, "log-data")
	require.NoError(t, err)
	assert.Equal(t, trigger.Cooldown, res.Outcome)
	assert.Equal(t, 590, res.RetryIn)
}

func TestTrigger_StrictModeReleasesOnUpstreamError(t *testing.T) {
	f := newFixture(t, trigger.WithStrict(true))
	ctx := context.Background()

	f.dispatcher.Err = &dispatch.UpstreamError{Status: 500, Body: "boom"}
	res, err := f.svc.Trigger(ctx, "log-data")
	require.NoError(t, err)
	require.Equal(t, trigger.UpstreamError, res.Outcome)

	// The claimed window was released, so recovery is immediate.
	f.dispatcher.Err = nil
	res, err = f.svc.Trigger(ctx, "log-data")
	require.NoError(t, err)
	assert.Equal(t, trigger.Triggered, res.Outcome)
}

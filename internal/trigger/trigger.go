// Package trigger decides whether an inbound action request is forwarded
// to the upstream dispatch API, enforcing a per-action cooldown window.
package trigger

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"time"

	"github.com/boilerwatch/boilerwatch/internal/cooldown"
	"github.com/boilerwatch/boilerwatch/internal/dispatch"
)

// Outcome classifies the result of a trigger request.
type Outcome int

const (
	// Triggered means the action was forwarded upstream and accepted.
	Triggered Outcome = iota
	// Cooldown means the action is still inside its cooldown window.
	// This is an expected, non-error outcome.
	Cooldown
	// ConfigError means the privileged credential is not configured; no
	// upstream call was attempted.
	ConfigError
	// UpstreamError means the upstream dispatch call failed or returned
	// a non-success status. The cooldown record is left untouched.
	UpstreamError
)

// Result carries the outcome of one trigger request.
type Result struct {
	Outcome Outcome
	Action  string

	// RetryIn is the remaining wait in whole seconds, rounded up.
	// Set for Cooldown results.
	RetryIn int

	// UpstreamStatus and UpstreamBody pass the upstream response
	// through verbatim. Set for UpstreamError results when the
	// upstream responded at all; UpstreamStatus is 0 when the call
	// itself failed (network error, timeout).
	UpstreamStatus int
	UpstreamBody   string
}

// Service is the action dispatch proxy. It is stateless apart from the
// shared cooldown store and is safe for concurrent use.
type Service struct {
	store         cooldown.Store
	dispatcher    dispatch.Dispatcher
	cooldowns     map[string]time.Duration
	defaultAction string
	strict        bool
	now           func() time.Time
	logger        *slog.Logger
}

type Option func(*Service)

// WithNow overrides the clock. Used in tests.
func WithNow(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithStrict enables atomic window claiming via the store, closing the
// check-then-stamp race between concurrent instances.
func WithStrict(strict bool) Option {
	return func(s *Service) {
		s.strict = strict
	}
}

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// New creates the dispatch proxy. A nil dispatcher marks the privileged
// credential as unconfigured: every non-cooldown request then yields a
// ConfigError result without an upstream call. cooldowns is the fixed
// action table; defaultAction must have an entry.
func New(store cooldown.Store, dispatcher dispatch.Dispatcher, cooldowns map[string]time.Duration, defaultAction string, opts ...Option) *Service {
	s := &Service{
		store:         store,
		dispatcher:    dispatcher,
		cooldowns:     cooldowns,
		defaultAction: defaultAction,
		now:           time.Now,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Resolve maps a requested action to a configured one. Unknown or empty
// actions fall back to the default action.
func (s *Service) Resolve(requested string) string {
	if _, ok := s.cooldowns[requested]; ok {
		return requested
	}
	return s.defaultAction
}

// Trigger runs one request through the cooldown check and, when the
// window has elapsed, forwards the action upstream. The cooldown record
// is only stamped after confirmed upstream success, so a failed attempt
// never starts a new window. The returned error reports store failures
// only; every dispatch outcome is expressed in the Result.
func (s *Service) Trigger(ctx context.Context, requested string) (Result, error) {
	action := s.Resolve(requested)
	window := s.cooldowns[action]

	if s.strict {
		return s.triggerStrict(ctx, action, window)
	}
	return s.triggerBestEffort(ctx, action, window)
}

func (s *Service) triggerBestEffort(ctx context.Context, action string, window time.Duration) (Result, error) {
	last, ok, err := s.store.Last(ctx, action)
	if err != nil {
		return Result{}, err
	}
	now := s.now()
	if ok {
		elapsed := now.Sub(last)
		if elapsed < window {
			return s.cooldownResult(action, window-elapsed), nil
		}
	}

	if res, done := s.forward(ctx, action); done {
		return res, nil
	}

	if err := s.store.Record(ctx, action, now); err != nil {
		// The dispatch already went out; losing the stamp only widens
		// the race window, so log and report success.
		s.logger.Error("record cooldown stamp", "action", action, "error", err)
	}
	return Result{Outcome: Triggered, Action: action}, nil
}

func (s *Service) triggerStrict(ctx context.Context, action string, window time.Duration) (Result, error) {
	ok, err := s.store.Acquire(ctx, action, window)
	if err != nil {
		return Result{}, err
	}
	if !ok {
		remaining := window
		if last, found, err := s.store.Last(ctx, action); err == nil && found {
			remaining = window - s.now().Sub(last)
		}
		return s.cooldownResult(action, remaining), nil
	}

	if res, done := s.forward(ctx, action); done {
		if res.Outcome != Triggered {
			if err := s.store.Release(ctx, action); err != nil {
				s.logger.Error("release cooldown window", "action", action, "error", err)
			}
		}
		return res, nil
	}
	return Result{Outcome: Triggered, Action: action}, nil
}

// forward sends the action upstream. The second return is false only for
// the best-effort success path, where the caller still has to stamp the
// record.
func (s *Service) forward(ctx context.Context, action string) (Result, bool) {
	if s.dispatcher == nil {
		return Result{Outcome: ConfigError, Action: action}, true
	}

	err := s.dispatcher.Dispatch(ctx, action)
	if err == nil {
		if s.strict {
			return Result{Outcome: Triggered, Action: action}, true
		}
		return Result{}, false
	}

	res := Result{Outcome: UpstreamError, Action: action}
	var upstream *dispatch.UpstreamError
	if errors.As(err, &upstream) {
		res.UpstreamStatus = upstream.Status
		res.UpstreamBody = upstream.Body
	} else {
		res.UpstreamBody = err.Error()
	}
	s.logger.Warn("upstream dispatch failed",
		"action", action, "status", res.UpstreamStatus, "error", err)
	return res, true
}

func (s *Service) cooldownResult(action string, remaining time.Duration) Result {
	retryIn := int(math.Ceil(remaining.Seconds()))
	if retryIn < 0 {
		retryIn = 0
	}
	return Result{Outcome: Cooldown, Action: action, RetryIn: retryIn}
}

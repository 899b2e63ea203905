package vaillant

import (
	"context"
	"log/slog"
	"time"
)

// maxFetchAttempts bounds retries against the myVAILLANT API, which
// throttles with 401/403 when polled too often.
const maxFetchAttempts = 3

// FetchSystems reads the systems, retrying 401/403 with a growing
// backoff. Other errors are returned immediately.
func FetchSystems(ctx context.Context, c Client, logger *slog.Logger, sleep func(time.Duration)) ([]System, error) {
	var lastErr error
	for attempt := 1; attempt <= maxFetchAttempts; attempt++ {
		systems, err := c.Systems(ctx)
		if err == nil {
			return systems, nil
		}
		lastErr = err
		if !IsAuthError(err) || attempt == maxFetchAttempts {
			break
		}
		wait := time.Duration(attempt) * 2 * time.Minute
		logger.Warn("API quota exceeded, retrying",
			"wait", wait, "attempt", attempt, "max_attempts", maxFetchAttempts)
		sleep(wait)
	}
	return nil, lastErr
}

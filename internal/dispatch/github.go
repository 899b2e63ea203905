package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultBaseURL = "https://api.github.com"

// maxErrorBody bounds how much of an upstream error response is passed
// through to the caller.
const maxErrorBody = 4 * 1024

// GitHub dispatches repository_dispatch events. The token authorizes the
// call and is never included in any response or log line.
type GitHub struct {
	httpClient *http.Client
	baseURL    string
	owner      string
	repo       string
	token      string
}

type GitHubOption func(*GitHub)

// WithBaseURL overrides the API base URL. Used in tests.
func WithBaseURL(url string) GitHubOption {
	return func(g *GitHub) {
		g.baseURL = url
	}
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) GitHubOption {
	return func(g *GitHub) {
		g.httpClient = client
	}
}

// NewGitHub creates a dispatcher for the given repository.
func NewGitHub(owner, repo, token string, timeout time.Duration, opts ...GitHubOption) *GitHub {
	g := &GitHub{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    defaultBaseURL,
		owner:      owner,
		repo:       repo,
		token:      token,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

type dispatchBody struct {
	EventType string `json:"event_type"`
}

// Dispatch sends the repository_dispatch event. GitHub signals success
// with 204 No Content; anything else is an *UpstreamError.
func (g *GitHub) Dispatch(ctx context.Context, action string) error {
	payload, err := json.Marshal(dispatchBody{EventType: action})
	if err != nil {
		return fmt.Errorf("marshal dispatch body: %w", err)
	}

	url := fmt.Sprintf("%s/repos/%s/%s/dispatches", g.baseURL, g.owner, g.repo)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build dispatch request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("Authorization", "Bearer "+g.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("dispatch %q: %w", action, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &UpstreamError{Status: resp.StatusCode, Body: string(body)}
}

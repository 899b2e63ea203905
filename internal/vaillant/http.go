package vaillant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const defaultBaseURL = "https://api.vaillant-group.com/service-connected-control/end-user-app-api/v1"

// HTTPClient talks to the myVAILLANT API. It logs in lazily and reuses
// the session token until the API rejects it.
type HTTPClient struct {
	httpClient *http.Client
	baseURL    string
	authURL    string
	username   string
	password   string
	brand      string
	country    string

	mu    sync.Mutex
	token string
}

type HTTPOption func(*HTTPClient)

// WithBaseURL overrides the API base URL. Used in tests.
func WithBaseURL(base string) HTTPOption {
	return func(c *HTTPClient) {
		c.baseURL = base
	}
}

// WithAuthURL overrides the token endpoint. Used in tests.
func WithAuthURL(auth string) HTTPOption {
	return func(c *HTTPClient) {
		c.authURL = auth
	}
}

// NewHTTP creates a client for the given account.
func NewHTTP(username, password, brand, country string, opts ...HTTPOption) *HTTPClient {
	c := &HTTPClient{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    defaultBaseURL,
		username:   username,
		password:   password,
		brand:      brand,
		country:    country,
	}
	c.authURL = fmt.Sprintf(
		"https://identity.vaillant-group.com/auth/realms/%s-%s-b2c/protocol/openid-connect/token",
		brand, country)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *HTTPClient) login(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" {
		return c.token, nil
	}

	form := url.Values{
		"grant_type": {"password"},
		"client_id":  {"myvaillant"},
		"username":   {c.username},
		"password":   {c.password},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.authURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("login: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", &APIError{Status: resp.StatusCode, Body: string(body)}
	}

	var tok struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return "", fmt.Errorf("decode login response: %w", err)
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("login response carried no access token")
	}
	c.token = tok.AccessToken
	return c.token, nil
}

func (c *HTTPClient) get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body, out any) error {
	token, err := c.login(ctx)
	if err != nil {
		return err
	}

	var rd io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		rd = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		// Session token expired or quota hit; drop it so the next
		// attempt logs in again.
		c.mu.Lock()
		c.token = ""
		c.mu.Unlock()
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{Status: resp.StatusCode, Body: string(respBody)}
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode %s response: %w", path, err)
		}
	}
	return nil
}

// Systems returns the account's systems with current readings.
func (c *HTTPClient) Systems(ctx context.Context) ([]System, error) {
	var systems []System
	if err := c.get(ctx, "/systems?include=connectivity,rts,mpc", &systems); err != nil {
		return nil, err
	}
	return systems, nil
}

// BoostDHW starts a cylinder boost on the system's first DHW.
func (c *HTTPClient) BoostDHW(ctx context.Context, systemID string) error {
	path := fmt.Sprintf("/systems/%s/domestic-hot-water/0/boost", systemID)
	return c.do(ctx, http.MethodPost, path, struct{}{}, nil)
}

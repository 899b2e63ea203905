package alert

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/boilerwatch/boilerwatch/internal/pressure"
)

const defaultPushoverURL = "https://api.pushover.net/1/messages.json"

// pushoverMessageLimit is the API's message length cap.
const pushoverMessageLimit = 1024

// Pushover sends push notifications. Critical alerts go out with high
// priority and the siren sound.
type Pushover struct {
	httpClient *http.Client
	apiURL     string
	appToken   string
	userKeys   []string
}

type PushoverOption func(*Pushover)

// WithPushoverURL overrides the API endpoint. Used in tests.
func WithPushoverURL(url string) PushoverOption {
	return func(p *Pushover) {
		p.apiURL = url
	}
}

// NewPushover creates the channel. userKeys is the comma-separated list
// of recipient keys.
func NewPushover(appToken, userKeys string, opts ...PushoverOption) *Pushover {
	p := &Pushover{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		apiURL:     defaultPushoverURL,
		appToken:   appToken,
	}
	for _, key := range strings.Split(userKeys, ",") {
		if key = strings.TrimSpace(key); key != "" {
			p.userKeys = append(p.userKeys, key)
		}
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Pushover) Name() string { return "pushover" }

// Notify sends the alert to each recipient. Delivery continues past a
// failing recipient; the last error is reported.
func (p *Pushover) Notify(ctx context.Context, a Alert) error {
	message := a.Body
	if len([]rune(message)) > pushoverMessageLimit {
		message = string([]rune(message)[:pushoverMessageLimit])
	}

	priority := "0"
	sound := "pushover"
	if a.Status == pressure.StatusCritical {
		priority = "1"
		sound = "siren"
	}

	var lastErr error
	for _, userKey := range p.userKeys {
		form := url.Values{
			"token":    {p.appToken},
			"user":     {userKey},
			"title":    {a.Title},
			"message":  {message},
			"priority": {priority},
			"sound":    {sound},
		}
		if a.Link != "" {
			form.Set("url", a.Link)
			form.Set("url_title", "Diagnostic chart")
		}
		if err := p.send(ctx, form); err != nil {
			lastErr = fmt.Errorf("pushover to %s...: %w", shorten(userKey), err)
		}
	}
	return lastErr
}

func (p *Pushover) send(ctx context.Context, form url.Values) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.apiURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("pushover returned %d: %s", resp.StatusCode, body)
	}
	return nil
}

// shorten truncates a user key for logs.
func shorten(key string) string {
	if len(key) <= 8 {
		return key
	}
	return key[:8]
}

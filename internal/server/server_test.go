package server_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/boilerwatch/boilerwatch/internal/cooldown"
	"github.com/boilerwatch/boilerwatch/internal/dispatch"
	"github.com/boilerwatch/boilerwatch/internal/logging"
	"github.com/boilerwatch/boilerwatch/internal/server"
	"github.com/boilerwatch/boilerwatch/internal/trigger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type env struct {
	handler    http.Handler
	store      *cooldown.MemoryStore
	dispatcher *dispatch.FakeDispatcher
	now        time.Time
}

func newEnv(t *testing.T, withCredential bool) *env {
	t.Helper()
	e := &env{
		dispatcher: dispatch.NewFake(),
		now:        time.Date(2026, 2, 7, 12, 0, 0, 0, time.UTC),
	}
	e.store = cooldown.NewMemory(cooldown.WithClock(func() time.Time { return e.now }))

	var d dispatch.Dispatcher
	if withCredential {
		d = e.dispatcher
	}
	svc := trigger.New(e.store, d,
		map[string]time.Duration{"log-data": 600 * time.Second, "boost": 1800 * time.Second},
		"log-data",
		trigger.WithNow(func() time.Time { return e.now }),
		trigger.WithLogger(logging.NewNop()))

	e.handler = server.NewHandler(svc, logging.NewNop(), server.NewMetrics())
	return e
}

func (e *env) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	return got
}

func TestServer_Triggered(t *testing.T) {
	e := newEnv(t, true)

	rec := e.do(t, http.MethodPost, "/", `{"action":"boost"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	got := decode(t, rec)
	assert.Equal(t, "triggered", got["status"])
	assert.Equal(t, "boost", got["action"])
	assert.Equal(t, []string{"boost"}, e.dispatcher.Actions())
}

func TestServer_CooldownResponse(t *testing.T) {
	e := newEnv(t, true)

	rec := e.do(t, http.MethodPost, "/", `{"action":"log-data"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	e.now = e.now.Add(300 * time.Second)
	rec = e.do(t, http.MethodPost, "/", `{"action":"log-data"}`)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	got := decode(t, rec)
	assert.Equal(t, "cooldown", got["status"])
	assert.Equal(t, "log-data", got["action"])
	assert.Equal(t, float64(300), got["retry_in"])
}

func TestServer_EmptyBodyUsesDefaultAction(t *testing.T) {
	e := newEnv(t, true)

	rec := e.do(t, http.MethodPost, "/", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	got := decode(t, rec)
	assert.Equal(t, "log-data", got["action"])
}

func TestServer_MalformedBodyUsesDefaultAction(t *testing.T) {
	e := newEnv(t, true)

	rec := e.do(t, http.MethodPost, "/", `{"action": `)

	assert.Equal(t, http.StatusOK, rec.Code)
	got := decode(t, rec)
	assert.Equal(t, "log-data", got["action"])
}

func TestServer_GetIsMethodNotAllowed(t *testing.T) {
	e := newEnv(t, true)

	rec := e.do(t, http.MethodGet, "/", "")

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	got := decode(t, rec)
	assert.Equal(t, "POST only", got["error"])
	assert.Empty(t, e.dispatcher.Actions())
}

func TestServer_PreflightHasNoSideEffects(t *testing.T) {
	e := newEnv(t, true)

	rec := e.do(t, http.MethodOptions, "/", "")

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "POST, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "Content-Type", rec.Header().Get("Access-Control-Allow-Headers"))
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	assert.Empty(t, e.dispatcher.Actions(), "preflight must not reach upstream")
	_, ok, err := e.store.Last(context.Background(), "log-data")
	require.NoError(t, err)
	assert.False(t, ok, "preflight must not touch the cooldown store")
}

func TestServer_MissingCredential(t *testing.T) {
	e := newEnv(t, false)

	for _, action := range []string{"log-data", "boost"} {
		rec := e.do(t, http.MethodPost, "/", `{"action":"`+action+`"}`)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		got := decode(t, rec)
		assert.Equal(t, "GITHUB_TOKEN not configured", got["error"])
	}
	assert.Empty(t, e.dispatcher.Actions())
}

func TestServer_UpstreamError(t *testing.T) {
	e := newEnv(t, true)
	e.dispatcher.Err = &dispatch.UpstreamError{Status: 500, Body: `{"message":"boom"}`}

	rec := e.do(t, http.MethodPost, "/", `{"action":"log-data"}`)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	got := decode(t, rec)
	assert.Equal(t, "GitHub API error", got["error"])
	assert.Equal(t, float64(500), got["status"])
	assert.Equal(t, `{"message":"boom"}`, got["body"])
}

func TestServer_TriggerAlias(t *testing.T) {
	e := newEnv(t, true)

	rec := e.do(t, http.MethodPost, "/trigger", `{"action":"log-data"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_HealthAndMetrics(t *testing.T) {
	e := newEnv(t, true)

	rec := e.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	e.do(t, http.MethodPost, "/", "")
	rec = e.do(t, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "boilerwatch_trigger_requests_total")
}

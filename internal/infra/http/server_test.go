package http

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServer_Routes(t *testing.T) {
	s := NewServer(":0", nil)
	hits := 0
	s.MountWebhook("/hook/abc", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/hook/abc", strings.NewReader("{}")))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, hits)

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/hook/abc", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestServer_RecoversPanics(t *testing.T) {
	s := NewServer(":0", nil)
	s.MountWebhook("/webhook", http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") }))

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/webhook", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestServer_ListenAndServeShutsDown(t *testing.T) {
	s := NewServer("127.0.0.1:0", nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx) }()

	var addr string
	select {
	case addr = <-s.Listening():
	case <-time.After(2 * time.Second):
		t.Fatal("server did not start")
	}

	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}
	resp, err := client.Get("http://" + addr + "/health")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, "OK", string(body))

	cancel()
	require.NoError(t, <-done)
}

func TestServer_ListenError(t *testing.T) {
	s := NewServer("256.0.0.1:bad", nil)
	assert.Error(t, s.ListenAndServe(context.Background()))
}

func TestWebhookEndpoint(t *testing.T) {
	cases := []struct {
		in, url, route string
	}{
		{"https://bot.example.com/tg/hook", "https://bot.example.com/tg/hook", "/tg/hook"},
		{"https://bot.example.com", "https://bot.example.com/webhook", DefaultWebhookPath},
		{"https://bot.example.com/", "https://bot.example.com/webhook", DefaultWebhookPath},
		{" https://bot.example.com:8443/s3cr3t ", "https://bot.example.com:8443/s3cr3t", "/s3cr3t"},
	}
	for _, tc := range cases {
		u, route, err := WebhookEndpoint(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.url, u, tc.in)
		assert.Equal(t, tc.route, route, tc.in)
	}

	_, _, err := WebhookEndpoint("://missing-scheme")
	assert.Error(t, err)
}

func TestWebhookEndpoint_RegisteredURLReachesMountedRoute(t *testing.T) {
	for _, public := range []string{"https://bot.example.com", "https://bot.example.com/tg/hook"} {
		registered, route, err := WebhookEndpoint(public)
		require.NoError(t, err)

		s := NewServer(":0", nil)
		s.MountWebhook(route, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

		// Telegram POSTs to exactly the URL it was given.
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, registered, strings.NewReader("{}")))
		assert.Equal(t, http.StatusOK, rec.Code, "public=%s registered=%s route=%s", public, registered, route)
	}
}

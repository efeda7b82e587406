package spclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gesellix/spotify-core/pkg/models"
)

type staticTokens struct {
	token models.AccessToken
	err   error
}

func (s staticTokens) Token(ctx context.Context) (models.AccessToken, error) {
	return s.token, s.err
}

func newTestClient(t *testing.T, server *httptest.Server) *Client {
	t.Helper()
	c := NewClient(server.URL, staticTokens{token: models.AccessToken{Token: "tok", TokenType: "Bearer", ExpiresAt: time.Now().Add(time.Hour)}})
	c.HTTPClient = server.Client()
	return c
}

func TestClient_AttachesBearerToken(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c := newTestClient(t, server)
	_, _, err := c.do(context.Background(), requestSpec{method: http.MethodGet, path: "/ping"})
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	if gotAuth != "Bearer tok" {
		t.Fatalf("got Authorization %q, want %q", gotAuth, "Bearer tok")
	}
}

func TestClient_RetriesOn429ThenSucceeds(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	c := newTestClient(t, server)
	body, _, err := c.do(context.Background(), requestSpec{method: http.MethodGet, path: "/x"})
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	if string(body) != "ok" {
		t.Fatalf("got body %q, want ok", body)
	}
	if atomic.LoadInt32(&calls) != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
}

func TestClient_NonRetryableStatusMapsToSentinel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	c := newTestClient(t, server)
	_, _, err := c.do(context.Background(), requestSpec{method: http.MethodGet, path: "/missing"})

	var httpErr *models.HTTPError
	if err == nil {
		t.Fatal("expected error")
	}
	if ae, ok := err.(*models.HTTPError); ok {
		httpErr = ae
	} else {
		t.Fatalf("expected *models.HTTPError, got %T: %v", err, err)
	}
	if httpErr.Sentinel != models.ErrNotFound {
		t.Fatalf("got sentinel %v, want ErrNotFound", httpErr.Sentinel)
	}
}

func TestClient_ExhaustsRetriesOn503(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	c := newTestClient(t, server)
	_, _, err := c.do(context.Background(), requestSpec{method: http.MethodGet, path: "/flaky"})
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if atomic.LoadInt32(&calls) != maxRetries {
		t.Fatalf("expected %d calls, got %d", maxRetries, calls)
	}
}

func TestClient_TokenErrorPropagates(t *testing.T) {
	c := &Client{
		HTTPClient: http.DefaultClient,
		BaseURL:    "http://unused",
		Tokens:     staticTokens{err: errTokenUnavailable},
		Logger:     discardLogger{},
	}
	_, _, err := c.do(context.Background(), requestSpec{method: http.MethodGet, path: "/x"})
	if err == nil {
		t.Fatal("expected token error to propagate")
	}
}

var errTokenUnavailable = &models.Login5Error{Reason: models.ReasonNoStoredCredentials}

package spclient

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"
)

func TestRecorder_WritesInteractionFile(t *testing.T) {
	dir := t.TempDir()

	var upstream http.RoundTripper = &FixtureTransport{
		Responses: map[string]FixtureResponse{
			"GET /ping": {StatusCode: http.StatusOK, Body: []byte("pong")},
		},
	}
	rec := NewRecorder(dir, upstream)
	rec.SessionID = "test-session"

	c := &Client{
		HTTPClient: &http.Client{Transport: rec},
		BaseURL:    "http://spclient.local",
		Tokens:     staticTokens{},
		Logger:     discardLogger{},
	}

	body, _, err := c.do(context.Background(), requestSpec{method: http.MethodGet, path: "/ping"})
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	if string(body) != "pong" {
		t.Fatalf("got body %q", body)
	}

	sessionDir := filepath.Join(dir, "interactions", "test-session", "ping")
	entries, err := os.ReadDir(sessionDir)
	if err != nil {
		t.Fatalf("reading session dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d recorded interactions, want 1", len(entries))
	}
}

func TestFixtureTransport_MissingFixtureErrors(t *testing.T) {
	ft := &FixtureTransport{Responses: map[string]FixtureResponse{}}
	req, _ := http.NewRequest(http.MethodGet, "http://spclient.local/unknown", nil)
	_, err := ft.RoundTrip(req)
	if err == nil {
		t.Fatal("expected error for missing fixture")
	}
}

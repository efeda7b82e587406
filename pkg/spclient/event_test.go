package spclient

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestPostEvent_SendsTabDelimitedBody(t *testing.T) {
	var gotBody, gotContentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		gotContentType = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c := newTestClient(t, server)
	c.PostEvent(context.Background(), "1", "player_state_changed", "track_1")

	if gotBody != "1\tplayer_state_changed\ttrack_1" {
		t.Fatalf("got body %q", gotBody)
	}
	if gotContentType != "text/plain" {
		t.Fatalf("got content type %q", gotContentType)
	}
}

func TestPostEvent_FailureDoesNotPanic(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c := newTestClient(t, server)
	c.PostEvent(context.Background(), "boom")
}

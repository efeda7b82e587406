package spclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestResolveContext_EscapesURIAndDecodes(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`{"uri":"spotify:playlist:abc","url":"hm://page/1","pages":["hm://page/1"]}`))
	}))
	defer server.Close()

	c := newTestClient(t, server)
	ctxResult, err := c.ResolveContext(context.Background(), "spotify:playlist:abc")
	if err != nil {
		t.Fatalf("ResolveContext: %v", err)
	}
	if gotPath != "/context-resolve/v1/spotify:playlist:abc" {
		t.Fatalf("got decoded path %q", gotPath)
	}
	if ctxResult.URI != "spotify:playlist:abc" || len(ctxResult.Pages) != 1 {
		t.Fatalf("got %+v", ctxResult)
	}
}

func TestGetContextPage_StripsHmScheme(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`{"tracks":[{"uri":"spotify:track:1","uid":"u1"}]}`))
	}))
	defer server.Close()

	c := newTestClient(t, server)
	page, err := c.GetContextPage(context.Background(), "hm://page/1")
	if err != nil {
		t.Fatalf("GetContextPage: %v", err)
	}
	if gotPath != "/page/1" {
		t.Fatalf("got path %q, want /page/1", gotPath)
	}
	if len(page.Tracks) != 1 || page.Tracks[0].URI != "spotify:track:1" {
		t.Fatalf("got %+v", page)
	}
}

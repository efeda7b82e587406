package spclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/gesellix/spotify-core/internal/spotifyproto"
	"github.com/gesellix/spotify-core/pkg/models"
)

func TestResolveStorage_RestrictedMapsToUnauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		resp := spotifyproto.StorageResolveResponse{Result: spotifyproto.StorageResolveRestricted}
		_, _ = w.Write(mustMarshalStorage(resp))
	}))
	defer server.Close()

	c := newTestClient(t, server)
	fileID, _ := models.ParseFileID("0123456789abcdef0123456789abcdef01234567")

	_, err := c.ResolveStorage(context.Background(), fileID)
	if err == nil {
		t.Fatal("expected error for restricted storage resolve")
	}
	httpErr, ok := err.(*models.HTTPError)
	if !ok {
		t.Fatalf("expected *models.HTTPError, got %T", err)
	}
	if httpErr.Sentinel != models.ErrUnauthorized {
		t.Fatalf("got sentinel %v, want ErrUnauthorized", httpErr.Sentinel)
	}
}

func TestResolveStorage_CDNSucceeds(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := spotifyproto.StorageResolveResponse{
			Result: spotifyproto.StorageResolveCDN,
			CDNUrl: []string{"https://cdn.example/audio/1"},
		}
		_, _ = w.Write(mustMarshalStorage(resp))
	}))
	defer server.Close()

	c := newTestClient(t, server)
	fileID, _ := models.ParseFileID("0123456789abcdef0123456789abcdef01234567")

	resp, err := c.ResolveStorage(context.Background(), fileID)
	if err != nil {
		t.Fatalf("ResolveStorage: %v", err)
	}
	if len(resp.CDNUrl) != 1 || resp.CDNUrl[0] != "https://cdn.example/audio/1" {
		t.Fatalf("got CDN urls %v", resp.CDNUrl)
	}
}

func mustMarshalStorage(resp spotifyproto.StorageResolveResponse) []byte {
	// StorageResolveResponse has no exported Marshal (production code
	// only unmarshals it); encode manually with the same field numbers
	// for test fixtures.
	var buf []byte
	buf = protowire.AppendTag(buf, 1, protowire.VarintType)
	buf = protowire.AppendVarint(buf, uint64(resp.Result))
	for _, u := range resp.CDNUrl {
		buf = protowire.AppendTag(buf, 2, protowire.BytesType)
		buf = protowire.AppendString(buf, u)
	}
	if resp.FileID != nil {
		buf = protowire.AppendTag(buf, 3, protowire.BytesType)
		buf = protowire.AppendBytes(buf, resp.FileID)
	}
	return buf
}

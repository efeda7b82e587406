package spclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/gesellix/spotify-core/internal/spotifyproto"
)

func TestGetMetadata_BuildsPathAndDecodes(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.RequestURI()
		_, _ = w.Write(mustMarshalMetadata(spotifyproto.EntityMetadata{Name: "Reckoner", DurationMs: 290000}))
	}))
	defer server.Close()

	c := newTestClient(t, server)
	meta, err := c.GetMetadata(context.Background(), spotifyproto.KindTrack, "abc123")
	if err != nil {
		t.Fatalf("GetMetadata: %v", err)
	}
	if gotPath != "/metadata/4/track/abc123?market=from_token" {
		t.Fatalf("got path %q", gotPath)
	}
	if meta.Name != "Reckoner" || meta.DurationMs != 290000 {
		t.Fatalf("got %+v", meta)
	}
}

func mustMarshalMetadata(m spotifyproto.EntityMetadata) []byte {
	var buf []byte
	if len(m.Gid) > 0 {
		buf = protowire.AppendTag(buf, 1, protowire.BytesType)
		buf = protowire.AppendBytes(buf, m.Gid)
	}
	if m.Name != "" {
		buf = protowire.AppendTag(buf, 2, protowire.BytesType)
		buf = protowire.AppendString(buf, m.Name)
	}
	buf = protowire.AppendTag(buf, 5, protowire.VarintType)
	buf = protowire.AppendVarint(buf, uint64(m.DurationMs))
	return buf
}

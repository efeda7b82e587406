package spclient

import (
	"context"
	"net/http"

	"github.com/gesellix/spotify-core/internal/spotifyproto"
)

// CollectionPage performs one page of a full collection sync.
func (c *Client) CollectionPage(ctx context.Context, req spotifyproto.PageRequest) (*spotifyproto.PageResponse, error) {
	body, _, err := c.do(ctx, requestSpec{
		method:      http.MethodPost,
		path:        "/collection/v2/paging",
		body:        req.Marshal(),
		contentType: "application/x-protobuf",
		accept:      "application/x-protobuf",
	})
	if err != nil {
		return nil, err
	}
	return spotifyproto.UnmarshalPageResponse(body)
}

// CollectionDelta attempts an incremental sync from a known revision.
// Callers should fall back to CollectionPage when
// DeltaUpdatePossible is false.
func (c *Client) CollectionDelta(ctx context.Context, req spotifyproto.DeltaRequest) (*spotifyproto.DeltaResponse, error) {
	body, _, err := c.do(ctx, requestSpec{
		method:      http.MethodPost,
		path:        "/collection/v2/delta",
		body:        req.Marshal(),
		contentType: "application/x-protobuf",
		accept:      "application/x-protobuf",
	})
	if err != nil {
		return nil, err
	}
	return spotifyproto.UnmarshalDeltaResponse(body)
}

// CollectionWrite performs a single save/remove/follow/subscribe write.
func (c *Client) CollectionWrite(ctx context.Context, req spotifyproto.WriteRequest) error {
	_, _, err := c.do(ctx, requestSpec{
		method:      http.MethodPost,
		path:        "/collection/v2/write",
		body:        req.Marshal(),
		contentType: "application/x-protobuf",
	})
	return err
}

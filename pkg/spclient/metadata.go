package spclient

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gesellix/spotify-core/internal/spotifyproto"
)

// GetMetadata fetches Track/Album/Artist/Episode/Show metadata by id
// (base62 Spotify id, not a FileId). The market parameter is always
// resolved by the server from the bearer token.
func (c *Client) GetMetadata(ctx context.Context, kind spotifyproto.MetadataKind, id string) (*spotifyproto.EntityMetadata, error) {
	path := fmt.Sprintf("/metadata/4/%s/%s?market=from_token", kind, id)
	body, _, err := c.do(ctx, requestSpec{
		method: http.MethodGet,
		path:   path,
		accept: "application/x-protobuf",
	})
	if err != nil {
		return nil, err
	}
	return spotifyproto.UnmarshalEntityMetadata(body)
}

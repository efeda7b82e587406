package spclient

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gesellix/spotify-core/internal/spotifyproto"
	"github.com/gesellix/spotify-core/pkg/models"
)

// ResolveStorage resolves a FileId to its CDN URLs. A
// StorageResolveResponse whose Result is Restricted is surfaced as
// ErrUnauthorized regardless of the HTTP status the server returned.
func (c *Client) ResolveStorage(ctx context.Context, fileID models.FileId) (*spotifyproto.StorageResolveResponse, error) {
	path := fmt.Sprintf("/storage-resolve/files/audio/interactive/%s", fileID.String())
	body, _, err := c.do(ctx, requestSpec{
		method: http.MethodGet,
		path:   path,
		accept: "application/x-protobuf",
	})
	if err != nil {
		return nil, err
	}

	resp, err := spotifyproto.UnmarshalStorageResolveResponse(body)
	if err != nil {
		return nil, err
	}
	if resp.Result == spotifyproto.StorageResolveRestricted {
		return resp, &models.HTTPError{StatusCode: http.StatusOK, Sentinel: models.ErrUnauthorized, Body: "storage resolve restricted"}
	}
	return resp, nil
}

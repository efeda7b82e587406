package spclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gesellix/spotify-core/internal/spotifyproto"
	"github.com/gesellix/spotify-core/pkg/models"
)

// uriToPath turns a spotify:playlist:<id> URI into the path segment
// playlist/v2 endpoints expect: colons become slashes.
func uriToPath(uri string) string {
	return strings.ReplaceAll(uri, ":", "/")
}

// GetPlaylist fetches a playlist (or the rootlist) in full.
func (c *Client) GetPlaylist(ctx context.Context, uri string, from, length int) (*spotifyproto.SelectedListContent, error) {
	path := fmt.Sprintf("/playlist/v2/%s?decorate=all&from=%d&length=%d", uriToPath(uri), from, length)
	body, _, err := c.do(ctx, requestSpec{method: http.MethodGet, path: path, accept: "application/x-protobuf"})
	if err != nil {
		return nil, err
	}
	return spotifyproto.UnmarshalSelectedListContent(body)
}

// DiffPlaylist fetches only the changes since the given revision.
func (c *Client) DiffPlaylist(ctx context.Context, uri string, since models.Revision) (*spotifyproto.SelectedListContent, error) {
	path := fmt.Sprintf("/playlist/v2/%s/diff?revision=%s", uriToPath(uri), since.String())
	body, _, err := c.do(ctx, requestSpec{method: http.MethodGet, path: path, accept: "application/x-protobuf"})
	if err != nil {
		return nil, err
	}
	return spotifyproto.UnmarshalSelectedListContent(body)
}

// PostPlaylistChanges submits an add/remove batch against a known
// base revision. A 409 (the base revision is stale) is surfaced as
// models.ErrConflictRevision so callers know to refetch with
// GetPlaylist before retrying.
func (c *Client) PostPlaylistChanges(ctx context.Context, uri string, changes spotifyproto.ListChanges) (*spotifyproto.SelectedListContent, error) {
	path := fmt.Sprintf("/playlist/v2/%s/changes", uriToPath(uri))
	body, _, err := c.do(ctx, requestSpec{
		method:      http.MethodPost,
		path:        path,
		body:        changes.Marshal(),
		contentType: "application/x-protobuf",
		accept:      "application/x-protobuf",
	})
	if err != nil {
		var httpErr *models.HTTPError
		if errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusConflict {
			return nil, models.ErrConflictRevision
		}
		return nil, err
	}
	return spotifyproto.UnmarshalSelectedListContent(body)
}

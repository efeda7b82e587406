package spclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/gesellix/spotify-core/pkg/models"
)

// GetLyrics fetches the lyrics for a track id. A 404 (no lyrics for
// this track) is not an error: it resolves to (nil, nil).
func (c *Client) GetLyrics(ctx context.Context, trackID, imageURI string) (*models.Lyrics, error) {
	path := fmt.Sprintf("/color-lyrics/v2/track/%s/image/%s?format=json&vocalRemoval=false&market=from_token",
		trackID, url.PathEscape(imageURI))

	body, _, err := c.do(ctx, requestSpec{
		method:      http.MethodGet,
		path:        path,
		accept:      "application/json",
		extraHeader: map[string]string{"app-platform": "Android"},
	})
	if err != nil {
		var httpErr *models.HTTPError
		if errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusNotFound {
			return nil, nil
		}
		return nil, err
	}

	var lyrics models.Lyrics
	if err := json.Unmarshal(body, &lyrics); err != nil {
		return nil, fmt.Errorf("spclient: decode lyrics: %w", err)
	}
	return &lyrics, nil
}

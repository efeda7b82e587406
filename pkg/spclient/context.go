package spclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gesellix/spotify-core/pkg/models"
)

// ResolveContext resolves a context URI (a playlist, album, or radio
// station spotify: URI) to its page list.
func (c *Client) ResolveContext(ctx context.Context, uri string) (*models.Context, error) {
	path := "/context-resolve/v1/" + url.PathEscape(uri)
	body, _, err := c.do(ctx, requestSpec{
		method: http.MethodGet,
		path:   path,
		accept: "application/json",
	})
	if err != nil {
		return nil, err
	}

	var resolved models.Context
	if err := json.Unmarshal(body, &resolved); err != nil {
		return nil, fmt.Errorf("spclient: decode context: %w", err)
	}
	return &resolved, nil
}

// GetContextPage fetches one page of a resolved Context. pageURL is
// one of Context.Pages; its "hm://" scheme prefix, if present, is
// stripped before it is appended to BaseURL.
func (c *Client) GetContextPage(ctx context.Context, pageURL string) (*models.ContextPage, error) {
	path := strings.TrimPrefix(pageURL, "hm://")
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	body, _, err := c.do(ctx, requestSpec{
		method: http.MethodGet,
		path:   path,
		accept: "application/json",
	})
	if err != nil {
		return nil, err
	}

	var page models.ContextPage
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("spclient: decode context page: %w", err)
	}
	return &page, nil
}

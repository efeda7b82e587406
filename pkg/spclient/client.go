// Package spclient implements the authenticated HTTPS surface over
// Spotify's spclient gateway: metadata, storage resolution,
// connect-state publishing, lyrics, context resolution, collection
// paging/delta/write, playlists, and best-effort event logging.
package spclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gesellix/spotify-core/pkg/models"
)

const (
	maxRetries     = 3
	defaultTimeout = 15 * time.Second
)

// Logger is the minimal logging seam every long-lived component in
// this repository accepts.
type Logger interface {
	Printf(format string, v ...interface{})
}

// TokenSource supplies the bearer token attached to every request.
// *auth.TokenProvider satisfies this without pkg/spclient importing
// pkg/auth directly.
type TokenSource interface {
	Token(ctx context.Context) (models.AccessToken, error)
}

// LocaleSource resolves the Accept-Language value for a request: a
// per-call session override if set, else the cluster's active locale.
type LocaleSource func() string

// Client is the authenticated HTTP client over one spclient base URL.
type Client struct {
	HTTPClient *http.Client
	BaseURL    string
	Tokens     TokenSource
	UserAgent  string
	Locale     LocaleSource
	Logger     Logger
}

// NewClient builds a Client with a default timeout'd http.Client; a
// custom one (e.g. wrapped with Recorder) can be set after construction.
func NewClient(baseURL string, tokens TokenSource) *Client {
	return &Client{
		HTTPClient: &http.Client{Timeout: defaultTimeout},
		BaseURL:    baseURL,
		Tokens:     tokens,
		UserAgent:  "spotify-core/1.0",
		Logger:     discardLogger{},
	}
}

// requestSpec describes one spclient call before retry/auth wrapping.
type requestSpec struct {
	method      string
	path        string
	body        []byte
	contentType string
	accept      string
	extraHeader map[string]string
}

// do sends one spclient request, making at most maxRetries attempts in
// total, with exponential backoff (2^attempt seconds) before each retry
// on 429, 503, and transport errors. All other non-2xx statuses are mapped to the closed HTTP
// error set and returned immediately.
func (c *Client) do(ctx context.Context, spec requestSpec) ([]byte, *http.Response, error) {
	var lastErr error

	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<uint(attempt)) * time.Second
			c.Logger.Printf("spclient: retrying %s %s after %s (attempt %d)", spec.method, spec.path, backoff, attempt+1)
			if err := sleepOrDone(ctx, backoff); err != nil {
				return nil, nil, err
			}
		}

		body, resp, err := c.attempt(ctx, spec)
		if err == nil {
			return body, resp, nil
		}

		lastErr = err
		if !isRetryable(err) {
			return nil, resp, err
		}
	}

	return nil, nil, fmt.Errorf("spclient: exhausted retries for %s %s: %w", spec.method, spec.path, lastErr)
}

type retryableError struct{ err error }

func (e *retryableError) Error() string { return e.err.Error() }
func (e *retryableError) Unwrap() error { return e.err }

func isRetryable(err error) bool {
	_, ok := err.(*retryableError)
	return ok
}

func (c *Client) attempt(ctx context.Context, spec requestSpec) ([]byte, *http.Response, error) {
	token, err := c.Tokens.Token(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("spclient: acquire token: %w", err)
	}

	var reader io.Reader
	if spec.body != nil {
		reader = bytes.NewReader(spec.body)
	}

	req, err := http.NewRequestWithContext(ctx, spec.method, c.BaseURL+spec.path, reader)
	if err != nil {
		return nil, nil, fmt.Errorf("spclient: build request: %w", err)
	}

	req.Header.Set("Authorization", token.TokenType+" "+token.Token)
	req.Header.Set("User-Agent", c.UserAgent)
	if spec.contentType != "" {
		req.Header.Set("Content-Type", spec.contentType)
	}
	if spec.accept != "" {
		req.Header.Set("Accept", spec.accept)
	}
	if c.Locale != nil {
		if lang := c.Locale(); lang != "" {
			req.Header.Set("Accept-Language", lang)
		}
	}
	for k, v := range spec.extraHeader {
		req.Header.Set(k, v)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, nil, &retryableError{fmt.Errorf("spclient: request %s %s: %w", spec.method, spec.path, err)}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp, fmt.Errorf("spclient: read response body: %w", err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return respBody, resp, nil
	}

	sentinel := models.ClassifyStatus(resp.StatusCode)
	httpErr := &models.HTTPError{StatusCode: resp.StatusCode, Sentinel: sentinel, Body: string(respBody)}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusServiceUnavailable {
		return nil, resp, &retryableError{httpErr}
	}
	return nil, resp, httpErr
}

func sleepOrDone(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

type discardLogger struct{}

func (discardLogger) Printf(string, ...interface{}) {}

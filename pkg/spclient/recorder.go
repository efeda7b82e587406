package spclient

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Recorder is an http.RoundTripper middleware that persists every
// spclient interaction as a .http file: the request line, headers and
// body, then the response status and body. It wraps a base
// transport rather than replacing Client's http.Client outright, so
// ordinary retry/backoff logic in Client is unaffected.
type Recorder struct {
	BaseDir   string
	SessionID string
	Transport http.RoundTripper
	Redact    bool

	counter uint64
	mu      sync.Mutex
}

// NewRecorder creates a Recorder rooted at baseDir. If transport is
// nil, http.DefaultTransport is used.
func NewRecorder(baseDir string, transport http.RoundTripper) *Recorder {
	if transport == nil {
		transport = http.DefaultTransport
	}
	return &Recorder{
		BaseDir:   baseDir,
		SessionID: time.Now().Format("20060102-150405"),
		Transport: transport,
	}
}

// RoundTrip performs the real request, then records it (best-effort:
// a recording failure never fails the underlying call).
func (r *Recorder) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := r.Transport.RoundTrip(req)
	if err != nil {
		return resp, err
	}

	if recErr := r.record(req, resp); recErr != nil {
		// Recording is diagnostic tooling; never fail the live call over it.
		fmt.Fprintf(os.Stderr, "spclient: recording interaction: %v\n", recErr)
	}
	return resp, err
}

func (r *Recorder) record(req *http.Request, resp *http.Response) error {
	dir := filepath.Join(r.BaseDir, "interactions", r.SessionID, strings.Trim(req.URL.Path, "/"))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	count := atomic.AddUint64(&r.counter, 1)
	path := filepath.Join(dir, fmt.Sprintf("%04d-%s-%s.http", count, time.Now().Format("15-04-05.000"), req.Method))

	var buf bytes.Buffer
	r.writeRequest(&buf, req)
	r.writeResponse(&buf, resp)

	return os.WriteFile(path, buf.Bytes(), 0644)
}

func (r *Recorder) writeRequest(buf *bytes.Buffer, req *http.Request) {
	fmt.Fprintf(buf, "%s %s\n", req.Method, req.URL.String())
	for k, vv := range req.Header {
		if r.Redact && k == "Authorization" {
			fmt.Fprintf(buf, "%s: [REDACTED]\n", k)
			continue
		}
		for _, v := range vv {
			fmt.Fprintf(buf, "%s: %s\n", k, v)
		}
	}
	buf.WriteString("\n")

	if req.Body != nil {
		body, err := io.ReadAll(req.Body)
		if err == nil {
			req.Body = io.NopCloser(bytes.NewReader(body))
			buf.Write(body)
			buf.WriteString("\n")
		}
	}
}

func (r *Recorder) writeResponse(buf *bytes.Buffer, resp *http.Response) {
	fmt.Fprintf(buf, "\n// response %d %s\n", resp.StatusCode, http.StatusText(resp.StatusCode))
	if resp.Body == nil {
		return
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return
	}
	resp.Body = io.NopCloser(bytes.NewReader(body))
	buf.Write(body)
	buf.WriteString("\n")
}

// FixtureTransport replays canned responses keyed by "METHOD PATH",
// for tests that want Client's real retry/error-mapping logic
// exercised against fixed bytes instead of a live server.
type FixtureTransport struct {
	Responses map[string]FixtureResponse
}

// FixtureResponse is one canned reply for FixtureTransport.
type FixtureResponse struct {
	StatusCode int
	Body       []byte
	Header     http.Header
}

func (t *FixtureTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	key := req.Method + " " + req.URL.Path
	fixture, ok := t.Responses[key]
	if !ok {
		return nil, fmt.Errorf("spclient: no fixture for %s", key)
	}

	header := fixture.Header
	if header == nil {
		header = http.Header{}
	}
	return &http.Response{
		StatusCode: fixture.StatusCode,
		Status:     http.StatusText(fixture.StatusCode),
		Header:     header,
		Body:       io.NopCloser(bytes.NewReader(fixture.Body)),
		Request:    req,
	}, nil
}

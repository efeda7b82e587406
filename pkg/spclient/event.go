package spclient

import (
	"context"
	"net/http"
	"strings"
)

// PostEvent submits a tab-delimited telemetry event. It is
// best-effort: failures are logged, never returned, matching the
// fire-and-forget nature of client event logging.
func (c *Client) PostEvent(ctx context.Context, fields ...string) {
	body := []byte(strings.Join(fields, "\t"))
	_, _, err := c.do(ctx, requestSpec{
		method:      http.MethodPost,
		path:        "/event-service/v1/events",
		body:        body,
		contentType: "text/plain",
	})
	if err != nil {
		c.Logger.Printf("spclient: event post failed (ignored): %v", err)
	}
}

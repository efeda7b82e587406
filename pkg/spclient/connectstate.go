package spclient

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gesellix/spotify-core/internal/spotifyproto"
)

// PutConnectState publishes this device's player state. It satisfies
// playback.ConnectStatePublisher. The server's ClusterUpdate response
// body is discarded here: the authoritative update for this device
// reaches playback.StateManager through the dealer cluster_update
// message that follows, not through this response.
func (c *Client) PutConnectState(ctx context.Context, deviceID, connectionID string, req spotifyproto.PutStateRequest) error {
	path := fmt.Sprintf("/connect-state/v1/devices/%s", deviceID)
	_, _, err := c.do(ctx, requestSpec{
		method:      http.MethodPut,
		path:        path,
		body:        req.Marshal(),
		contentType: "application/x-protobuf",
		accept:      "application/x-protobuf",
		extraHeader: map[string]string{"X-Spotify-Connection-Id": connectionID},
	})
	return err
}

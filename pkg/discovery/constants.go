// Package discovery finds Spotify Connect receivers on the local
// network via mDNS, for local development and diagnostics. It does
// not resolve dealer endpoints (that is a separate, server-side
// concern) and it never initiates playback transfer to a discovered
// device.
package discovery

import "time"

const (
	// connectServiceType is the mDNS service Spotify Connect receivers
	// advertise themselves under.
	connectServiceType = "_spotify-connect._tcp"
	connectDomain      = "local."

	defaultTimeout = 5 * time.Second
)

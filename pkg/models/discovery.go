package models

import "time"

// ConnectDevice is one Spotify Connect receiver found on the LAN via
// mDNS (`_spotify-connect._tcp`). It is informational only: pairing
// and playback transfer to it are out of scope.
type ConnectDevice struct {
	Host     string
	Port     int
	Name     string
	Location string
	LastSeen time.Time
}

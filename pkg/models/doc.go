// Package models provides the data structures shared across the
// Spotify client library: protocol-facing types decoded from spclient
// and dealer responses, plus the reconciled state types (connection,
// playback, sync progress) that higher-level packages expose to
// callers and to the local introspection surface.
package models

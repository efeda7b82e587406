package librarysync

import (
	"context"
	"fmt"
	"strings"

	"github.com/gesellix/spotify-core/internal/spotifyproto"
	"github.com/gesellix/spotify-core/pkg/models"
)

const (
	startGroupPrefix = "spotify:start-group:"
	endGroupPrefix   = "spotify:end-group:"
	rootlistLength   = 10000
)

func (s *Sync) rootlistURI() string {
	return fmt.Sprintf("spotify:user:%s:rootlist", s.Username)
}

// SyncPlaylists walks the rootlist, tracking folder paths via
// spotify:start-group/spotify:end-group markers, fetches each
// playlist's current metadata, and deletes locally cached playlists
// no longer present in the rootlist.
func (s *Sync) SyncPlaylists(ctx context.Context) error {
	rootlist, err := s.API.GetPlaylist(ctx, s.rootlistURI(), 0, rootlistLength)
	if err != nil {
		return fmt.Errorf("fetch rootlist: %w", err)
	}

	seen := make(map[string]bool)
	var folderPath []string

	for _, item := range rootlist.Items {
		switch {
		case strings.HasPrefix(item.URI, startGroupPrefix):
			folderPath = append(folderPath, groupName(item.URI))
		case strings.HasPrefix(item.URI, endGroupPrefix):
			if len(folderPath) > 0 {
				folderPath = folderPath[:len(folderPath)-1]
			}
		default:
			if err := s.syncOnePlaylist(ctx, item.URI, folderPath); err != nil {
				s.Logger.Printf("librarysync: sync playlist %s failed: %v", item.URI, err)
				continue
			}
			seen[item.URI] = true
		}
	}

	for _, cached := range s.Store.Playlists() {
		if !seen[cached.URI] {
			if err := s.Store.RemovePlaylist(cached.URI); err != nil {
				return err
			}
		}
	}
	return nil
}

// groupName extracts the human-readable segment from a
// "spotify:start-group:<id>:<name>" marker URI.
func groupName(uri string) string {
	rest := strings.TrimPrefix(uri, startGroupPrefix)
	parts := strings.SplitN(rest, ":", 2)
	if len(parts) == 2 {
		return parts[1]
	}
	return rest
}

func (s *Sync) syncOnePlaylist(ctx context.Context, uri string, folderPath []string) error {
	content, err := s.API.GetPlaylist(ctx, uri, 0, rootlistLength)
	if err != nil {
		return err
	}

	path := make([]string, len(folderPath))
	copy(path, folderPath)

	return s.Store.PutPlaylist(playlistRecord(uri, content, path))
}

func playlistRecord(uri string, content *spotifyproto.SelectedListContent, folderPath []string) models.PlaylistRecord {
	return models.PlaylistRecord{
		URI:        uri,
		Name:       content.Name,
		Owner:      content.Owner,
		Revision:   fmt.Sprintf("%d,%x", content.RevisionCounter, content.RevisionHash),
		TrackCount: len(content.Items),
		FolderPath: folderPath,
	}
}

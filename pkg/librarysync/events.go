package librarysync

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/gesellix/spotify-core/pkg/models"
)

const (
	collectionURIPrefix = "hm://collection/collection/"
	playlistURIPrefix   = "hm://playlist/v2/"
)

type collectionUpdatePayload struct {
	Items []struct {
		URI     string `json:"uri"`
		Removed bool   `json:"removed"`
	} `json:"items"`
}

// Subscribe consumes dealer messages from ch until ctx is done or ch
// closes, applying collection add/remove events directly to the local
// store and refetching playlist metadata on playlist events. It never
// triggers a full SyncAll; reconciliation after a revision mismatch is
// the caller's job, done by calling SyncSet/SyncPlaylists again.
func (s *Sync) Subscribe(ctx context.Context, ch <-chan models.DealerMessage) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			s.handleMessage(ctx, msg)
		}
	}
}

func (s *Sync) handleMessage(ctx context.Context, msg models.DealerMessage) {
	switch {
	case strings.HasPrefix(msg.URI, collectionURIPrefix):
		s.handleCollectionUpdate(msg)
	case strings.HasPrefix(msg.URI, playlistURIPrefix):
		s.handlePlaylistUpdate(ctx, msg)
	}
}

func (s *Sync) handleCollectionUpdate(msg models.DealerMessage) {
	var payload collectionUpdatePayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		s.Logger.Printf("librarysync: malformed collection update, dropped: %v", err)
		return
	}
	for _, item := range payload.Items {
		kind, ok := kindForURI(item.URI)
		if !ok {
			continue
		}
		setKey := kind.String()
		var err error
		if item.Removed {
			err = s.Store.RemoveItem(setKey, item.URI)
		} else {
			err = s.Store.PutItem(setKey, models.CollectionItem{URI: item.URI})
		}
		if err != nil {
			s.Logger.Printf("librarysync: apply realtime update for %s failed: %v", item.URI, err)
		}
	}
}

func (s *Sync) handlePlaylistUpdate(ctx context.Context, msg models.DealerMessage) {
	uri := strings.TrimPrefix(msg.URI, playlistURIPrefix)
	if err := s.syncOnePlaylist(ctx, uri, nil); err != nil {
		s.Logger.Printf("librarysync: realtime playlist refetch for %s failed: %v", uri, err)
	}
}

func kindForURI(uri string) (models.CollectionSetKind, bool) {
	switch {
	case strings.HasPrefix(uri, "spotify:track:"):
		return models.SetTrack, true
	case strings.HasPrefix(uri, "spotify:album:"):
		return models.SetAlbum, true
	case strings.HasPrefix(uri, "spotify:artist:"):
		return models.SetArtist, true
	case strings.HasPrefix(uri, "spotify:show:"):
		return models.SetShow, true
	default:
		return 0, false
	}
}

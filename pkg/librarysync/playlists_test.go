package librarysync

import (
	"context"
	"testing"

	"github.com/gesellix/spotify-core/internal/spotifyproto"
)

func TestSyncPlaylists_TracksFolderPathAndRemovesStale(t *testing.T) {
	api := newFakeAPI()
	s := newTestSync(t, api)

	rootURI := s.rootlistURI()
	api.playlists[rootURI] = &spotifyproto.SelectedListContent{
		Items: []spotifyproto.PlaylistItem{
			{URI: "spotify:start-group:g1:Road Trip"},
			{URI: "spotify:playlist:inside"},
			{URI: "spotify:end-group:g1"},
			{URI: "spotify:playlist:outside"},
		},
	}
	api.playlists["spotify:playlist:inside"] = &spotifyproto.SelectedListContent{
		Name: "Driving Mix", Owner: "me", Items: []spotifyproto.PlaylistItem{{URI: "spotify:track:a"}},
	}
	api.playlists["spotify:playlist:outside"] = &spotifyproto.SelectedListContent{
		Name: "Chill", Owner: "me",
	}

	if err := s.SyncPlaylists(context.Background()); err != nil {
		t.Fatalf("SyncPlaylists: %v", err)
	}

	inside, ok := s.Store.Playlist("spotify:playlist:inside")
	if !ok {
		t.Fatal("expected inside playlist to be cached")
	}
	if len(inside.FolderPath) != 1 || inside.FolderPath[0] != "Road Trip" {
		t.Errorf("got folder path %v, want [Road Trip]", inside.FolderPath)
	}
	if inside.TrackCount != 1 {
		t.Errorf("got track count %d, want 1", inside.TrackCount)
	}

	outside, ok := s.Store.Playlist("spotify:playlist:outside")
	if !ok {
		t.Fatal("expected outside playlist to be cached")
	}
	if len(outside.FolderPath) != 0 {
		t.Errorf("got folder path %v, want empty", outside.FolderPath)
	}
}

func TestSyncPlaylists_RemovesCachedPlaylistNotInRootlist(t *testing.T) {
	api := newFakeAPI()
	s := newTestSync(t, api)

	if err := s.Store.PutPlaylist(playlistRecord("spotify:playlist:gone", &spotifyproto.SelectedListContent{Name: "Gone"}, nil)); err != nil {
		t.Fatalf("seed PutPlaylist: %v", err)
	}

	api.playlists[s.rootlistURI()] = &spotifyproto.SelectedListContent{}

	if err := s.SyncPlaylists(context.Background()); err != nil {
		t.Fatalf("SyncPlaylists: %v", err)
	}

	if _, ok := s.Store.Playlist("spotify:playlist:gone"); ok {
		t.Error("expected stale cached playlist to be removed")
	}
}

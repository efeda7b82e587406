package spotifyproto

import "google.golang.org/protobuf/encoding/protowire"

// MetadataKind is the {kind} path segment of a metadata/4 request.
type MetadataKind string

const (
	KindTrack   MetadataKind = "track"
	KindAlbum   MetadataKind = "album"
	KindArtist  MetadataKind = "artist"
	KindEpisode MetadataKind = "episode"
	KindShow    MetadataKind = "show"
)

// EntityMetadata is the subset of fields common to TrackV4, AlbumV4,
// ArtistV4, ShowV4 and EpisodeV4 that library sync needs: Spotify's
// metadata protos all put gid at field 1 and name at field 2.
type EntityMetadata struct {
	Gid        []byte
	Name       string
	DurationMs int32
}

const (
	fMetaGid        protowire.Number = 1
	fMetaName       protowire.Number = 2
	fMetaDurationMs protowire.Number = 5
)

// UnmarshalEntityMetadata decodes the name/gid/duration common prefix
// of a metadata/4 response body, ignoring the kind-specific fields
// this client does not need.
func UnmarshalEntityMetadata(data []byte) (*EntityMetadata, error) {
	r := newFieldReader(data)
	m := &EntityMetadata{}
	for {
		num, typ, more := r.next()
		if !more {
			break
		}
		switch num {
		case fMetaGid:
			b, err := r.consumeBytes()
			if err != nil {
				return nil, err
			}
			m.Gid = b
		case fMetaName:
			b, err := r.consumeBytes()
			if err != nil {
				return nil, err
			}
			m.Name = string(b)
		case fMetaDurationMs:
			v, err := r.consumeVarint()
			if err != nil {
				return nil, err
			}
			m.DurationMs = int32(v)
		default:
			if err := r.skip(typ); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

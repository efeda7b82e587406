package spotifyproto

import "google.golang.org/protobuf/encoding/protowire"

// PlaylistItem is one track-URI entry of SelectedListContent.contents.
type PlaylistItem struct {
	URI string
}

// SelectedListContent is the decoded playlist/v2 response (covers both
// plain fetch and diff responses).
type SelectedListContent struct {
	RevisionCounter int32
	RevisionHash    []byte
	Name            string
	Owner           string
	Items           []PlaylistItem
	Length          int32
}

// ListChanges is the request body for a playlist/v2/{uri}/changes call.
type ListChanges struct {
	BaseRevisionCounter int32
	BaseRevisionHash    []byte
	AddURIs             []string
	RemoveURIs          []string
}

const (
	fSLCRevisionCounter protowire.Number = 1
	fSLCRevisionHash    protowire.Number = 2
	fSLCName            protowire.Number = 3
	fSLCOwner           protowire.Number = 4
	fSLCItems           protowire.Number = 5
	fSLCLength          protowire.Number = 6

	fPlaylistItemURI protowire.Number = 1

	fListChangesBaseCounter protowire.Number = 1
	fListChangesBaseHash    protowire.Number = 2
	fListChangesAddURIs     protowire.Number = 3
	fListChangesRemoveURIs  protowire.Number = 4
)

func unmarshalPlaylistItem(data []byte) (PlaylistItem, error) {
	r := newFieldReader(data)
	var it PlaylistItem
	for {
		num, typ, more := r.next()
		if !more {
			break
		}
		if num == fPlaylistItemURI {
			b, err := r.consumeBytes()
			if err != nil {
				return it, err
			}
			it.URI = string(b)
			continue
		}
		if err := r.skip(typ); err != nil {
			return it, err
		}
	}
	return it, nil
}

// UnmarshalSelectedListContent decodes a playlist/v2 response body.
func UnmarshalSelectedListContent(data []byte) (*SelectedListContent, error) {
	r := newFieldReader(data)
	slc := &SelectedListContent{}
	for {
		num, typ, more := r.next()
		if !more {
			break
		}
		switch num {
		case fSLCRevisionCounter:
			v, err := r.consumeVarint()
			if err != nil {
				return nil, err
			}
			slc.RevisionCounter = int32(v)
		case fSLCRevisionHash:
			b, err := r.consumeBytes()
			if err != nil {
				return nil, err
			}
			slc.RevisionHash = b
		case fSLCName:
			b, err := r.consumeBytes()
			if err != nil {
				return nil, err
			}
			slc.Name = string(b)
		case fSLCOwner:
			b, err := r.consumeBytes()
			if err != nil {
				return nil, err
			}
			slc.Owner = string(b)
		case fSLCItems:
			b, err := r.consumeBytes()
			if err != nil {
				return nil, err
			}
			item, err := unmarshalPlaylistItem(b)
			if err != nil {
				return nil, err
			}
			slc.Items = append(slc.Items, item)
		case fSLCLength:
			v, err := r.consumeVarint()
			if err != nil {
				return nil, err
			}
			slc.Length = int32(v)
		default:
			if err := r.skip(typ); err != nil {
				return nil, err
			}
		}
	}
	return slc, nil
}

// Marshal encodes a ListChanges request body.
func (c ListChanges) Marshal() []byte {
	var buf []byte
	buf = appendVarint(buf, fListChangesBaseCounter, uint64(c.BaseRevisionCounter))
	buf = appendBytes(buf, fListChangesBaseHash, c.BaseRevisionHash)
	for _, u := range c.AddURIs {
		buf = appendString(buf, fListChangesAddURIs, u)
	}
	for _, u := range c.RemoveURIs {
		buf = appendString(buf, fListChangesRemoveURIs, u)
	}
	return buf
}

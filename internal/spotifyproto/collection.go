package spotifyproto

import "google.golang.org/protobuf/encoding/protowire"

// PageRequest is collection/v2/paging's request body.
type PageRequest struct {
	Username string
	SetName  string
	Limit    int32
	Offset   int32
}

// PageItem is one (uri, added_at) row of a page response.
type PageItem struct {
	URI     string
	AddedAt int64
}

// PageResponse is collection/v2/paging's response body.
type PageResponse struct {
	Items      []PageItem
	SyncToken  string
	TotalCount int32
}

// DeltaRequest is collection/v2/delta's request body.
type DeltaRequest struct {
	Username string
	SetName  string
	Revision string
}

// DeltaItem is one (uri, is_removed) row of a delta response.
type DeltaItem struct {
	URI       string
	IsRemoved bool
}

// DeltaResponse is collection/v2/delta's response body.
type DeltaResponse struct {
	DeltaUpdatePossible bool
	Items               []DeltaItem
	SyncToken           string
}

// WriteRequest is collection/v2/write's request body.
type WriteRequest struct {
	Username string
	SetName  string
	URI      string
	Remove   bool
}

const (
	fPageReqUsername protowire.Number = 1
	fPageReqSetName  protowire.Number = 2
	fPageReqLimit    protowire.Number = 3
	fPageReqOffset   protowire.Number = 4

	fPageItemURI     protowire.Number = 1
	fPageItemAddedAt protowire.Number = 2

	fPageRespItems      protowire.Number = 1
	fPageRespSyncToken  protowire.Number = 2
	fPageRespTotalCount protowire.Number = 3

	fDeltaReqUsername protowire.Number = 1
	fDeltaReqSetName  protowire.Number = 2
	fDeltaReqRevision protowire.Number = 3

	fDeltaItemURI     protowire.Number = 1
	fDeltaItemRemoved protowire.Number = 2

	fDeltaRespPossible  protowire.Number = 1
	fDeltaRespItems     protowire.Number = 2
	fDeltaRespSyncToken protowire.Number = 3

	fWriteReqUsername protowire.Number = 1
	fWriteReqSetName  protowire.Number = 2
	fWriteReqURI      protowire.Number = 3
	fWriteReqRemove   protowire.Number = 4
)

// Marshal encodes a PageRequest.
func (r PageRequest) Marshal() []byte {
	var buf []byte
	buf = appendString(buf, fPageReqUsername, r.Username)
	buf = appendString(buf, fPageReqSetName, r.SetName)
	buf = appendVarint(buf, fPageReqLimit, uint64(r.Limit))
	buf = appendVarint(buf, fPageReqOffset, uint64(r.Offset))
	return buf
}

func (i PageItem) marshal() []byte {
	var buf []byte
	buf = appendString(buf, fPageItemURI, i.URI)
	buf = appendInt64(buf, fPageItemAddedAt, i.AddedAt)
	return buf
}

func unmarshalPageItem(data []byte) (PageItem, error) {
	r := newFieldReader(data)
	var it PageItem
	for {
		num, typ, more := r.next()
		if !more {
			break
		}
		switch num {
		case fPageItemURI:
			b, err := r.consumeBytes()
			if err != nil {
				return it, err
			}
			it.URI = string(b)
		case fPageItemAddedAt:
			v, err := r.consumeVarint()
			if err != nil {
				return it, err
			}
			it.AddedAt = int64(v)
		default:
			if err := r.skip(typ); err != nil {
				return it, err
			}
		}
	}
	return it, nil
}

// UnmarshalPageResponse decodes a collection/v2/paging response.
func UnmarshalPageResponse(data []byte) (*PageResponse, error) {
	r := newFieldReader(data)
	resp := &PageResponse{}
	for {
		num, typ, more := r.next()
		if !more {
			break
		}
		switch num {
		case fPageRespItems:
			b, err := r.consumeBytes()
			if err != nil {
				return nil, err
			}
			it, err := unmarshalPageItem(b)
			if err != nil {
				return nil, err
			}
			resp.Items = append(resp.Items, it)
		case fPageRespSyncToken:
			b, err := r.consumeBytes()
			if err != nil {
				return nil, err
			}
			resp.SyncToken = string(b)
		case fPageRespTotalCount:
			v, err := r.consumeVarint()
			if err != nil {
				return nil, err
			}
			resp.TotalCount = int32(v)
		default:
			if err := r.skip(typ); err != nil {
				return nil, err
			}
		}
	}
	return resp, nil
}

// Marshal encodes a DeltaRequest.
func (r DeltaRequest) Marshal() []byte {
	var buf []byte
	buf = appendString(buf, fDeltaReqUsername, r.Username)
	buf = appendString(buf, fDeltaReqSetName, r.SetName)
	buf = appendString(buf, fDeltaReqRevision, r.Revision)
	return buf
}

func unmarshalDeltaItem(data []byte) (DeltaItem, error) {
	r := newFieldReader(data)
	var it DeltaItem
	for {
		num, typ, more := r.next()
		if !more {
			break
		}
		switch num {
		case fDeltaItemURI:
			b, err := r.consumeBytes()
			if err != nil {
				return it, err
			}
			it.URI = string(b)
		case fDeltaItemRemoved:
			v, err := r.consumeVarint()
			if err != nil {
				return it, err
			}
			it.IsRemoved = v != 0
		default:
			if err := r.skip(typ); err != nil {
				return it, err
			}
		}
	}
	return it, nil
}

// UnmarshalDeltaResponse decodes a collection/v2/delta response.
func UnmarshalDeltaResponse(data []byte) (*DeltaResponse, error) {
	r := newFieldReader(data)
	resp := &DeltaResponse{}
	for {
		num, typ, more := r.next()
		if !more {
			break
		}
		switch num {
		case fDeltaRespPossible:
			v, err := r.consumeVarint()
			if err != nil {
				return nil, err
			}
			resp.DeltaUpdatePossible = v != 0
		case fDeltaRespItems:
			b, err := r.consumeBytes()
			if err != nil {
				return nil, err
			}
			it, err := unmarshalDeltaItem(b)
			if err != nil {
				return nil, err
			}
			resp.Items = append(resp.Items, it)
		case fDeltaRespSyncToken:
			b, err := r.consumeBytes()
			if err != nil {
				return nil, err
			}
			resp.SyncToken = string(b)
		default:
			if err := r.skip(typ); err != nil {
				return nil, err
			}
		}
	}
	return resp, nil
}

// Marshal encodes a WriteRequest.
func (r WriteRequest) Marshal() []byte {
	var buf []byte
	buf = appendString(buf, fWriteReqUsername, r.Username)
	buf = appendString(buf, fWriteReqSetName, r.SetName)
	buf = appendString(buf, fWriteReqURI, r.URI)
	buf = appendBool(buf, fWriteReqRemove, r.Remove)
	return buf
}

package spotifyproto

import "google.golang.org/protobuf/encoding/protowire"

// StorageResolveResult is StorageResolveResponse.result.
type StorageResolveResult int32

const (
	StorageResolveCDN StorageResolveResult = iota
	StorageResolveStorage
	StorageResolveRestricted
)

// StorageResolveResponse is the decoded storage-resolve response: a
// playable file either lives behind CDN URLs or must be fetched from
// storage directly; Restricted means the requesting account has no
// entitlement to the file.
type StorageResolveResponse struct {
	Result StorageResolveResult
	CDNUrl []string
	FileID []byte
}

const (
	fStorageResult protowire.Number = 1
	fStorageCDNUrl protowire.Number = 2
	fStorageFileID protowire.Number = 3
)

// UnmarshalStorageResolveResponse decodes a storage-resolve response body.
func UnmarshalStorageResolveResponse(data []byte) (*StorageResolveResponse, error) {
	r := newFieldReader(data)
	resp := &StorageResolveResponse{}
	for {
		num, typ, more := r.next()
		if !more {
			break
		}
		switch num {
		case fStorageResult:
			v, err := r.consumeVarint()
			if err != nil {
				return nil, err
			}
			resp.Result = StorageResolveResult(v)
		case fStorageCDNUrl:
			b, err := r.consumeBytes()
			if err != nil {
				return nil, err
			}
			resp.CDNUrl = append(resp.CDNUrl, string(b))
		case fStorageFileID:
			b, err := r.consumeBytes()
			if err != nil {
				return nil, err
			}
			resp.FileID = b
		default:
			if err := r.skip(typ); err != nil {
				return nil, err
			}
		}
	}
	return resp, nil
}

// Package spotifyproto implements wire-compatible marshal/unmarshal
// for the subset of Spotify's protobuf schemas this repository needs
// (login5, connect-state cluster, collection and playlist paging).
//
// There is no .proto source checked into this repository and no
// protoc-generated code: the message shapes are hand-written Go
// structs whose Marshal/Unmarshal methods call the same low-level
// wire primitives (varint, length-delimited, fixed32/64) that
// protoc-gen-go emits, via google.golang.org/protobuf/encoding/protowire.
// Field numbers are assigned to match Spotify's public wire contract
// as documented by the librespot-golang port of the protocol.
package spotifyproto

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// fieldReader walks a length-delimited protobuf message one field at a time.
type fieldReader struct {
	buf []byte
}

func newFieldReader(buf []byte) *fieldReader { return &fieldReader{buf: buf} }

// next returns the next field number/type pair and advances the reader
// past the tag, or ok=false at end of input or on a malformed tag.
func (r *fieldReader) next() (num protowire.Number, typ protowire.Type, ok bool) {
	if len(r.buf) == 0 {
		return 0, 0, false
	}
	num, typ, n := protowire.ConsumeTag(r.buf)
	if n < 0 {
		return 0, 0, false
	}
	r.buf = r.buf[n:]
	return num, typ, true
}

func (r *fieldReader) consumeVarint() (uint64, error) {
	v, n := protowire.ConsumeVarint(r.buf)
	if n < 0 {
		return 0, fmt.Errorf("spotifyproto: malformed varint")
	}
	r.buf = r.buf[n:]
	return v, nil
}

func (r *fieldReader) consumeBytes() ([]byte, error) {
	b, n := protowire.ConsumeBytes(r.buf)
	if n < 0 {
		return nil, fmt.Errorf("spotifyproto: malformed length-delimited field")
	}
	r.buf = r.buf[n:]
	return b, nil
}

func (r *fieldReader) consumeFixed64() (uint64, error) {
	v, n := protowire.ConsumeFixed64(r.buf)
	if n < 0 {
		return 0, fmt.Errorf("spotifyproto: malformed fixed64")
	}
	r.buf = r.buf[n:]
	return v, nil
}

func (r *fieldReader) skip(typ protowire.Type) error {
	n := protowire.ConsumeFieldValue(0, typ, r.buf)
	if n < 0 {
		return fmt.Errorf("spotifyproto: malformed field body")
	}
	r.buf = r.buf[n:]
	return nil
}

func appendString(buf []byte, num protowire.Number, s string) []byte {
	if s == "" {
		return buf
	}
	buf = protowire.AppendTag(buf, num, protowire.BytesType)
	buf = protowire.AppendString(buf, s)
	return buf
}

func appendBytes(buf []byte, num protowire.Number, b []byte) []byte {
	if len(b) == 0 {
		return buf
	}
	buf = protowire.AppendTag(buf, num, protowire.BytesType)
	buf = protowire.AppendBytes(buf, b)
	return buf
}

func appendVarint(buf []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return buf
	}
	buf = protowire.AppendTag(buf, num, protowire.VarintType)
	buf = protowire.AppendVarint(buf, v)
	return buf
}

func appendBool(buf []byte, num protowire.Number, v bool) []byte {
	if !v {
		return buf
	}
	return appendVarint(buf, num, 1)
}

func appendInt64(buf []byte, num protowire.Number, v int64) []byte {
	return appendVarint(buf, num, uint64(v))
}

func appendMessage(buf []byte, num protowire.Number, msg []byte) []byte {
	if len(msg) == 0 {
		return buf
	}
	buf = protowire.AppendTag(buf, num, protowire.BytesType)
	buf = protowire.AppendBytes(buf, msg)
	return buf
}

package models

import (
	"encoding/hex"
	"errors"
	"time"
)

// AccessToken is a bearer token issued by login5. Tokens are never
// logged in full by any package in this repository — callers that need
// to log token activity should use Redacted().
type AccessToken struct {
	Token     string
	TokenType string
	ExpiresAt time.Time
}

// ShouldRefresh reports whether the token expires within threshold and
// a caller should refresh before using it.
func (t AccessToken) ShouldRefresh(threshold time.Duration, now time.Time) bool {
	if t.Token == "" {
		return true
	}
	return !now.Add(threshold).Before(t.ExpiresAt)
}

// Redacted returns a value safe to log: the token type and a short
// prefix of the token, never the full value.
func (t AccessToken) Redacted() string {
	if len(t.Token) <= 8 {
		return t.TokenType + " ****"
	}
	return t.TokenType + " " + t.Token[:8] + "..."
}

const fileIDLength = 20

// FileId is a 20-byte Spotify content file identifier.
type FileId [fileIDLength]byte

// ErrInvalidFileID is returned when a hex string does not decode to 20 bytes.
var ErrInvalidFileID = errors.New("models: file id must be 20 bytes")

// ParseFileID decodes a base16 (hex) FileId, as used by spclient paths.
func ParseFileID(hexStr string) (FileId, error) {
	var id FileId
	b, err := hex.DecodeString(hexStr)
	if err != nil {
		return id, err
	}
	if len(b) != fileIDLength {
		return id, ErrInvalidFileID
	}
	copy(id[:], b)
	return id, nil
}

// String renders the lowercase base16 form used as the spclient identifier.
func (f FileId) String() string {
	return hex.EncodeToString(f[:])
}

// Login5Reason is the closed set of login5 failure reasons.
type Login5Reason int

const (
	ReasonInvalidCredentials Login5Reason = iota
	ReasonBadRequest
	ReasonUnsupportedProtocol
	ReasonTimeout
	ReasonUnknownIdentifier
	ReasonTooManyAttempts
	ReasonInvalidPhoneNumber
	ReasonTryAgainLater
	ReasonNoStoredCredentials
	ReasonCodeChallengeNotSupported
	ReasonMaxRetriesExceeded
	ReasonNoOkResponse
	ReasonUnknown
)

func (r Login5Reason) String() string {
	switch r {
	case ReasonInvalidCredentials:
		return "invalid_credentials"
	case ReasonBadRequest:
		return "bad_request"
	case ReasonUnsupportedProtocol:
		return "unsupported_protocol"
	case ReasonTimeout:
		return "timeout"
	case ReasonUnknownIdentifier:
		return "unknown_identifier"
	case ReasonTooManyAttempts:
		return "too_many_attempts"
	case ReasonInvalidPhoneNumber:
		return "invalid_phone_number"
	case ReasonTryAgainLater:
		return "try_again_later"
	case ReasonNoStoredCredentials:
		return "no_stored_credentials"
	case ReasonCodeChallengeNotSupported:
		return "code_challenge_not_supported"
	case ReasonMaxRetriesExceeded:
		return "max_retries_exceeded"
	case ReasonNoOkResponse:
		return "no_ok_response"
	default:
		return "unknown"
	}
}

// Login5Error is a typed, non-retryable login5 failure.
type Login5Error struct {
	Reason Login5Reason
}

func (e *Login5Error) Error() string { return "login5: " + e.Reason.String() }

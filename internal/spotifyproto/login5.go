package spotifyproto

import "google.golang.org/protobuf/encoding/protowire"

// ClientInfo is LoginRequest.client_info.
type ClientInfo struct {
	ClientID string
	DeviceID string
}

// StoredCredential is LoginRequest.stored_credential.
type StoredCredential struct {
	Username string
	Data     []byte
}

// HashcashSolution is the solved form of a hashcash challenge.
type HashcashSolution struct {
	Suffix     []byte
	DurationMs int64
}

// ChallengeSolutions carries every solved challenge back to login5.
type ChallengeSolutions struct {
	Hashcash *HashcashSolution
}

// LoginRequest is the protobuf body posted to the login5 endpoint.
type LoginRequest struct {
	ClientInfo         ClientInfo
	StoredCredential   *StoredCredential
	ChallengeSolutions *ChallengeSolutions
	LoginContext       []byte
}

const (
	fLoginClientInfo         protowire.Number = 1
	fLoginStoredCredential   protowire.Number = 2
	fLoginChallengeSolutions protowire.Number = 6
	fLoginContext            protowire.Number = 7

	fClientInfoClientID protowire.Number = 1
	fClientInfoDeviceID protowire.Number = 2

	fStoredCredUsername protowire.Number = 1
	fStoredCredData     protowire.Number = 2

	fChallengeSolutionsHashcash protowire.Number = 1

	fHashcashSuffix     protowire.Number = 1
	fHashcashDurationMs protowire.Number = 2
)

func (c ClientInfo) marshal() []byte {
	var buf []byte
	buf = appendString(buf, fClientInfoClientID, c.ClientID)
	buf = appendString(buf, fClientInfoDeviceID, c.DeviceID)
	return buf
}

func (c StoredCredential) marshal() []byte {
	var buf []byte
	buf = appendString(buf, fStoredCredUsername, c.Username)
	buf = appendBytes(buf, fStoredCredData, c.Data)
	return buf
}

func (h HashcashSolution) marshal() []byte {
	var buf []byte
	buf = appendBytes(buf, fHashcashSuffix, h.Suffix)
	buf = appendInt64(buf, fHashcashDurationMs, h.DurationMs)
	return buf
}

func (c ChallengeSolutions) marshal() []byte {
	var buf []byte
	if c.Hashcash != nil {
		buf = appendMessage(buf, fChallengeSolutionsHashcash, c.Hashcash.marshal())
	}
	return buf
}

// Marshal encodes a LoginRequest to its protobuf wire form.
func (r LoginRequest) Marshal() []byte {
	var buf []byte
	buf = appendMessage(buf, fLoginClientInfo, r.ClientInfo.marshal())
	if r.StoredCredential != nil {
		buf = appendMessage(buf, fLoginStoredCredential, r.StoredCredential.marshal())
	}
	if r.ChallengeSolutions != nil {
		buf = appendMessage(buf, fLoginChallengeSolutions, r.ChallengeSolutions.marshal())
	}
	buf = appendBytes(buf, fLoginContext, r.LoginContext)
	return buf
}

// Challenge is one outstanding login5 challenge.
type Challenge struct {
	Code     *struct{}
	Hashcash *HashcashChallenge
}

// HashcashChallenge is the hashcash-flavored login5 challenge payload.
type HashcashChallenge struct {
	Prefix       []byte
	TargetLength int32
}

// LoginError is the closed failure-reason wire enum;
// values mirror Spotify's login5 proto LoginError enum ordering.
type LoginError int32

const (
	LoginErrorUnknown LoginError = iota
	LoginErrorInvalidCredentials
	LoginErrorBadRequest
	LoginErrorUnsupportedLoginProtocol
	LoginErrorTimeout
	LoginErrorUnknownIdentifier
	LoginErrorTooManyAttempts
	LoginErrorInvalidPhonenumber
	LoginErrorTryAgainLater
)

// LoginOk is the successful LoginResponse.ok payload.
type LoginOk struct {
	AccessToken          string
	AccessTokenExpiresIn int32
	Username             string
}

// LoginResponse is the decoded login5 reply.
type LoginResponse struct {
	Ok           *LoginOk
	Error        *LoginError
	Challenges   []Challenge
	LoginContext []byte
}

const (
	fLoginRespOk         protowire.Number = 1
	fLoginRespError      protowire.Number = 2
	fLoginRespChallenges protowire.Number = 4
	fLoginRespContext    protowire.Number = 5

	fOkAccessToken    protowire.Number = 1
	fOkTokenExpiresIn protowire.Number = 2
	fOkUsername       protowire.Number = 3

	fChallengeHashcash protowire.Number = 3

	fHashcashChallengePrefix protowire.Number = 1
	fHashcashChallengeLength protowire.Number = 2
)

func (o LoginOk) marshal() []byte {
	var buf []byte
	buf = appendString(buf, fOkAccessToken, o.AccessToken)
	buf = appendVarint(buf, fOkTokenExpiresIn, uint64(o.AccessTokenExpiresIn))
	buf = appendString(buf, fOkUsername, o.Username)
	return buf
}

func (h HashcashChallenge) marshal() []byte {
	var buf []byte
	buf = appendBytes(buf, fHashcashChallengePrefix, h.Prefix)
	buf = appendVarint(buf, fHashcashChallengeLength, uint64(h.TargetLength))
	return buf
}

func (c Challenge) marshal() []byte {
	var buf []byte
	if c.Hashcash != nil {
		buf = appendMessage(buf, fChallengeHashcash, c.Hashcash.marshal())
	}
	return buf
}

// Marshal encodes a LoginResponse to its protobuf wire form. Production
// code only ever unmarshals a LoginResponse (it arrives from the
// login5 server); Marshal exists so tests can build fixtures without
// reaching into this package's unexported wire helpers.
func (r LoginResponse) Marshal() []byte {
	var buf []byte
	if r.Ok != nil {
		buf = appendMessage(buf, fLoginRespOk, r.Ok.marshal())
	}
	if r.Error != nil {
		buf = appendVarint(buf, fLoginRespError, uint64(*r.Error))
	}
	for _, ch := range r.Challenges {
		buf = appendMessage(buf, fLoginRespChallenges, ch.marshal())
	}
	buf = appendBytes(buf, fLoginRespContext, r.LoginContext)
	return buf
}

// UnmarshalLoginResponse decodes a raw LoginResponse protobuf body.
func UnmarshalLoginResponse(data []byte) (*LoginResponse, error) {
	r := newFieldReader(data)
	resp := &LoginResponse{}
	for {
		num, typ, ok := r.next()
		if !ok {
			break
		}
		switch num {
		case fLoginRespOk:
			b, err := r.consumeBytes()
			if err != nil {
				return nil, err
			}
			ok, err := unmarshalLoginOk(b)
			if err != nil {
				return nil, err
			}
			resp.Ok = ok
		case fLoginRespError:
			v, err := r.consumeVarint()
			if err != nil {
				return nil, err
			}
			e := LoginError(v)
			resp.Error = &e
		case fLoginRespChallenges:
			b, err := r.consumeBytes()
			if err != nil {
				return nil, err
			}
			ch, err := unmarshalChallenge(b)
			if err != nil {
				return nil, err
			}
			resp.Challenges = append(resp.Challenges, ch)
		case fLoginRespContext:
			b, err := r.consumeBytes()
			if err != nil {
				return nil, err
			}
			resp.LoginContext = b
		default:
			if err := r.skip(typ); err != nil {
				return nil, err
			}
		}
	}
	return resp, nil
}

func unmarshalLoginOk(data []byte) (*LoginOk, error) {
	r := newFieldReader(data)
	ok := &LoginOk{}
	for {
		num, typ, more := r.next()
		if !more {
			break
		}
		switch num {
		case fOkAccessToken:
			b, err := r.consumeBytes()
			if err != nil {
				return nil, err
			}
			ok.AccessToken = string(b)
		case fOkTokenExpiresIn:
			v, err := r.consumeVarint()
			if err != nil {
				return nil, err
			}
			ok.AccessTokenExpiresIn = int32(v)
		case fOkUsername:
			b, err := r.consumeBytes()
			if err != nil {
				return nil, err
			}
			ok.Username = string(b)
		default:
			if err := r.skip(typ); err != nil {
				return nil, err
			}
		}
	}
	return ok, nil
}

func unmarshalChallenge(data []byte) (Challenge, error) {
	r := newFieldReader(data)
	var ch Challenge
	for {
		num, typ, more := r.next()
		if !more {
			break
		}
		switch num {
		case fChallengeHashcash:
			b, err := r.consumeBytes()
			if err != nil {
				return ch, err
			}
			hc, err := unmarshalHashcashChallenge(b)
			if err != nil {
				return ch, err
			}
			ch.Hashcash = hc
		default:
			if err := r.skip(typ); err != nil {
				return ch, err
			}
		}
	}
	return ch, nil
}

func unmarshalHashcashChallenge(data []byte) (*HashcashChallenge, error) {
	r := newFieldReader(data)
	hc := &HashcashChallenge{}
	for {
		num, typ, more := r.next()
		if !more {
			break
		}
		switch num {
		case fHashcashChallengePrefix:
			b, err := r.consumeBytes()
			if err != nil {
				return nil, err
			}
			hc.Prefix = b
		case fHashcashChallengeLength:
			v, err := r.consumeVarint()
			if err != nil {
				return nil, err
			}
			hc.TargetLength = int32(v)
		default:
			if err := r.skip(typ); err != nil {
				return nil, err
			}
		}
	}
	return hc, nil
}

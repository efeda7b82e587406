// Package auth implements the login5 credential exchange: protobuf LoginRequest/LoginResponse over HTTP, hashcash
// proof-of-work challenge solving, and on-disk persistence of the stored credential (the access token itself is
// not persisted).
package auth

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gesellix/spotify-core/internal/spotifyproto"
	"github.com/gesellix/spotify-core/pkg/models"
)

const (
	maxRetries = 3
	retryDelay = 3 * time.Second
)

// Logger is the minimal logging seam every long-lived component in
// this repository accepts.
type Logger interface {
	Printf(format string, v ...interface{})
}

// CredentialSource supplies the stored credential login5 exchanges
// for an AccessToken (a prior username/blob pair from a successful
// zeroconf or password login, persisted by TokenStore).
type CredentialSource interface {
	StoredCredential() (username string, data []byte, ok bool)
}

// Client exchanges stored credentials for AccessTokens against the
// login5 endpoint, solving hashcash challenges along the way.
type Client struct {
	HTTPClient *http.Client
	Endpoint   string
	ClientID   string
	DeviceID   string
	Logger     Logger
}

// NewClient builds a login5 Client with an http.Client-by-
// value default (no custom transport unless the caller sets one).
func NewClient(endpoint, clientID, deviceID string) *Client {
	return &Client{
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
		Endpoint:   endpoint,
		ClientID:   clientID,
		DeviceID:   deviceID,
		Logger:     discardLogger{},
	}
}

// Login performs the full request/challenge/retry cycle and returns a
// fresh AccessToken.
func (c *Client) Login(ctx context.Context, cred CredentialSource) (models.AccessToken, error) {
	username, data, ok := cred.StoredCredential()
	if !ok {
		return models.AccessToken{}, &models.Login5Error{Reason: models.ReasonNoStoredCredentials}
	}

	req := spotifyproto.LoginRequest{
		ClientInfo:       spotifyproto.ClientInfo{ClientID: c.ClientID, DeviceID: c.DeviceID},
		StoredCredential: &spotifyproto.StoredCredential{Username: username, Data: data},
	}

	for attempt := 0; attempt < maxRetries; attempt++ {
		resp, err := c.exchange(ctx, req)
		if err != nil {
			return models.AccessToken{}, err
		}

		if resp.Ok != nil {
			return models.AccessToken{
				Token:     resp.Ok.AccessToken,
				TokenType: "Bearer",
				ExpiresAt: time.Now().Add(time.Duration(resp.Ok.AccessTokenExpiresIn) * time.Second),
			}, nil
		}

		if resp.Error != nil {
			reason, retryable := reasonFromWire(*resp.Error)
			if !retryable {
				return models.AccessToken{}, &models.Login5Error{Reason: reason}
			}
			c.Logger.Printf("login5 retrying after error %d: %s", *resp.Error, reason)
			if err := sleepOrDone(ctx, retryDelay); err != nil {
				return models.AccessToken{}, err
			}
			continue
		}

		if len(resp.Challenges) > 0 {
			solved, err := c.solveChallenges(resp.Challenges, resp.LoginContext, username, data)
			if err != nil {
				return models.AccessToken{}, err
			}
			req = solved
			continue
		}

		return models.AccessToken{}, &models.Login5Error{Reason: models.ReasonNoOkResponse}
	}

	return models.AccessToken{}, &models.Login5Error{Reason: models.ReasonMaxRetriesExceeded}
}

func (c *Client) solveChallenges(challenges []spotifyproto.Challenge, loginContext []byte, username string, credData []byte) (spotifyproto.LoginRequest, error) {
	var solutions spotifyproto.ChallengeSolutions
	for _, ch := range challenges {
		switch {
		case ch.Code != nil:
			return spotifyproto.LoginRequest{}, &models.Login5Error{Reason: models.ReasonCodeChallengeNotSupported}
		case ch.Hashcash != nil:
			suffix, _, err := SolveHashcash(loginContext, ch.Hashcash.Prefix, int(ch.Hashcash.TargetLength))
			if err != nil {
				return spotifyproto.LoginRequest{}, err
			}
			solutions.Hashcash = &spotifyproto.HashcashSolution{Suffix: suffix}
		}
	}

	return spotifyproto.LoginRequest{
		ClientInfo:         spotifyproto.ClientInfo{ClientID: c.ClientID, DeviceID: c.DeviceID},
		StoredCredential:   &spotifyproto.StoredCredential{Username: username, Data: credData},
		ChallengeSolutions: &solutions,
		LoginContext:       loginContext,
	}, nil
}

func (c *Client) exchange(ctx context.Context, req spotifyproto.LoginRequest) (*spotifyproto.LoginResponse, error) {
	body := req.Marshal()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/x-protobuf")

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("login5 request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read login5 response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("login5 returned status %d", resp.StatusCode)
	}

	return spotifyproto.UnmarshalLoginResponse(respBody)
}

// reasonFromWire maps the wire LoginError to the closed models.Login5Reason
// set and reports whether the caller should retry (Timeout, TooManyAttempts).
func reasonFromWire(e spotifyproto.LoginError) (models.Login5Reason, bool) {
	switch e {
	case spotifyproto.LoginErrorTimeout:
		return models.ReasonTimeout, true
	case spotifyproto.LoginErrorTooManyAttempts:
		return models.ReasonTooManyAttempts, true
	case spotifyproto.LoginErrorInvalidCredentials:
		return models.ReasonInvalidCredentials, false
	case spotifyproto.LoginErrorBadRequest:
		return models.ReasonBadRequest, false
	case spotifyproto.LoginErrorUnsupportedLoginProtocol:
		return models.ReasonUnsupportedProtocol, false
	case spotifyproto.LoginErrorUnknownIdentifier:
		return models.ReasonUnknownIdentifier, false
	case spotifyproto.LoginErrorInvalidPhonenumber:
		return models.ReasonInvalidPhoneNumber, false
	case spotifyproto.LoginErrorTryAgainLater:
		return models.ReasonTryAgainLater, false
	default:
		return models.ReasonUnknown, false
	}
}

func sleepOrDone(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

type discardLogger struct{}

func (discardLogger) Printf(string, ...interface{}) {}

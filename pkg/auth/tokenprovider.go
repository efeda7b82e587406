package auth

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/gesellix/spotify-core/pkg/models"
)

// refreshThreshold is the expiry margin: a token within this window of
// expiring is refreshed before being handed out, so a caller never
// gets a token that expires mid-request.
const refreshThreshold = 5 * time.Minute

// loginFunc performs one login5 exchange. *Client.Login satisfies this.
type loginFunc func(ctx context.Context, cred CredentialSource) (models.AccessToken, error)

// TokenProvider caches the current AccessToken and refreshes it via
// login5 only when it is about to expire. Concurrent callers racing a
// refresh share the single in-flight login5 call instead of each
// starting their own.
type TokenProvider struct {
	login loginFunc
	cred  CredentialSource

	mu    sync.RWMutex
	token models.AccessToken

	group singleflight.Group
}

// NewTokenProvider wraps a login5 Client and a credential source into
// a cache that SpotifyHttpApi calls can share.
func NewTokenProvider(client *Client, cred CredentialSource) *TokenProvider {
	return &TokenProvider{login: client.Login, cred: cred}
}

// Token returns a valid AccessToken, refreshing through login5 if the
// cached one is missing or within refreshThreshold of expiring.
func (p *TokenProvider) Token(ctx context.Context) (models.AccessToken, error) {
	p.mu.RLock()
	current := p.token
	p.mu.RUnlock()

	if !current.ShouldRefresh(refreshThreshold, time.Now()) {
		return current, nil
	}

	v, err, _ := p.group.Do("refresh", func() (interface{}, error) {
		// Re-check: another caller may have refreshed while we waited
		// to enter the singleflight group.
		p.mu.RLock()
		existing := p.token
		p.mu.RUnlock()
		if !existing.ShouldRefresh(refreshThreshold, time.Now()) {
			return existing, nil
		}

		fresh, err := p.login(ctx, p.cred)
		if err != nil {
			return models.AccessToken{}, err
		}

		p.mu.Lock()
		p.token = fresh
		p.mu.Unlock()
		return fresh, nil
	})
	if err != nil {
		return models.AccessToken{}, err
	}
	return v.(models.AccessToken), nil
}

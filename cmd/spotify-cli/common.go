package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/gesellix/spotify-core/pkg/auth"
	"github.com/gesellix/spotify-core/pkg/config"
	"github.com/gesellix/spotify-core/pkg/dealer"
	"github.com/gesellix/spotify-core/pkg/models"
	"github.com/gesellix/spotify-core/pkg/spclient"
)

// shutdownGrace bounds how long the serve command waits for an
// in-flight request to finish before forcing the listener closed.
const shutdownGrace = 5 * time.Second

// loadConfig loads configuration the same way every subcommand does:
// environment (with an optional .env file) plus an internal-consistency check.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// authComponents bundles the credential store, login5 client, and
// token provider every command that talks to spclient needs.
type authComponents struct {
	Store    *auth.TokenStore
	Provider *auth.TokenProvider
}

func buildAuthComponents(cfg *config.Config) (*authComponents, error) {
	store, err := auth.NewTokenStore(cfg.CredentialsDir)
	if err != nil {
		return nil, fmt.Errorf("open credential store: %w", err)
	}

	login5 := auth.NewClient(cfg.Login5URL, cfg.SpotifyClientID, cfg.SpotifyDeviceID)
	provider := auth.NewTokenProvider(login5, store)

	return &authComponents{Store: store, Provider: provider}, nil
}

func buildSpclient(cfg *config.Config, provider *auth.TokenProvider) *spclient.Client {
	return spclient.NewClient(cfg.SpclientBaseURL, provider)
}

// buildDealerClient wires a dealer.Client whose endpoint resolver
// returns the statically configured endpoints. A production resolver
// would consult apresolve instead; this repository does not implement
// that lookup.
func buildDealerClient(cfg *config.Config) *dealer.Client {
	resolver := func(_ context.Context) ([]string, error) {
		if len(cfg.DealerEndpoints) == 0 {
			return nil, fmt.Errorf("no dealer endpoints configured; set DEALER_ENDPOINTS")
		}
		return cfg.DealerEndpoints, nil
	}

	dcfg := dealer.DefaultClientConfig()
	dcfg.PingInterval = cfg.PingInterval
	dcfg.PongTimeout = cfg.PongTimeout
	dcfg.ReconnectInitial = cfg.ReconnectInitialDelay
	dcfg.ReconnectMax = cfg.ReconnectMaxDelay
	dcfg.ReconnectMaxAttempts = cfg.ReconnectMaxAttempts

	return dealer.NewClient(resolver, dcfg)
}

// interruptContext returns a context cancelled on SIGINT/SIGTERM, and
// a cleanup func that stops watching for signals.
func interruptContext(parent context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancel(parent)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			fmt.Printf("\nreceived signal %v, shutting down...\n", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigChan)
		cancel()
	}
}

// connectionTracker turns dealer.Client's channel-based connection
// state into the synchronous getter statusserver.ConnectionStateSource
// needs.
type connectionTracker struct {
	mu    sync.RWMutex
	state models.ConnectionState
}

func newConnectionTracker() *connectionTracker {
	return &connectionTracker{state: models.Disconnected}
}

func (t *connectionTracker) watch(ctx context.Context, ch chan models.ConnectionState) {
	for {
		select {
		case <-ctx.Done():
			return
		case s, ok := <-ch:
			if !ok {
				return
			}
			t.mu.Lock()
			t.state = s
			t.mu.Unlock()
		}
	}
}

// ConnectionState implements statusserver.ConnectionStateSource.
func (t *connectionTracker) ConnectionState() models.ConnectionState {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state
}

// playbackSnapshotter adapts playback.StateManager's CurrentState to
// statusserver.PlaybackStateSource's Snapshot name.
type playbackSnapshotter struct {
	manager interface{ CurrentState() models.PlaybackState }
}

func (p playbackSnapshotter) Snapshot() models.PlaybackState {
	return p.manager.CurrentState()
}

func printSuccess(format string, args ...interface{}) {
	fmt.Printf("✓ "+format+"\n", args...)
}

func printWarning(format string, args ...interface{}) {
	fmt.Printf("⚠ "+format+"\n", args...)
}

func requireArg(c *cli.Context, flag string) (string, error) {
	v := c.String(flag)
	if v == "" {
		return "", fmt.Errorf("--%s is required", flag)
	}
	return v, nil
}

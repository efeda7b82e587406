// Package config provides configuration management for the Spotify
// client library.
package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds every runtime tunable this library reads at startup.
type Config struct {
	// Identity
	SpotifyClientID string `env:"SPOTIFY_CLIENT_ID" default:""`
	SpotifyDeviceID string `env:"SPOTIFY_DEVICE_ID" default:""`

	// Endpoints
	DealerEndpoints []string `env:"DEALER_ENDPOINTS"`
	SpclientBaseURL string   `env:"SPCLIENT_BASE_URL" default:"https://spclient.wg.spotify.com"`
	Login5URL       string   `env:"LOGIN5_URL" default:"https://login5.spotify.com/v3/login"`

	// On-disk state
	CredentialsDir string `env:"CREDENTIALS_DIR" default:".spotify-core/credentials"`
	LibraryDir     string `env:"LIBRARY_DIR" default:".spotify-core/library"`

	// HTTP client settings
	HTTPTimeout time.Duration `env:"HTTP_TIMEOUT" default:"15s"`
	UserAgent   string        `env:"USER_AGENT" default:"spotify-core/1.0"`

	// Dealer heartbeat and reconnection tunables
	PingInterval          time.Duration `env:"PING_INTERVAL" default:"30s"`
	PongTimeout           time.Duration `env:"PONG_TIMEOUT" default:"10s"`
	ReconnectInitialDelay time.Duration `env:"RECONNECT_INITIAL_DELAY" default:"1s"`
	ReconnectMaxDelay     time.Duration `env:"RECONNECT_MAX_DELAY" default:"30s"`
	ReconnectMaxAttempts  int           `env:"RECONNECT_MAX_ATTEMPTS" default:"10"`

	// LAN discovery settings
	DiscoveryEnabled bool          `env:"DISCOVERY_ENABLED" default:"true"`
	DiscoveryTimeout time.Duration `env:"DISCOVERY_TIMEOUT" default:"5s"`

	// Local introspection server
	StatusServerEnabled bool   `env:"STATUS_SERVER_ENABLED" default:"false"`
	StatusServerAddr    string `env:"STATUS_SERVER_ADDR" default:"127.0.0.1:9091"`
}

// DefaultConfig returns a configuration with every default value set.
func DefaultConfig() *Config {
	return &Config{
		SpclientBaseURL:       "https://spclient.wg.spotify.com",
		Login5URL:             "https://login5.spotify.com/v3/login",
		CredentialsDir:        ".spotify-core/credentials",
		LibraryDir:            ".spotify-core/library",
		HTTPTimeout:           15 * time.Second,
		UserAgent:             "spotify-core/1.0",
		PingInterval:          30 * time.Second,
		PongTimeout:           10 * time.Second,
		ReconnectInitialDelay: time.Second,
		ReconnectMaxDelay:     30 * time.Second,
		ReconnectMaxAttempts:  10,
		DiscoveryEnabled:      true,
		DiscoveryTimeout:      5 * time.Second,
		StatusServerEnabled:   false,
		StatusServerAddr:      "127.0.0.1:9091",
	}
}

// LoadFromEnv loads configuration from environment variables, with an
// optional .env file consulted first for anything not already set in
// the real environment.
func LoadFromEnv() (*Config, error) {
	cfg := DefaultConfig()

	_ = loadDotEnv()

	if v := os.Getenv("SPOTIFY_CLIENT_ID"); v != "" {
		cfg.SpotifyClientID = v
	}
	if v := os.Getenv("SPOTIFY_DEVICE_ID"); v != "" {
		cfg.SpotifyDeviceID = v
	}
	if v := os.Getenv("DEALER_ENDPOINTS"); v != "" {
		cfg.DealerEndpoints = splitAndTrim(v, ",")
	}
	if v := os.Getenv("SPCLIENT_BASE_URL"); v != "" {
		cfg.SpclientBaseURL = v
	}
	if v := os.Getenv("LOGIN5_URL"); v != "" {
		cfg.Login5URL = v
	}
	if v := os.Getenv("CREDENTIALS_DIR"); v != "" {
		cfg.CredentialsDir = v
	}
	if v := os.Getenv("LIBRARY_DIR"); v != "" {
		cfg.LibraryDir = v
	}
	if v := os.Getenv("USER_AGENT"); v != "" {
		cfg.UserAgent = v
	}

	if err := setDuration(&cfg.HTTPTimeout, "HTTP_TIMEOUT"); err != nil {
		return nil, err
	}
	if err := setDuration(&cfg.PingInterval, "PING_INTERVAL"); err != nil {
		return nil, err
	}
	if err := setDuration(&cfg.PongTimeout, "PONG_TIMEOUT"); err != nil {
		return nil, err
	}
	if err := setDuration(&cfg.ReconnectInitialDelay, "RECONNECT_INITIAL_DELAY"); err != nil {
		return nil, err
	}
	if err := setDuration(&cfg.ReconnectMaxDelay, "RECONNECT_MAX_DELAY"); err != nil {
		return nil, err
	}
	if err := setDuration(&cfg.DiscoveryTimeout, "DISCOVERY_TIMEOUT"); err != nil {
		return nil, err
	}

	if v := os.Getenv("RECONNECT_MAX_ATTEMPTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid RECONNECT_MAX_ATTEMPTS: %w", err)
		}
		cfg.ReconnectMaxAttempts = n
	}

	if v := os.Getenv("DISCOVERY_ENABLED"); v != "" {
		cfg.DiscoveryEnabled = v == "true" || v == "1"
	}
	if v := os.Getenv("STATUS_SERVER_ENABLED"); v != "" {
		cfg.StatusServerEnabled = v == "true" || v == "1"
	}
	if v := os.Getenv("STATUS_SERVER_ADDR"); v != "" {
		cfg.StatusServerAddr = v
	}

	return cfg, nil
}

func setDuration(field *time.Duration, envVar string) error {
	v := os.Getenv(envVar)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", envVar, err)
	}
	*field = d
	return nil
}

func splitAndTrim(s, sep string) []string {
	parts := strings.Split(s, sep)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// loadDotEnv loads key=value pairs from a .env file in the working
// directory, without overriding variables already present in the
// real environment.
func loadDotEnv() error {
	file, err := os.Open(".env")
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		if len(value) >= 2 {
			if (strings.HasPrefix(value, "\"") && strings.HasSuffix(value, "\"")) ||
				(strings.HasPrefix(value, "'") && strings.HasSuffix(value, "'")) {
				value = value[1 : len(value)-1]
			}
		}

		if os.Getenv(key) == "" {
			_ = os.Setenv(key, value)
		}
	}

	return scanner.Err()
}

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("HTTP timeout must be positive")
	}
	if c.PingInterval <= 0 {
		return fmt.Errorf("ping interval must be positive")
	}
	if c.PongTimeout <= 0 {
		return fmt.Errorf("pong timeout must be positive")
	}
	if c.ReconnectMaxAttempts <= 0 {
		return fmt.Errorf("reconnect max attempts must be positive")
	}
	if c.DiscoveryTimeout <= 0 {
		return fmt.Errorf("discovery timeout must be positive")
	}
	if c.SpclientBaseURL == "" {
		return fmt.Errorf("spclient base URL must not be empty")
	}
	if c.Login5URL == "" {
		return fmt.Errorf("login5 URL must not be empty")
	}
	return nil
}

package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	ServerURL      string        `envconfig:"SERVER_URL" default:"http://localhost:8080"`
	WebsocketURL   string        `envconfig:"WS_URL"`
	Token          string        `envconfig:"TOKEN"`
	DebugAddr      string        `envconfig:"DEBUG_ADDR"`
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" default:"10s"`
}

// Load reads CHAT_-prefixed environment variables. WebsocketURL is derived
// from ServerURL when unset.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("chat", &cfg); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}

	if cfg.Token == "" {
		return nil, fmt.Errorf("token cannot be empty")
	}

	u, err := url.Parse(cfg.ServerURL)
	if err != nil {
		return nil, fmt.Errorf("parse server url: %w", err)
	}

	if cfg.WebsocketURL == "" {
		scheme := "ws"
		if u.Scheme == "https" {
			scheme = "wss"
		}
		cfg.WebsocketURL = scheme + "://" + u.Host + "/ws"
	}

	return &cfg, nil
}

package adapters

import (
	"fmt"
	"strings"
	"time"
)

// Backend modes.
const (
	ModeAPI  = "api"
	ModeMock = "mock"
)

// Config selects and configures a backend.
type Config struct {
	Mode string

	// api
	BaseURL string
	Timeout time.Duration

	// mock
	AuthDelay   time.Duration
	Delay       time.Duration
	TokenSecret string
}

// NewBackend creates the backend named by cfg.Mode. This is the only place
// that knows which implementation is active.
func NewBackend(cfg Config) (Backend, error) {
	switch strings.ToLower(cfg.Mode) {
	case ModeAPI, "":
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("api backend requires a base URL")
		}
		return NewAPIBackend(cfg.BaseURL, WithTimeout(cfg.Timeout)), nil
	case ModeMock:
		return NewMockBackend(
			WithDelays(cfg.AuthDelay, cfg.Delay),
			WithTokenSecret(cfg.TokenSecret),
		), nil
	default:
		return nil, fmt.Errorf("unsupported backend mode: %s", cfg.Mode)
	}
}

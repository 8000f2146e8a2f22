// Package config defines the client configuration: transport address,
// reconnect policy, wire limits, payload guarding, and the protocol-version
// gate. A Config is read-only after construction; nothing in the client
// mutates it at runtime.
package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/c360/treewire/errors"
	"github.com/c360/treewire/frame"
	"github.com/c360/treewire/pkg/security"
)

// Allowed transport schemes. Anything else fails validation before a
// connection attempt is made.
var allowedSchemes = map[string]struct{}{
	"ws":  {},
	"wss": {},
}

// Config represents the complete client configuration
type Config struct {
	// Address is the WebSocket endpoint, ws:// or wss:// only. Required.
	Address string `json:"address"`

	Reconnect ReconnectConfig `json:"reconnect"`

	// EscapeChar brackets fields containing the separator. Single character,
	// must not be the separator itself. Default "~".
	EscapeChar string `json:"escape_char"`

	// MaxMessageSize rejects oversize inbound messages before parsing.
	MaxMessageSize int `json:"max_message_size"`

	// MaxParts caps the field count of a single frame.
	MaxParts int `json:"max_parts"`

	// Logging enables warn/info output. Errors surface through the error
	// callback regardless.
	Logging bool `json:"logging"`

	Payload PayloadConfig `json:"payload"`

	Protocol ProtocolConfig `json:"protocol"`

	// TLS customizes the dialer for wss endpoints. Zero means dialer
	// defaults.
	TLS security.TLSConfig `json:"tls,omitempty"`
}

// ReconnectConfig holds the automatic reconnect policy
type ReconnectConfig struct {
	Enabled bool `json:"enabled"`
	// MaxAttempts caps consecutive failed attempts. The counter resets to
	// zero on a successful open.
	MaxAttempts int `json:"max_attempts"`
	// BaseDelay seeds the exponential backoff: base * 2^(attempt-1).
	// No jitter is applied; the undithered schedule is a documented
	// protocol limitation.
	BaseDelay time.Duration `json:"base_delay"`
	// MaxDelay caps a single backoff delay. Zero means uncapped.
	MaxDelay time.Duration `json:"max_delay"`
	// Multiplier for the backoff schedule. Default 2.0.
	Multiplier float64 `json:"multiplier"`
}

// PayloadConfig bounds structured payload validation
type PayloadConfig struct {
	// MaxSize caps structured payloads before any parse.
	MaxSize int `json:"max_size"`
	// Validate enables the payload guard.
	Validate bool `json:"validate"`
}

// ProtocolConfig is the protocol-version gate
type ProtocolConfig struct {
	// Version is this client's protocol version string.
	Version string `json:"version"`
	// Enforce disconnects on a major-version mismatch instead of logging.
	Enforce bool `json:"enforce"`
}

// DefaultConfig returns the default configuration. Address must still be
// set by the caller.
func DefaultConfig() Config {
	return Config{
		Reconnect: ReconnectConfig{
			Enabled:     true,
			MaxAttempts: 10,
			BaseDelay:   1 * time.Second,
			MaxDelay:    60 * time.Second,
			Multiplier:  2.0,
		},
		EscapeChar:     string(frame.DefaultEscapeChar),
		MaxMessageSize: 1024 * 1024,
		MaxParts:       64,
		Logging:        true,
		Payload: PayloadConfig{
			MaxSize:  64 * 1024,
			Validate: true,
		},
		Protocol: ProtocolConfig{
			Version: "1.0",
			Enforce: false,
		},
	}
}

// Validate checks the configuration for use. It is called once at manager
// construction; a Config that validated is safe for the client's lifetime.
func (c Config) Validate() error {
	if c.Address == "" {
		return errors.WrapFatal(errors.ErrMissingAddress, "config", "Validate", "check address")
	}
	if err := ValidateAddress(c.Address); err != nil {
		return err
	}

	if len(c.EscapeChar) != 1 {
		return errors.WrapFatal(
			fmt.Errorf("%w: escape character must be a single byte, got %q", errors.ErrInvalidConfig, c.EscapeChar),
			"config", "Validate", "check escape character",
		)
	}
	if c.EscapeChar[0] == frame.Separator {
		return errors.WrapFatal(
			fmt.Errorf("%w: escape character cannot be the field separator", errors.ErrInvalidConfig),
			"config", "Validate", "check escape character",
		)
	}

	if c.MaxMessageSize <= 0 {
		return errors.WrapFatal(
			fmt.Errorf("%w: max_message_size must be positive", errors.ErrInvalidConfig),
			"config", "Validate", "check message size limit",
		)
	}
	if c.MaxParts < frame.MinFields {
		return errors.WrapFatal(
			fmt.Errorf("%w: max_parts must be at least %d", errors.ErrInvalidConfig, frame.MinFields),
			"config", "Validate", "check part limit",
		)
	}

	if c.Reconnect.Enabled {
		if c.Reconnect.BaseDelay <= 0 {
			return errors.WrapFatal(
				fmt.Errorf("%w: reconnect base_delay must be positive", errors.ErrInvalidConfig),
				"config", "Validate", "check reconnect policy",
			)
		}
		if c.Reconnect.MaxAttempts < 0 {
			return errors.WrapFatal(
				fmt.Errorf("%w: reconnect max_attempts cannot be negative", errors.ErrInvalidConfig),
				"config", "Validate", "check reconnect policy",
			)
		}
		if c.Reconnect.Multiplier != 0 && c.Reconnect.Multiplier < 1 {
			return errors.WrapFatal(
				fmt.Errorf("%w: reconnect multiplier must be >= 1", errors.ErrInvalidConfig),
				"config", "Validate", "check reconnect policy",
			)
		}
	}

	if c.Payload.Validate && c.Payload.MaxSize <= 0 {
		return errors.WrapFatal(
			fmt.Errorf("%w: payload max_size must be positive when validation is enabled", errors.ErrInvalidConfig),
			"config", "Validate", "check payload guard",
		)
	}

	if err := c.TLS.Validate(); err != nil {
		return errors.WrapFatal(
			fmt.Errorf("%w: %v", errors.ErrInvalidConfig, err),
			"config", "Validate", "check TLS settings",
		)
	}

	return nil
}

// ValidateAddress checks the transport address against the scheme
// allow-list. Any other scheme fails fast, before a connection attempt.
func ValidateAddress(address string) error {
	u, err := url.Parse(address)
	if err != nil {
		return errors.WrapFatal(
			fmt.Errorf("%w: %v", errors.ErrInvalidAddress, err),
			"config", "ValidateAddress", "parse address",
		)
	}
	if _, ok := allowedSchemes[u.Scheme]; !ok {
		return errors.WrapFatal(
			fmt.Errorf("%w: scheme %q not allowed", errors.ErrInvalidAddress, u.Scheme),
			"config", "ValidateAddress", "check scheme",
		)
	}
	if u.Host == "" {
		return errors.WrapFatal(
			fmt.Errorf("%w: missing host", errors.ErrInvalidAddress),
			"config", "ValidateAddress", "check host",
		)
	}
	return nil
}

// Escape returns the configured escape character as a byte, falling back to
// the frame default when unset.
func (c Config) Escape() byte {
	if len(c.EscapeChar) == 1 {
		return c.EscapeChar[0]
	}
	return frame.DefaultEscapeChar
}

// ParseOptions derives the frame parser options from the wire limits.
func (c Config) ParseOptions() frame.Options {
	return frame.Options{
		EscapeChar:     c.Escape(),
		MaxMessageSize: c.MaxMessageSize,
		MaxParts:       c.MaxParts,
	}
}

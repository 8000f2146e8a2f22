package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/c360/treewire/config"
	"github.com/c360/treewire/pkg/security"
	"github.com/c360/treewire/relay"
)

// cliConfig is everything the command needs: the client config plus the
// command's own knobs.
type cliConfig struct {
	Client      config.Config
	Relay       relay.Config
	Targets     []string
	MetricsAddr string
	LogLevel    string
	LogFormat   string
}

// loadConfig reads treewire.yaml (working directory or /etc/treewire) and
// TREEWIRE_* environment variables. Flags are deliberately not used; the
// command is config-file driven like the rest of the tooling.
func loadConfig() (cliConfig, error) {
	v := viper.New()
	v.SetConfigName("treewire")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/treewire")
	v.SetEnvPrefix("TREEWIRE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := config.DefaultConfig()
	v.SetDefault("address", "")
	v.SetDefault("reconnect.enabled", defaults.Reconnect.Enabled)
	v.SetDefault("reconnect.max_attempts", defaults.Reconnect.MaxAttempts)
	v.SetDefault("reconnect.base_delay", defaults.Reconnect.BaseDelay)
	v.SetDefault("reconnect.max_delay", defaults.Reconnect.MaxDelay)
	v.SetDefault("reconnect.multiplier", defaults.Reconnect.Multiplier)
	v.SetDefault("escape_char", defaults.EscapeChar)
	v.SetDefault("max_message_size", defaults.MaxMessageSize)
	v.SetDefault("max_parts", defaults.MaxParts)
	v.SetDefault("logging", defaults.Logging)
	v.SetDefault("payload.max_size", defaults.Payload.MaxSize)
	v.SetDefault("payload.validate", defaults.Payload.Validate)
	v.SetDefault("protocol.version", defaults.Protocol.Version)
	v.SetDefault("protocol.enforce", defaults.Protocol.Enforce)
	v.SetDefault("targets", []string{})
	v.SetDefault("metrics_addr", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("relay.url", "")
	v.SetDefault("relay.subject", "treewire.frames")

	if err := v.ReadInConfig(); err != nil {
		// Missing config file is fine; env and defaults carry it.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return cliConfig{}, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := cliConfig{
		Client: config.Config{
			Address: v.GetString("address"),
			Reconnect: config.ReconnectConfig{
				Enabled:     v.GetBool("reconnect.enabled"),
				MaxAttempts: v.GetInt("reconnect.max_attempts"),
				BaseDelay:   v.GetDuration("reconnect.base_delay"),
				MaxDelay:    v.GetDuration("reconnect.max_delay"),
				Multiplier:  v.GetFloat64("reconnect.multiplier"),
			},
			EscapeChar:     v.GetString("escape_char"),
			MaxMessageSize: v.GetInt("max_message_size"),
			MaxParts:       v.GetInt("max_parts"),
			Logging:        v.GetBool("logging"),
			Payload: config.PayloadConfig{
				MaxSize:  v.GetInt("payload.max_size"),
				Validate: v.GetBool("payload.validate"),
			},
			Protocol: config.ProtocolConfig{
				Version: v.GetString("protocol.version"),
				Enforce: v.GetBool("protocol.enforce"),
			},
			TLS: security.TLSConfig{
				CAFiles:            v.GetStringSlice("tls.ca_files"),
				CertFile:           v.GetString("tls.cert_file"),
				KeyFile:            v.GetString("tls.key_file"),
				InsecureSkipVerify: v.GetBool("tls.insecure_skip_verify"),
				MinVersion:         v.GetString("tls.min_version"),
			},
		},
		Relay: relay.Config{
			URL:     v.GetString("relay.url"),
			Subject: v.GetString("relay.subject"),
			Name:    appName,
		},
		Targets:     v.GetStringSlice("targets"),
		MetricsAddr: v.GetString("metrics_addr"),
		LogLevel:    v.GetString("log_level"),
		LogFormat:   v.GetString("log_format"),
	}

	if err := cfg.Client.Validate(); err != nil {
		return cliConfig{}, err
	}
	return cfg, nil
}

package security

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
)

// TLSConfig holds client-side TLS settings for wss endpoints. The system CA
// bundle is always trusted; CAFiles are ADDITIONAL trusted CAs.
type TLSConfig struct {
	CAFiles            []string `json:"ca_files,omitempty"`
	CertFile           string   `json:"cert_file,omitempty"` // Client certificate for mTLS
	KeyFile            string   `json:"key_file,omitempty"`  // Client private key for mTLS
	InsecureSkipVerify bool     `json:"insecure_skip_verify,omitempty"` // DEV/TEST ONLY
	MinVersion         string   `json:"min_version,omitempty"`          // "1.2" or "1.3"
}

// IsZero reports whether no TLS settings were provided at all, in which case
// the dialer falls back to its defaults.
func (c TLSConfig) IsZero() bool {
	return len(c.CAFiles) == 0 && c.CertFile == "" && c.KeyFile == "" &&
		!c.InsecureSkipVerify && c.MinVersion == ""
}

// Validate checks settings that can be rejected without touching the
// filesystem.
func (c TLSConfig) Validate() error {
	switch c.MinVersion {
	case "", "1.2", "1.3":
	default:
		return fmt.Errorf("tls min_version must be \"1.2\" or \"1.3\", got %q", c.MinVersion)
	}
	if (c.CertFile == "") != (c.KeyFile == "") {
		return fmt.Errorf("tls cert_file and key_file must be set together")
	}
	return nil
}

// Load materializes a tls.Config from the settings. A zero config loads as
// nil so callers can hand it straight to a dialer.
func (c TLSConfig) Load() (*tls.Config, error) {
	if c.IsZero() {
		return nil, nil
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}

	conf := &tls.Config{
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: c.InsecureSkipVerify,
	}
	if c.MinVersion == "1.3" {
		conf.MinVersion = tls.VersionTLS13
	}

	if len(c.CAFiles) > 0 {
		pool, err := x509.SystemCertPool()
		if err != nil {
			pool = x509.NewCertPool()
		}
		for _, file := range c.CAFiles {
			pem, err := os.ReadFile(file)
			if err != nil {
				return nil, fmt.Errorf("read CA file %s: %w", file, err)
			}
			if !pool.AppendCertsFromPEM(pem) {
				return nil, fmt.Errorf("no certificates found in CA file %s", file)
			}
		}
		conf.RootCAs = pool
	}

	if c.CertFile != "" {
		cert, err := tls.LoadX509KeyPair(c.CertFile, c.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("load client key pair: %w", err)
		}
		conf.Certificates = []tls.Certificate{cert}
	}

	return conf, nil
}

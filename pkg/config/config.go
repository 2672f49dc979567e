// Package config loads the YAML client configuration used by the
// command-line tools.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jeremydumais/smtpclient-go/pkg/client"
	"github.com/jeremydumais/smtpclient-go/pkg/transport"
)

// Config describes one client setup.
type Config struct {
	// Server is the SMTP server name. Also used for certificate
	// verification.
	Server string `yaml:"server"`

	// Port is the SMTP server port.
	Port int `yaml:"port"`

	// LocalName is the client name announced in EHLO.
	LocalName string `yaml:"local_name"`

	// CommandTimeoutSeconds is the whole-second reply timeout budget.
	CommandTimeoutSeconds int `yaml:"command_timeout_seconds"`

	// TLSPolicy is one of "mandatory", "opportunistic" or "notls".
	TLSPolicy string `yaml:"tls_policy"`

	// LogFile receives the CBOR communication log. Empty disables
	// file logging.
	LogFile string `yaml:"log_file"`

	// ExtraCAFiles lists PEM files whose certificates are trusted in
	// place of the platform store.
	ExtraCAFiles []string `yaml:"extra_ca_files"`
}

// Default returns the configuration defaults.
func Default() Config {
	return Config{
		Port:                  587,
		LocalName:             "localhost",
		CommandTimeoutSeconds: transport.DefaultTimeoutSeconds,
		TLSPolicy:             client.TLSMandatory.String(),
	}
}

// Load reads and validates a YAML configuration file. Unset fields keep
// their defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("YAML parse error: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the configuration for usability.
func (c Config) Validate() error {
	if c.Server == "" {
		return fmt.Errorf("server must be set")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if c.CommandTimeoutSeconds <= 0 {
		return fmt.Errorf("command_timeout_seconds must be positive")
	}
	if _, err := client.ParseTLSPolicy(c.TLSPolicy); err != nil {
		return err
	}
	return nil
}

// Policy returns the parsed TLS policy. Validate must have passed.
func (c Config) Policy() client.TLSPolicy {
	p, _ := client.ParseTLSPolicy(c.TLSPolicy)
	return p
}

// CommandTimeout returns the timeout budget as a duration.
func (c Config) CommandTimeout() time.Duration {
	return time.Duration(c.CommandTimeoutSeconds) * time.Second
}

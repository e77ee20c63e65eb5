package config

import (
	"errors"
	"fmt"
	"net/mail"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the settings for a single monitoring run.
type Config struct {
	// Email holds notification channel settings (credentials excluded).
	Email EmailConfig `yaml:"email"`
	// WatchedProducts restricts monitoring to specific product aliases.
	// An empty list means every product the source returns is monitored.
	WatchedProducts []string `yaml:"watched_products"`
	// StateFile is the path to the JSON snapshot of last-known stock.
	StateFile string `yaml:"state_file"`
	// Source holds stock source connection parameters.
	Source SourceConfig `yaml:"source"`
}

// EmailConfig describes the SMTP notification channel. Credentials are
// deliberately absent: they come from the environment, never from this file.
type EmailConfig struct {
	// Enabled toggles notification sending for the whole run.
	Enabled bool `yaml:"enabled"`
	// Host is the SMTP server hostname.
	Host string `yaml:"host"`
	// Port is the SMTP server port.
	Port int `yaml:"port"`
	// EnableTLS switches on STARTTLS negotiation.
	EnableTLS bool `yaml:"enable_tls"`
	// EnableSSL switches on implicit SSL/TLS instead of STARTTLS.
	EnableSSL bool `yaml:"enable_ssl"`
	// SenderName is the display name used in the From header.
	SenderName string `yaml:"sender_name"`
	// Recipients are the alert destination addresses.
	Recipients []string `yaml:"recipients"`
}

// SourceConfig describes the remote stock API endpoint.
type SourceConfig struct {
	// BaseURL is the shop storefront root, e.g. "https://shop.amul.com".
	BaseURL string `yaml:"base_url"`
	// Substore selects the regional store whose inventory is queried.
	Substore string `yaml:"substore"`
	// Timeout bounds every single HTTP call to the source.
	Timeout time.Duration `yaml:"timeout"`
}

const (
	// DefaultConfigFilename is the default settings file path.
	DefaultConfigFilename = "restock-radar-settings.yaml"

	// DefaultStateFilename is the default snapshot file path.
	DefaultStateFilename = "last-known-stock.json"

	// DefaultSourceTimeout bounds a single stock API call so a hung remote
	// endpoint cannot stall the run.
	DefaultSourceTimeout = 10 * time.Second

	// DefaultFilePermissions is the file mode for settings written by Save.
	DefaultFilePermissions = 0o600

	// defaultSMTPHost and defaultSMTPPort match the most common provider setup.
	defaultSMTPHost = "smtp.gmail.com"
	defaultSMTPPort = 587

	// defaultSenderName appears as the From display name on alerts.
	defaultSenderName = "Restock Radar"

	// defaultBaseURL is the shop whose hidden products API is polled.
	defaultBaseURL = "https://shop.amul.com"

	// defaultSubstore is the regional store identifier used when none is configured.
	defaultSubstore = "66505ff0998183e1b1935c75"
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errNoRecipients is returned when notifications are on but nobody would receive them.
	errNoRecipients = errors.New("email is enabled but no recipients are configured")
	// errSMTPHostRequired is returned when the SMTP host is missing.
	errSMTPHostRequired = errors.New("email is enabled but SMTP host is empty")
)

// Default returns a configuration with every field at its default value.
func Default() *Config {
	return &Config{
		Email: EmailConfig{
			Enabled:    true,
			Host:       defaultSMTPHost,
			Port:       defaultSMTPPort,
			EnableTLS:  true,
			SenderName: defaultSenderName,
		},
		StateFile: DefaultStateFilename,
		Source: SourceConfig{
			BaseURL:  defaultBaseURL,
			Substore: defaultSubstore,
			Timeout:  DefaultSourceTimeout,
		},
	}
}

// Load reads configuration from the provided path and validates essential fields.
// An empty path falls back to DefaultConfigFilename.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(contents, cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the configuration to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks the provided settings for required fields and formatting,
// filling defaults for fields that may be omitted.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if cfg.StateFile == "" {
		cfg.StateFile = DefaultStateFilename
	}

	if cfg.Source.BaseURL == "" {
		cfg.Source.BaseURL = defaultBaseURL
	}

	if _, err := url.ParseRequestURI(cfg.Source.BaseURL); err != nil {
		return fmt.Errorf("invalid source base URL: %w", err)
	}

	if cfg.Source.Substore == "" {
		cfg.Source.Substore = defaultSubstore
	}

	if cfg.Source.Timeout <= 0 {
		cfg.Source.Timeout = DefaultSourceTimeout
	}

	if !cfg.Email.Enabled {
		return nil
	}

	if cfg.Email.Host == "" {
		return errSMTPHostRequired
	}

	if cfg.Email.Port <= 0 || cfg.Email.Port > 65535 {
		return fmt.Errorf("invalid SMTP port %d", cfg.Email.Port)
	}

	if len(cfg.Email.Recipients) == 0 {
		return errNoRecipients
	}

	for _, recipient := range cfg.Email.Recipients {
		if _, err := mail.ParseAddress(recipient); err != nil {
			return fmt.Errorf("invalid recipient address %q: %w", recipient, err)
		}
	}

	if cfg.Email.SenderName == "" {
		cfg.Email.SenderName = defaultSenderName
	}

	return nil
}

// SelectiveMonitoring reports whether only specific products are watched.
func (c *Config) SelectiveMonitoring() bool {
	return len(c.WatchedProducts) > 0
}

// Summary returns a loggable description of the email settings without credentials.
func (e EmailConfig) Summary() string {
	return fmt.Sprintf("host=%s:%d, tls=%t, ssl=%t, recipients=%d, enabled=%t",
		e.Host, e.Port, e.EnableTLS, e.EnableSSL, len(e.Recipients), e.Enabled)
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestValidate checks required fields and format validations for run settings.
func TestValidate(t *testing.T) {
	t.Parallel()

	// Nil configuration.
	require.Error(t, Validate(nil))

	// Enabled email without recipients.
	cfg := Default()
	require.ErrorIs(t, Validate(cfg), errNoRecipients)

	// Bad recipient address.
	cfg = Default()
	cfg.Email.Recipients = []string{"not-an-address"}
	require.Error(t, Validate(cfg))

	// Bad port.
	cfg = Default()
	cfg.Email.Port = 90000
	cfg.Email.Recipients = []string{"alerts@example.com"}
	require.Error(t, Validate(cfg))

	// Bad base URL.
	cfg = Default()
	cfg.Email.Enabled = false
	cfg.Source.BaseURL = "not a url"
	require.Error(t, Validate(cfg))

	// Disabled email skips channel checks entirely.
	cfg = &Config{Email: EmailConfig{Enabled: false}}
	require.NoError(t, Validate(cfg))
	require.Equal(t, DefaultStateFilename, cfg.StateFile)
	require.Equal(t, DefaultSourceTimeout, cfg.Source.Timeout)

	// Fully valid.
	cfg = Default()
	cfg.Email.Recipients = []string{"alerts@example.com"}
	require.NoError(t, Validate(cfg))
}

// TestSaveLoadRoundtrip ensures settings are persisted and loaded back correctly.
func TestSaveLoadRoundtrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "settings.yaml")

	cfg := Default()
	cfg.Email.Recipients = []string{"alerts@example.com", "backup@example.com"}
	cfg.WatchedProducts = []string{"amul-whey-protein-32g"}
	cfg.Source.Timeout = 15 * time.Second

	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg.Email.Recipients, loaded.Email.Recipients)
	require.Equal(t, cfg.WatchedProducts, loaded.WatchedProducts)
	require.Equal(t, cfg.Source.Timeout, loaded.Source.Timeout)
	require.True(t, loaded.SelectiveMonitoring())

	// File exists.
	_, err = os.Stat(path)
	require.NoError(t, err)
}

// TestLoad_MissingFile reports the read failure instead of silently defaulting.
func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

// TestLoadCredentials reads SMTP secrets from the environment only.
func TestLoadCredentials(t *testing.T) { //nolint:paralleltest // Mutates process environment.
	t.Setenv(UsernameEnv, "radar@example.com")
	t.Setenv(PasswordEnv, "app-password")

	creds, err := LoadCredentials()
	require.NoError(t, err)
	require.Equal(t, "radar@example.com", creds.Username)
	require.Equal(t, "app-password", creds.Password)

	t.Setenv(PasswordEnv, "")

	_, err = LoadCredentials()
	require.ErrorIs(t, err, ErrMissingCredentials)
}

// TestEmailConfig_Summary never leaks credentials and mentions the endpoint.
func TestEmailConfig_Summary(t *testing.T) {
	t.Parallel()

	summary := Default().Email.Summary()
	require.Contains(t, summary, "smtp.gmail.com:587")
	require.NotContains(t, summary, "password")
}

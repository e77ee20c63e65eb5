package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Environment variable names for the SMTP credentials. They are kept apart
// from the YAML settings file so account secrets never sit next to the
// shareable configuration.
const (
	UsernameEnv = "SMTP_USERNAME"
	PasswordEnv = "SMTP_PASSWORD"
)

// Credentials carries the SMTP account secrets for the notification channel.
type Credentials struct {
	// Username is the SMTP account name, usually the sender address.
	Username string
	// Password is the SMTP password or an app-specific password.
	Password string
}

// ErrMissingCredentials is returned when the environment provides no usable
// SMTP account. The message names the variables so the fix is obvious.
var ErrMissingCredentials = fmt.Errorf(
	"SMTP credentials are not set: export %s and %s or put them in a .env file", UsernameEnv, PasswordEnv)

// LoadCredentials reads SMTP credentials from the process environment,
// first seeding it from a .env file when one exists alongside the binary.
func LoadCredentials() (Credentials, error) {
	// Overload is intentionally not used: real environment wins over .env.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Credentials{}, fmt.Errorf("load .env: %w", err)
	}

	creds := Credentials{
		Username: os.Getenv(UsernameEnv),
		Password: os.Getenv(PasswordEnv),
	}

	if creds.Username == "" || creds.Password == "" {
		return Credentials{}, ErrMissingCredentials
	}

	return creds, nil
}

// Package config defines run settings and provides helpers to load,
// validate and save them in YAML format.
//
// The Config type holds the notification channel, watchlist, state file and
// stock source parameters. SMTP credentials are handled separately: they are
// read from the environment (optionally seeded from a .env file) and never
// stored in the settings file.
package config

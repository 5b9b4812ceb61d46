package config

import (
	"errors"
	"strings"
)

// ErrMissingAPIKey is returned when TBA_API_KEY is unset or blank.
var ErrMissingAPIKey = errors.New(EnvAPIKey + " environment variable not set")

// ResolveAPIKey reads the TBA read key from the environment.
func ResolveAPIKey(getenv func(string) string) (string, error) {
	key := strings.TrimSpace(getenv(EnvAPIKey))
	if key == "" {
		return "", ErrMissingAPIKey
	}
	return key, nil
}

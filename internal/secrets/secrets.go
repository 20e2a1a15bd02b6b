// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets resolves API keys for the remote language model
// providers. A key comes from the environment first, then from a file in
// the secrets directory whose name is the key name.
//
// Known keys: anthropic-api-key (ANTHROPIC_API_KEY), gemini-api-key
// (GEMINI_API_KEY, GOOGLE_API_KEY).
package secrets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Key names, which double as file names in the secrets directory.
const (
	AnthropicAPIKey = "anthropic-api-key"
	GeminiAPIKey    = "gemini-api-key"
)

// ErrNotFound is returned when no source provides a key.
var ErrNotFound = errors.New("secret not found")

// envVars lists the environment variables consulted for each key, in order.
var envVars = map[string][]string{
	AnthropicAPIKey: {"ANTHROPIC_API_KEY"},
	GeminiAPIKey:    {"GEMINI_API_KEY", "GOOGLE_API_KEY"},
}

// Store resolves keys from the environment and a directory of key files.
type Store struct {
	Dir    string
	Getenv func(string) string
}

// New returns a Store reading files from dir. An empty dir disables file
// lookup.
func New(dir string) *Store {
	return &Store{Dir: dir, Getenv: os.Getenv}
}

// Lookup returns the value for name. Environment variables win over files.
// File contents are trimmed; empty values count as absent.
func (s *Store) Lookup(name string) (string, error) {
	getenv := s.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	for _, env := range envVars[name] {
		if v := strings.TrimSpace(getenv(env)); v != "" {
			return v, nil
		}
	}

	if s.Dir != "" {
		data, err := os.ReadFile(filepath.Join(s.Dir, name))
		switch {
		case err == nil:
			if v := strings.TrimSpace(string(data)); v != "" {
				return v, nil
			}
		case !errors.Is(err, os.ErrNotExist):
			return "", fmt.Errorf("reading secret %s: %w", name, err)
		}
	}

	hint := strings.Join(envVars[name], " or ")
	if hint == "" {
		return "", fmt.Errorf("%s: %w", name, ErrNotFound)
	}
	return "", fmt.Errorf("%s: set %s or write %s: %w", name, hint, filepath.Join(s.Dir, name), ErrNotFound)
}

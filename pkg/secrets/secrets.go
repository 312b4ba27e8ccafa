// Package secrets provides the credential boundary for connectors: secrets
// are looked up at use time from an external source and never persisted by
// the connector itself.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/zalando/go-keyring"
)

// Source looks up a named secret.
type Source interface {
	Get(key string) (string, error)
}

// EnvSource reads secrets from environment variables, optionally prefixed.
type EnvSource struct {
	Prefix string
}

func (s EnvSource) Get(key string) (string, error) {
	name := strings.ToUpper(s.Prefix + key)
	value := os.Getenv(name)
	if value == "" {
		return "", fmt.Errorf("secret %s not set", name)
	}
	return value, nil
}

// FileSource reads secrets from files under a directory. Works with Docker
// secrets (/run/secrets) and Kubernetes secret volume mounts.
type FileSource struct {
	Dir string
}

func (s FileSource) Get(key string) (string, error) {
	data, err := os.ReadFile(filepath.Join(s.Dir, key))
	if err != nil {
		return "", fmt.Errorf("reading secret %s: %w", key, err)
	}
	return strings.TrimSpace(string(data)), nil
}

// KeyringSource reads secrets from the OS keyring, where the CLI login
// command stores them.
type KeyringSource struct {
	Service string
}

func (s KeyringSource) Get(key string) (string, error) {
	return keyring.Get(s.Service, key)
}

// Set stores a secret in the OS keyring.
func (s KeyringSource) Set(key, value string) error {
	return keyring.Set(s.Service, key, value)
}

// Delete removes a secret from the OS keyring. It is a convenience for
// logout flows.
func (s KeyringSource) Delete(key string) error {
	return keyring.Delete(s.Service, key)
}

// Chain tries each source in order and returns the first hit. The CLI uses
// it to prefer the OS keyring with an environment fallback.
type Chain []Source

func (c Chain) Get(key string) (string, error) {
	var lastErr error
	for _, s := range c {
		value, err := s.Get(key)
		if err == nil {
			return value, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		return "", fmt.Errorf("secret %s not set", key)
	}
	return "", lastErr
}

// StaticSource serves secrets from a fixed map. Intended for tests.
type StaticSource map[string]string

func (s StaticSource) Get(key string) (string, error) {
	value, ok := s[key]
	if !ok {
		return "", fmt.Errorf("secret %s not set", key)
	}
	return value, nil
}

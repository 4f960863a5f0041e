// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package workflow

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/joho/godotenv"
)

// SecretStore is the process-wide key→value mapping populated once at boot
// (spec §5 Shared-resource policy). A lookup consults the environment first
// (`PLATFORM_{NAME_UPPER}`), then the in-process mapping loaded from a
// `.env` file discovered by walking up from a starting directory. Writes
// after boot are not permitted.
type SecretStore struct {
	mu     sync.RWMutex
	values map[string]string
	sealed bool
}

var defaultSecrets = &SecretStore{values: map[string]string{}}

// DefaultSecrets returns the process-wide [SecretStore].
func DefaultSecrets() *SecretStore { return defaultSecrets }

// LoadSecretsFromEnvFile walks up from startDir to the filesystem root
// looking for a `.env` file, loads the first one found into store, and
// seals it against further writes. Safe to call once at boot; a second call
// is a no-op.
func LoadSecretsFromEnvFile(store *SecretStore, startDir string) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	if store.sealed {
		return nil
	}
	store.sealed = true

	dir := startDir
	for {
		path := filepath.Join(dir, ".env")
		if _, err := os.Stat(path); err == nil {
			values, err := godotenv.Read(path)
			if err != nil {
				return err
			}
			for k, v := range values {
				store.values[k] = v
			}
			return nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return nil
		}
		dir = parent
	}
}

// Get looks up name: environment variable `PLATFORM_{NAME_UPPER}` first,
// then the in-process mapping.
func (s *SecretStore) Get(name string) (string, bool) {
	envKey := "PLATFORM_" + strings.ToUpper(name)
	if v, ok := os.LookupEnv(envKey); ok {
		return v, true
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[name]
	return v, ok
}

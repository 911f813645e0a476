package jwtkeys

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// fileStore persists keys as a JSON file. Suitable for single-node
// deployments; multi-node setups should use the Vault store.
type fileStore struct {
	mu   sync.Mutex
	path string
}

func newFileStore(path string) *fileStore {
	return &fileStore{path: path}
}

func (s *fileStore) Load(_ context.Context) ([]SigningKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("jwtkeys: read key file: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}

	var keys []SigningKey
	if err := json.Unmarshal(data, &keys); err != nil {
		return nil, fmt.Errorf("jwtkeys: parse key file: %w", err)
	}
	return keys, nil
}

func (s *fileStore) Save(_ context.Context, keys []SigningKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(keys)
	if err != nil {
		return fmt.Errorf("jwtkeys: encode keys: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("jwtkeys: create key dir: %w", err)
		}
	}

	// Write-then-rename so a crash never leaves a truncated key file.
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("jwtkeys: write key file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("jwtkeys: replace key file: %w", err)
	}
	return nil
}

// Package infra implements infrastructure concerns: the encrypted config
// store, key handling, and the OS-facing collaborators (foreground feed,
// battery reader, audio, shield, wake claim).
package infra

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
)

const (
	keyFileName = ".key"
	keySize     = 32 // 256-bit key for the SQLCipher database
)

// FileKeyProvider stores the database encryption key in a hidden file
// with 0600 permissions inside the data directory.
type FileKeyProvider struct {
	keyPath string
}

// NewFileKeyProvider creates a key provider for the given data directory.
func NewFileKeyProvider(dataDir string) *FileKeyProvider {
	return &FileKeyProvider{keyPath: filepath.Join(dataDir, keyFileName)}
}

// EnsureKey returns the stored key, generating and persisting a fresh one
// on first run.
func (p *FileKeyProvider) EnsureKey() ([]byte, error) {
	if encoded, err := os.ReadFile(p.keyPath); err == nil {
		key, err := base64.StdEncoding.DecodeString(string(encoded))
		if err != nil {
			return nil, fmt.Errorf("failed to decode key file: %w", err)
		}
		if len(key) != keySize {
			return nil, fmt.Errorf("invalid key size: got %d, want %d", len(key), keySize)
		}
		return key, nil
	}

	key := make([]byte, keySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(p.keyPath), 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	encoded := base64.StdEncoding.EncodeToString(key)
	if err := os.WriteFile(p.keyPath, []byte(encoded), 0600); err != nil {
		return nil, fmt.Errorf("failed to write key file: %w", err)
	}
	return key, nil
}

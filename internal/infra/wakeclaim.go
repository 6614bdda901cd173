package infra

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/kidcan/agent/internal/domain"
)

const wakeClaimName = ".wake"

// FileWakeClaim implements domain.WakeClaim with a pid-stamped claim
// file in the data directory. Host-side power tooling honors the claim
// while the file exists; Release is idempotent.
type FileWakeClaim struct {
	path string
}

// NewFileWakeClaim creates a claim rooted in dataDir.
func NewFileWakeClaim(dataDir string) *FileWakeClaim {
	return &FileWakeClaim{path: filepath.Join(dataDir, wakeClaimName)}
}

// Acquire writes the claim file.
func (c *FileWakeClaim) Acquire() error {
	if err := os.MkdirAll(filepath.Dir(c.path), 0700); err != nil {
		return fmt.Errorf("failed to create claim directory: %w", err)
	}
	pid := strconv.Itoa(os.Getpid())
	if err := os.WriteFile(c.path, []byte(pid), 0600); err != nil {
		return fmt.Errorf("failed to write wake claim: %w", err)
	}
	return nil
}

// Release removes the claim file. Safe when never acquired.
func (c *FileWakeClaim) Release() {
	_ = os.Remove(c.path)
}

var _ domain.WakeClaim = (*FileWakeClaim)(nil)

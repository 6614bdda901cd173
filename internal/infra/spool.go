package infra

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kidcan/agent/internal/domain"
)

const (
	spoolDirName      = "commands"
	spoolPollInterval = 2 * time.Second
)

// SpoolCommandSource implements domain.CommandSource over a spool
// directory in <dataDir>/commands. The push bridge drops one JSON file
// per command envelope; the source polls the directory, publishes each
// envelope in filename order and removes the file. Envelope values are
// strings, matching push data-message payloads.
type SpoolCommandSource struct {
	dir      string
	interval time.Duration
	ch       chan domain.CommandEnvelope
	logger   *zap.Logger
}

// NewSpoolCommandSource creates a source over the given data directory.
func NewSpoolCommandSource(dataDir string, logger *zap.Logger) *SpoolCommandSource {
	return &SpoolCommandSource{
		dir:      filepath.Join(dataDir, spoolDirName),
		interval: spoolPollInterval,
		ch:       make(chan domain.CommandEnvelope, 16),
		logger:   logger,
	}
}

// Envelopes returns the inbound command channel. Closed when Run exits.
func (s *SpoolCommandSource) Envelopes() <-chan domain.CommandEnvelope {
	return s.ch
}

// Run polls the spool directory until ctx is cancelled.
func (s *SpoolCommandSource) Run(ctx context.Context) error {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		close(s.ch)
		return err
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	defer close(s.ch)

	for {
		s.drain(ctx)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// drain publishes every spooled envelope and removes its file. Malformed
// files are removed too so they cannot wedge the spool.
func (s *SpoolCommandSource) drain(ctx context.Context) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		s.logger.Warn("failed to read command spool", zap.Error(err))
		return
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		if ctx.Err() != nil {
			return
		}
		path := filepath.Join(s.dir, name)

		env, err := s.readEnvelope(path)
		if err != nil {
			s.logger.Warn("dropping malformed command file",
				zap.String("file", name),
				zap.Error(err))
		} else {
			select {
			case s.ch <- env:
			case <-ctx.Done():
				return
			}
		}

		if err := os.Remove(path); err != nil {
			s.logger.Warn("failed to remove command file",
				zap.String("file", name),
				zap.Error(err))
		}
	}
}

func (s *SpoolCommandSource) readEnvelope(path string) (domain.CommandEnvelope, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var env domain.CommandEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, err
	}
	return env, nil
}

var _ domain.CommandSource = (*SpoolCommandSource)(nil)

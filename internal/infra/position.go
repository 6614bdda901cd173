package infra

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kidcan/agent/internal/domain"
)

const (
	locationDirName = "location"
	fusedFixName    = "fused"

	// A fix counts as fresh when written within this window of the
	// request. Older fixes are still served by LastKnownPosition.
	fixFreshness    = 2 * time.Second
	fixPollInterval = 250 * time.Millisecond
)

// positionFix is the on-disk fix format written by the locator helper.
type positionFix struct {
	Lat float64   `json:"lat"`
	Lng float64   `json:"lng"`
	At  time.Time `json:"at"`
}

// FilePositionProvider implements domain.PositionProvider over fix files
// in <dataDir>/location. A locator helper (GPS daemon bridge, modem
// tool, test harness) writes one JSON file per provider; "fused" is the
// primary fix, "gps"/"network"/"passive" serve the legacy fallback.
type FilePositionProvider struct {
	dir          string
	freshness    time.Duration
	pollInterval time.Duration
}

// NewFilePositionProvider creates a provider over the given data
// directory.
func NewFilePositionProvider(dataDir string) *FilePositionProvider {
	return &FilePositionProvider{
		dir:          filepath.Join(dataDir, locationDirName),
		freshness:    fixFreshness,
		pollInterval: fixPollInterval,
	}
}

// CurrentPosition waits for a fresh fused fix, polling the fix file
// until ctx expires. Callers bound the wait with a deadline.
func (p *FilePositionProvider) CurrentPosition(ctx context.Context) (*domain.Position, error) {
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		fix, err := p.readFix(fusedFixName)
		if err != nil {
			return nil, err
		}
		if fix != nil && time.Since(fix.At) <= p.freshness {
			return &domain.Position{Lat: fix.Lat, Lng: fix.Lng}, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// LastKnownPosition returns the stored fused fix regardless of age, nil
// when none has ever been written.
func (p *FilePositionProvider) LastKnownPosition() (*domain.Position, error) {
	fix, err := p.readFix(fusedFixName)
	if err != nil || fix == nil {
		return nil, err
	}
	return &domain.Position{Lat: fix.Lat, Lng: fix.Lng}, nil
}

// LegacyProviderPosition returns the stored fix for one named provider,
// nil when that provider has never reported.
func (p *FilePositionProvider) LegacyProviderPosition(provider string) (*domain.Position, error) {
	fix, err := p.readFix(provider)
	if err != nil || fix == nil {
		return nil, err
	}
	return &domain.Position{Lat: fix.Lat, Lng: fix.Lng}, nil
}

func (p *FilePositionProvider) readFix(name string) (*positionFix, error) {
	data, err := os.ReadFile(filepath.Join(p.dir, name+".json"))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read fix %s: %w", name, err)
	}

	var fix positionFix
	if err := json.Unmarshal(data, &fix); err != nil {
		return nil, fmt.Errorf("failed to parse fix %s: %w", name, err)
	}
	return &fix, nil
}

var _ domain.PositionProvider = (*FilePositionProvider)(nil)

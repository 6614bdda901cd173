package infra

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/kidcan/agent/internal/domain"
)

const powerSupplyDir = "/sys/class/power_supply"

// SysfsBatteryReader implements domain.BatteryReader by reading the
// kernel's power-supply capacity files.
type SysfsBatteryReader struct {
	dir string
}

// NewSysfsBatteryReader creates a reader over /sys/class/power_supply.
func NewSysfsBatteryReader() *SysfsBatteryReader {
	return &SysfsBatteryReader{dir: powerSupplyDir}
}

// NewSysfsBatteryReaderAt creates a reader over a custom directory (for
// tests).
func NewSysfsBatteryReaderAt(dir string) *SysfsBatteryReader {
	return &SysfsBatteryReader{dir: dir}
}

// BatteryPercent returns the first battery's charge percentage.
func (r *SysfsBatteryReader) BatteryPercent() (int, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return 0, fmt.Errorf("failed to list power supplies: %w", err)
	}

	for _, entry := range entries {
		capPath := filepath.Join(r.dir, entry.Name(), "capacity")
		data, err := os.ReadFile(capPath)
		if err != nil {
			continue // not a battery
		}
		percent, err := strconv.Atoi(strings.TrimSpace(string(data)))
		if err != nil {
			continue
		}
		return percent, nil
	}

	return 0, fmt.Errorf("no battery found under %s", r.dir)
}

var _ domain.BatteryReader = (*SysfsBatteryReader)(nil)

package infra

import (
	"context"
	"time"

	"github.com/shirou/gopsutil/v3/process"
	"go.uber.org/zap"

	"github.com/kidcan/agent/internal/domain"
)

const foregroundPollInterval = 500 * time.Millisecond

// FrontmostFunc resolves the identifier of the current foreground app.
// An empty string means the foreground could not be attributed.
type FrontmostFunc func() (string, error)

// ProcessForegroundSource implements domain.ForegroundSource by polling
// the frontmost process and emitting an event whenever it changes. The
// platform accessibility feed plugs in behind the same channel by
// supplying its own FrontmostFunc.
type ProcessForegroundSource struct {
	frontmost FrontmostFunc
	interval  time.Duration
	events    chan domain.ForegroundEvent
	logger    *zap.Logger
}

// NewProcessForegroundSource creates a poller with the default frontmost
// resolver (newest terminal-attached process via gopsutil).
func NewProcessForegroundSource(logger *zap.Logger) *ProcessForegroundSource {
	return NewForegroundSourceWithResolver(gopsutilFrontmost, logger)
}

// NewForegroundSourceWithResolver creates a poller with a custom
// resolver (used by tests and platform-specific feeds).
func NewForegroundSourceWithResolver(frontmost FrontmostFunc, logger *zap.Logger) *ProcessForegroundSource {
	return &ProcessForegroundSource{
		frontmost: frontmost,
		interval:  foregroundPollInterval,
		events:    make(chan domain.ForegroundEvent, 16),
		logger:    logger,
	}
}

// Events returns the change-notification channel. Closed when Run exits.
func (s *ProcessForegroundSource) Events() <-chan domain.ForegroundEvent {
	return s.events
}

// Run polls until ctx is cancelled, emitting an event on every
// foreground change. Resolver failures are logged and skipped; the
// poller never stops on its own.
func (s *ProcessForegroundSource) Run(ctx context.Context) error {
	defer close(s.events)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	var current string
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			pkg, err := s.frontmost()
			if err != nil {
				s.logger.Debug("failed to resolve foreground app", zap.Error(err))
				continue
			}
			if pkg == current {
				continue
			}
			current = pkg
			ev := domain.ForegroundEvent{Package: pkg, At: time.Now()}
			select {
			case s.events <- ev:
			default:
				// Consumer is behind; drop rather than block the poll.
				s.logger.Debug("foreground event dropped", zap.String("package", pkg))
			}
		}
	}
}

// gopsutilFrontmost picks the most recently started process that has a
// controlling terminal as the "foreground" app. A coarse heuristic for
// hosts without an accessibility feed.
func gopsutilFrontmost() (string, error) {
	procs, err := process.Processes()
	if err != nil {
		return "", err
	}

	var (
		newest     int64
		newestName string
	)
	for _, p := range procs {
		term, err := p.Terminal()
		if err != nil || term == "" {
			continue
		}
		created, err := p.CreateTime()
		if err != nil {
			continue
		}
		if created > newest {
			name, err := p.Name()
			if err != nil {
				continue
			}
			newest = created
			newestName = name
		}
	}
	return newestName, nil
}

var _ domain.ForegroundSource = (*ProcessForegroundSource)(nil)

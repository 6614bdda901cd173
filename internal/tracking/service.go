// Package tracking implements the adaptive telemetry service: two
// independent polling loops (location, battery) switchable between the
// base and boost interval profiles.
package tracking

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kidcan/agent/internal/domain"
)

// Service owns the location and battery loops. Starting a profile cancels
// any previous loop instances before constructing new ones, so there is
// never a window with two location loops or two battery loops running.
// All methods are safe for concurrent use.
type Service struct {
	store    domain.ConfigStore
	position domain.PositionProvider
	battery  domain.BatteryReader
	locSync  domain.LocationSyncClient
	batSync  domain.BatterySyncClient
	wake     domain.WakeClaim
	logger   *zap.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	profile domain.TrackingProfile
	running bool
}

// NewService creates a stopped tracking service. wake may be nil when the
// host needs no persistent-execution claim.
func NewService(
	store domain.ConfigStore,
	position domain.PositionProvider,
	battery domain.BatteryReader,
	locSync domain.LocationSyncClient,
	batSync domain.BatterySyncClient,
	wake domain.WakeClaim,
	logger *zap.Logger,
) *Service {
	return &Service{
		store:    store,
		position: position,
		battery:  battery,
		locSync:  locSync,
		batSync:  batSync,
		wake:     wake,
		logger:   logger,
	}
}

// StartBase (re)starts both loops with the base intervals. Idempotent:
// calling it twice in a row leaves exactly one location loop and one
// battery loop.
func (s *Service) StartBase() {
	s.start(domain.ProfileBase)
}

// StartBoost (re)starts both loops with the boost intervals.
func (s *Service) StartBoost() {
	s.start(domain.ProfileBoost)
}

// Profile returns the currently applied profile, or "" when stopped.
func (s *Service) Profile() domain.TrackingProfile {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return ""
	}
	return s.profile
}

// Running reports whether the loops are active.
func (s *Service) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Service) start(profile domain.TrackingProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Cancel-before-construct: the old loops are fully drained before
	// the new ones exist.
	s.stopLoopsLocked()

	if s.wake != nil && !s.running {
		if err := s.wake.Acquire(); err != nil {
			s.logger.Warn("failed to acquire wake claim", zap.Error(err))
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.profile = profile
	s.running = true

	locInterval, batInterval := profile.Intervals(s.currentConfig())
	s.logger.Info("tracking started",
		zap.String("profile", string(profile)),
		zap.Duration("location_interval", locInterval),
		zap.Duration("battery_interval", batInterval))

	s.wg.Add(2)
	go s.locationLoop(ctx, profile)
	go s.batteryLoop(ctx, profile)
}

// Stop cancels both loops and releases the persistent-execution claim.
// Synchronous and idempotent; safe when the service was never started.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLoopsLocked()
	if s.running {
		s.running = false
		if s.wake != nil {
			s.wake.Release()
		}
		s.logger.Info("tracking stopped")
	}
}

// stopLoopsLocked cancels the current loops and waits for them to exit.
// Caller holds s.mu. No further sends can happen once this returns.
func (s *Service) stopLoopsLocked() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	s.cancel = nil
	s.wg.Wait()
}

// currentConfig reads the persisted intervals, falling back to defaults
// so a store failure can never stall the loops.
func (s *Service) currentConfig() domain.TrackingConfig {
	cfg, err := s.store.TrackingConfig()
	if err != nil {
		s.logger.Warn("failed to read tracking config, using defaults", zap.Error(err))
		return domain.DefaultTrackingConfig()
	}
	return cfg
}

// identity reads the paired identity; (nil, false) means the iteration's
// work is skipped entirely while the loop keeps sleeping on schedule.
func (s *Service) identity() (domain.DeviceIdentity, bool) {
	id, err := s.store.Identity()
	if err != nil {
		s.logger.Warn("failed to read device identity", zap.Error(err))
		return domain.DeviceIdentity{}, false
	}
	if id == nil {
		return domain.DeviceIdentity{}, false
	}
	return *id, true
}

// sleep waits for the interval or cancellation. Returns false when the
// loop must exit.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// locationLoop runs until cancelled. One iteration's failure never stops
// subsequent iterations, and never affects the battery loop. The interval
// is re-read every iteration so a persisted config change takes effect on
// the next tick.
func (s *Service) locationLoop(ctx context.Context, profile domain.TrackingProfile) {
	defer s.wg.Done()
	s.logger.Debug("location loop started", zap.String("profile", string(profile)))

	for {
		if id, ok := s.identity(); ok {
			s.locationTick(ctx, id)
		} else {
			s.logger.Debug("no device identity, skipping location tick")
		}

		interval, _ := profile.Intervals(s.currentConfig())
		if !sleep(ctx, interval) {
			s.logger.Debug("location loop stopped")
			return
		}
	}
}

// locationTick obtains one position via the fallback chain and forwards
// it. No position at all is a skipped tick, not an error.
func (s *Service) locationTick(ctx context.Context, id domain.DeviceIdentity) {
	pos := s.resolvePosition(ctx)
	if pos == nil {
		s.logger.Debug("no position available, skipping send")
		return
	}
	s.locSync.SendLocation(ctx, id, *pos)
}

// batteryLoop runs until cancelled. lastSent is loop-local: a freshly
// started loop starts with no previous sample, so the first post-restart
// reading is always sent and can never be suppressed against a stale
// value from a cancelled run.
func (s *Service) batteryLoop(ctx context.Context, profile domain.TrackingProfile) {
	defer s.wg.Done()
	s.logger.Debug("battery loop started", zap.String("profile", string(profile)))

	var lastSent *int
	for {
		if id, ok := s.identity(); ok {
			lastSent = s.batteryTick(ctx, id, lastSent)
		} else {
			s.logger.Debug("no device identity, skipping battery tick")
		}

		_, interval := profile.Intervals(s.currentConfig())
		if !sleep(ctx, interval) {
			s.logger.Debug("battery loop stopped")
			return
		}
	}
}

// batteryTick reads the charge level and sends it unless the change since
// the last sent value is below the suppression threshold. Returns the
// possibly-updated last sent value.
func (s *Service) batteryTick(ctx context.Context, id domain.DeviceIdentity, lastSent *int) *int {
	percent, err := s.battery.BatteryPercent()
	if err != nil {
		s.logger.Warn("failed to read battery level", zap.Error(err))
		return lastSent
	}
	percent = clampPercent(percent)

	if lastSent != nil && abs(percent-*lastSent) < batteryThreshold(percent) {
		s.logger.Debug("battery change below threshold, suppressing send",
			zap.Int("percent", percent),
			zap.Int("last_sent", *lastSent))
		return lastSent
	}

	s.batSync.SendBattery(ctx, id, percent)
	return &percent
}

// batteryThreshold is the suppression threshold for the current reading:
// tighter when the battery is low so drain near empty is reported sooner.
func batteryThreshold(percent int) int {
	if percent <= 30 {
		return 3
	}
	return 7
}

func clampPercent(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

package daemon

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kidcan/agent/internal/command"
	"github.com/kidcan/agent/internal/domain"
	"github.com/kidcan/agent/internal/infra"
	"github.com/kidcan/agent/internal/policy"
	"github.com/kidcan/agent/internal/tracking"
	"github.com/kidcan/agent/internal/usecase"
)

type memStore struct {
	mu  sync.Mutex
	cfg domain.TrackingConfig
	id  *domain.DeviceIdentity
}

func (m *memStore) TrackingConfig() (domain.TrackingConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cfg, nil
}

func (m *memStore) SaveTrackingConfig(cfg domain.TrackingConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cfg = cfg
	return nil
}

func (m *memStore) Identity() (*domain.DeviceIdentity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.id, nil
}

func (m *memStore) SaveIdentity(id domain.DeviceIdentity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.id = &id
	return nil
}

func (m *memStore) Close() error { return nil }

type nilPosition struct{}

func (nilPosition) CurrentPosition(ctx context.Context) (*domain.Position, error) {
	return nil, nil
}
func (nilPosition) LastKnownPosition() (*domain.Position, error) { return nil, nil }
func (nilPosition) LegacyProviderPosition(string) (*domain.Position, error) {
	return nil, nil
}

type fixedBattery struct{}

func (fixedBattery) BatteryPercent() (int, error) { return 80, nil }

type nopSync struct{}

func (nopSync) SendLocation(context.Context, domain.DeviceIdentity, domain.Position) {}
func (nopSync) SendBattery(context.Context, domain.DeviceIdentity, int)              {}

type fakeForeground struct {
	ch chan domain.ForegroundEvent
}

func (f *fakeForeground) Events() <-chan domain.ForegroundEvent { return f.ch }

func (f *fakeForeground) Run(ctx context.Context) error {
	<-ctx.Done()
	close(f.ch)
	return ctx.Err()
}

type fakeAudio struct{}

func (fakeAudio) AlarmVolume() (int, error)              { return 50, nil }
func (fakeAudio) SetAlarmVolume(int) error               { return nil }
func (fakeAudio) PlayClip(context.Context, string) error { return nil }

func newTestAgent() (*Agent, *fakeForeground, *infra.ChannelCommandSource, domain.Shield) {
	logger := zap.NewNop()
	store := &memStore{cfg: domain.TrackingConfig{
		BaseLocationMs:  3_600_000,
		BoostLocationMs: 3_600_000,
		BaseBatteryMs:   3_600_000,
		BoostBatteryMs:  3_600_000,
	}}
	store.id = &domain.DeviceIdentity{ChildID: 7, DeviceID: "dev-1"}

	engine := policy.NewEngine(policy.DefaultWhitelist(nil))
	shield := infra.NewOverlayShield(logger)
	session := usecase.NewBlockSession(engine, shield, logger)
	session.SetShieldMessage("School mode")
	monitor := usecase.NewForegroundMonitor(engine, session, shield, logger)
	trackingSvc := tracking.NewService(store, nilPosition{}, fixedBattery{}, nopSync{}, nopSync{}, nil, logger)
	siren := command.NewSiren(fakeAudio{}, "siren.ogg", logger)
	dispatcher := command.NewDispatcher(store, trackingSvc, siren, logger)

	fg := &fakeForeground{ch: make(chan domain.ForegroundEvent, 4)}
	cmds := infra.NewChannelCommandSource()

	agent := New(engine, session, monitor, trackingSvc, dispatcher, fg, cmds, logger)
	return agent, fg, cmds, shield
}

func TestAgent_RunHandlesEventsAndCommands(t *testing.T) {
	agent, fg, cmds, shield := newTestAgent()
	agent.Engine.SetBlockingEnabled(true)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- agent.Run(ctx) }()

	// Tracking comes up in the base profile.
	require.Eventually(t, func() bool {
		return agent.Tracking.Profile() == domain.ProfileBase
	}, time.Second, time.Millisecond)

	// Blocked foreground app raises the shield.
	fg.ch <- domain.ForegroundEvent{Package: "com.example.game", At: time.Now()}
	require.Eventually(t, shield.IsShowing, time.Second, time.Millisecond)

	// Whitelisted app lowers it again.
	fg.ch <- domain.ForegroundEvent{Package: "com.android.dialer", At: time.Now()}
	require.Eventually(t, func() bool { return !shield.IsShowing() }, time.Second, time.Millisecond)

	// Remote boost command switches the profile.
	cmds.Publish(domain.CommandEnvelope{"type": "START_LOCATION_SYNC"})
	require.Eventually(t, func() bool {
		return agent.Tracking.Profile() == domain.ProfileBoost
	}, time.Second, time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("agent did not stop on cancellation")
	}
	assert.False(t, agent.Tracking.Running(), "tracking released on shutdown")
}

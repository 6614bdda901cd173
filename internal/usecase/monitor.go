package usecase

import (
	"time"

	"go.uber.org/zap"

	"github.com/kidcan/agent/internal/domain"
	"github.com/kidcan/agent/internal/policy"
)

// ForegroundMonitor reacts to foreground-app-change events: it queries
// the policy engine and toggles the shield. It keeps no state of its own
// and does no debouncing; every event is answered with the engine's
// current decision.
type ForegroundMonitor struct {
	engine  *policy.Engine
	session *BlockSession
	shield  domain.Shield
	logger  *zap.Logger
}

// NewForegroundMonitor creates a monitor.
func NewForegroundMonitor(
	engine *policy.Engine,
	session *BlockSession,
	shield domain.Shield,
	logger *zap.Logger,
) *ForegroundMonitor {
	return &ForegroundMonitor{
		engine:  engine,
		session: session,
		shield:  shield,
		logger:  logger,
	}
}

// HandleEvent processes one foreground change. Events without a package
// identifier are ignored.
func (m *ForegroundMonitor) HandleEvent(ev domain.ForegroundEvent) {
	if ev.Package == "" {
		return
	}

	now := ev.At
	if now.IsZero() {
		now = time.Now()
	}

	if m.engine.IsWhitelisted(ev.Package) || m.engine.IsAlwaysAllowed(ev.Package) {
		m.shield.Hide()
		return
	}

	if m.engine.ShouldBlock(ev.Package, now) {
		if err := m.shield.Show(m.session.ShieldMessage()); err != nil {
			// Capability errors (e.g. no overlay permission) stay with
			// this event; the monitor keeps running.
			m.logger.Warn("failed to show shield",
				zap.String("package", ev.Package),
				zap.Error(err))
		}
		return
	}

	m.shield.Hide()
}

package infra

import (
	"sync"

	"go.uber.org/zap"

	"github.com/kidcan/agent/internal/domain"
)

// OverlayShield implements domain.Shield. It tracks shield state and
// logs transitions; the actual overlay rendering is delegated to
// whatever UI layer consumes IsShowing and the reason text.
type OverlayShield struct {
	mu      sync.Mutex
	showing bool
	reason  string
	logger  *zap.Logger
}

// NewOverlayShield creates a hidden shield.
func NewOverlayShield(logger *zap.Logger) *OverlayShield {
	return &OverlayShield{logger: logger}
}

// Show displays the shield with the given reason. Calling Show while
// already showing just refreshes the reason (countdown updates).
func (s *OverlayShield) Show(reason string) error {
	s.mu.Lock()
	wasShowing := s.showing
	s.showing = true
	s.reason = reason
	s.mu.Unlock()

	if !wasShowing {
		s.logger.Info("shield shown", zap.String("reason", reason))
	}
	return nil
}

// Hide removes the shield. Safe to call when not showing.
func (s *OverlayShield) Hide() {
	s.mu.Lock()
	wasShowing := s.showing
	s.showing = false
	s.reason = ""
	s.mu.Unlock()

	if wasShowing {
		s.logger.Info("shield hidden")
	}
}

// IsShowing reports whether the shield is displayed.
func (s *OverlayShield) IsShowing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.showing
}

// Reason returns the current shield text, empty when hidden.
func (s *OverlayShield) Reason() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reason
}

var _ domain.Shield = (*OverlayShield)(nil)

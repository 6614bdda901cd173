package tracking

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/kidcan/agent/internal/domain"
)

// oneShotFixTimeout bounds the wait for an active position fix before the
// cached fallbacks are consulted.
const oneShotFixTimeout = 10 * time.Second

// legacyProviders is the fixed fallback priority order: precise fix
// first, then network-derived, then passive/cached.
var legacyProviders = []string{"gps", "network", "passive"}

// resolvePosition walks the three-stage fallback, first success wins:
// a bounded one-shot fix, the platform's last-known position, then the
// legacy providers in priority order. Returns nil when every stage comes
// up empty.
func (s *Service) resolvePosition(ctx context.Context) *domain.Position {
	fixCtx, cancel := context.WithTimeout(ctx, oneShotFixTimeout)
	defer cancel()

	pos, err := s.position.CurrentPosition(fixCtx)
	if err != nil {
		s.logger.Warn("one-shot position fix failed", zap.Error(err))
	}
	if pos != nil {
		return pos
	}

	pos, err = s.position.LastKnownPosition()
	if err != nil {
		s.logger.Warn("last-known position lookup failed", zap.Error(err))
	}
	if pos != nil {
		return pos
	}

	for _, provider := range legacyProviders {
		pos, err = s.position.LegacyProviderPosition(provider)
		if err != nil {
			s.logger.Warn("legacy provider lookup failed",
				zap.String("provider", provider),
				zap.Error(err))
			continue
		}
		if pos != nil {
			return pos
		}
	}

	return nil
}

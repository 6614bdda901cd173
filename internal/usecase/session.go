// Package usecase contains application business logic: the timed block
// session and the foreground monitor.
package usecase

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kidcan/agent/internal/domain"
	"github.com/kidcan/agent/internal/policy"
)

const countdownTick = time.Second

// BlockSession layers a countdown-based manual block on top of the policy
// engine. At most one session is active at a time; starting a new one
// cancels the previous countdown first.
type BlockSession struct {
	engine *policy.Engine
	shield domain.Shield
	logger *zap.Logger

	mu         sync.Mutex
	baseMsg    string
	endAt      time.Time
	ticker     *time.Ticker
	done       chan struct{}
	generation uint64 // bumped on every start/cancel; stale ticks check it
}

// NewBlockSession creates an inactive session.
func NewBlockSession(engine *policy.Engine, shield domain.Shield, logger *zap.Logger) *BlockSession {
	return &BlockSession{
		engine:  engine,
		shield:  shield,
		logger:  logger,
		baseMsg: "Focus time",
	}
}

// SetShieldMessage sets the base text shown on the shield.
func (s *BlockSession) SetShieldMessage(msg string) {
	s.mu.Lock()
	s.baseMsg = msg
	s.mu.Unlock()
}

// ShieldMessage returns the base shield text.
func (s *BlockSession) ShieldMessage() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.baseMsg
}

// Active reports whether a countdown is running.
func (s *BlockSession) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ticker != nil
}

// Remaining returns the time left in the current session, zero when none
// is active.
func (s *BlockSession) Remaining() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ticker == nil {
		return 0
	}
	left := time.Until(s.endAt)
	if left < 0 {
		return 0
	}
	return left
}

// BlockForDuration cancels any existing countdown, enables manual
// blocking and starts a fresh 1-second countdown that expires after the
// given number of minutes. Each tick refreshes an mm:ss countdown
// appended to the base shield message; on expiry manual blocking is
// disabled and the shield hidden.
func (s *BlockSession) BlockForDuration(minutes int, message string) {
	if minutes <= 0 {
		return
	}

	s.mu.Lock()
	s.stopLocked()
	if message != "" {
		s.baseMsg = message
	}
	endAt := time.Now().Add(time.Duration(minutes) * time.Minute)
	s.endAt = endAt
	s.ticker = time.NewTicker(countdownTick)
	s.done = make(chan struct{})
	s.generation++
	gen := s.generation
	ticker, done := s.ticker, s.done
	s.mu.Unlock()

	s.engine.SetBlockingEnabled(true)
	s.logger.Info("block session started",
		zap.Int("minutes", minutes),
		zap.Time("end_at", endAt))

	go s.run(gen, ticker, done)
}

// run is the countdown loop. It terminates on natural expiry or when the
// done channel closes; a cancel bumps the generation before closing done,
// so a tick already in flight can never resurrect the session.
func (s *BlockSession) run(gen uint64, ticker *time.Ticker, done chan struct{}) {
	for {
		select {
		case <-done:
			return
		case now := <-ticker.C:
			if s.tick(gen, now) {
				return
			}
		}
	}
}

// tick handles one countdown beat. Returns true when the loop must stop.
func (s *BlockSession) tick(gen uint64, now time.Time) bool {
	s.mu.Lock()
	if gen != s.generation {
		// Cancelled (or restarted) while this tick was in flight.
		s.mu.Unlock()
		return true
	}

	left := s.endAt.Sub(now)
	if left <= 0 {
		s.stopLocked()
		s.mu.Unlock()

		s.engine.SetBlockingEnabled(false)
		s.shield.Hide()
		s.logger.Info("block session expired")
		return true
	}

	text := countdownText(s.baseMsg, left)
	showing := s.shield.IsShowing()
	s.mu.Unlock()

	if showing {
		if err := s.shield.Show(text); err != nil {
			s.logger.Warn("failed to refresh shield countdown", zap.Error(err))
		}
	}
	return false
}

// CancelBlock stops any countdown, disables manual blocking and hides the
// shield. Calling it with no active session is a no-op, not an error.
func (s *BlockSession) CancelBlock() {
	s.mu.Lock()
	s.stopLocked()
	s.mu.Unlock()

	s.engine.SetBlockingEnabled(false)
	s.shield.Hide()
}

// stopLocked invalidates the running countdown. Caller holds s.mu.
func (s *BlockSession) stopLocked() {
	s.generation++
	if s.ticker != nil {
		s.ticker.Stop()
		s.ticker = nil
	}
	if s.done != nil {
		close(s.done)
		s.done = nil
	}
}

// countdownText appends an mm:ss remainder to the base message.
func countdownText(base string, left time.Duration) string {
	totalSec := int(left / time.Second)
	return fmt.Sprintf("%s\n%02d:%02d", base, totalSec/60, totalSec%60)
}

// Package policy implements the block/allow decision engine.
// Given a package identifier and a timestamp it decides whether the
// foreground app must be shielded. Decisions are pure recomputations over
// the currently committed state; nothing here is persisted.
package policy

import (
	"sync"
	"time"

	"github.com/kidcan/agent/internal/domain"
)

// alwaysAllow is the fixed system-exempt set. These packages are never
// blocked no matter what the schedule or manual flag says.
var alwaysAllow = map[string]struct{}{
	"com.android.systemui": {},
	"com.android.settings": {},
}

// Engine holds the in-memory policy state for the process lifetime.
// State is re-derived to defaults at startup, then mutated by local
// toggles and remote commands. Safe for concurrent use; a mutation
// mid-query follows last-write-wins, no atomic snapshot is promised.
type Engine struct {
	mu        sync.RWMutex
	manual    bool
	windows   []domain.TimeWindow
	whitelist map[string]struct{}
	snoozeAt  time.Time // zero value = no snooze
}

// NewEngine creates an engine with manual blocking off, no schedule and
// the given initial whitelist.
func NewEngine(whitelist []string) *Engine {
	e := &Engine{whitelist: make(map[string]struct{}, len(whitelist))}
	for _, pkg := range whitelist {
		e.whitelist[pkg] = struct{}{}
	}
	return e
}

// SetBlockingEnabled sets the manual blocking flag.
func (e *Engine) SetBlockingEnabled(enabled bool) {
	e.mu.Lock()
	e.manual = enabled
	e.mu.Unlock()
}

// BlockingEnabled returns the manual flag.
func (e *Engine) BlockingEnabled() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.manual
}

// SetSchedule atomically replaces the whole window list. Windows are
// immutable once constructed; the list is never patched in place.
func (e *Engine) SetSchedule(windows []domain.TimeWindow) {
	copied := make([]domain.TimeWindow, len(windows))
	copy(copied, windows)
	e.mu.Lock()
	e.windows = copied
	e.mu.Unlock()
}

// SetWhitelist atomically replaces the whitelist.
func (e *Engine) SetWhitelist(pkgs []string) {
	set := make(map[string]struct{}, len(pkgs))
	for _, pkg := range pkgs {
		set[pkg] = struct{}{}
	}
	e.mu.Lock()
	e.whitelist = set
	e.mu.Unlock()
}

// Snooze forces "allow" for every package until now+d. A new snooze
// overwrites any prior deadline; deadlines do not stack.
func (e *Engine) Snooze(d time.Duration) {
	e.mu.Lock()
	e.snoozeAt = time.Now().Add(d)
	e.mu.Unlock()
}

// IsWhitelisted reports whitelist membership.
func (e *Engine) IsWhitelisted(pkg string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, ok := e.whitelist[pkg]
	return ok
}

// IsAlwaysAllowed reports membership in the fixed system-exempt set.
func (e *Engine) IsAlwaysAllowed(pkg string) bool {
	_, ok := alwaysAllow[pkg]
	return ok
}

// ShouldBlock decides block/allow for pkg at the given instant.
// Evaluation order: snooze overrides everything, then blocking must be
// effective (manual OR inside any schedule window, ends inclusive), then
// allow-listed packages pass, everything else is blocked.
func (e *Engine) ShouldBlock(pkg string, now time.Time) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if now.Before(e.snoozeAt) {
		return false
	}

	effective := e.manual || inAnyWindow(e.windows, now)
	if !effective {
		return false
	}

	if _, ok := e.whitelist[pkg]; ok {
		return false
	}
	if _, ok := alwaysAllow[pkg]; ok {
		return false
	}

	return true
}

func inAnyWindow(windows []domain.TimeWindow, now time.Time) bool {
	for _, w := range windows {
		if w.Contains(now) {
			return true
		}
	}
	return false
}

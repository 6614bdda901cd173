// Package domain contains core business entities and interfaces.
// This is the innermost layer in Clean Architecture - no external dependencies.
package domain

import "time"

// TimeWindow is one schedule slot during which blocking is active.
// Day-of-week uses the Monday=1..Sunday=7 convention regardless of host
// locale. Invariant: StartMinute <= EndMinute, both inclusive.
type TimeWindow struct {
	DayOfWeek   int // 1=Mon .. 7=Sun
	StartMinute int // minutes from midnight
	EndMinute   int
}

// Contains reports whether t falls inside the window.
func (w TimeWindow) Contains(t time.Time) bool {
	if w.DayOfWeek != ISOWeekday(t) {
		return false
	}
	m := t.Hour()*60 + t.Minute()
	return m >= w.StartMinute && m <= w.EndMinute
}

// ISOWeekday converts time.Weekday (Sunday=0) to Monday=1..Sunday=7.
func ISOWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

// TrackingConfig holds the four polling intervals, in milliseconds.
// Persisted in the config store and overwritten wholesale on update.
type TrackingConfig struct {
	BaseLocationMs  int64
	BoostLocationMs int64
	BaseBatteryMs   int64
	BoostBatteryMs  int64
}

// Default tracking intervals, applied when no config has been persisted
// and as per-field fallbacks when a remote config update omits a field.
const (
	DefaultBaseLocationMs  int64 = 300_000   // 5 min
	DefaultBoostLocationMs int64 = 60_000    // 1 min
	DefaultBaseBatteryMs   int64 = 1_800_000 // 30 min
	DefaultBoostBatteryMs  int64 = 300_000   // 5 min
)

// DefaultTrackingConfig returns the built-in interval set.
func DefaultTrackingConfig() TrackingConfig {
	return TrackingConfig{
		BaseLocationMs:  DefaultBaseLocationMs,
		BoostLocationMs: DefaultBoostLocationMs,
		BaseBatteryMs:   DefaultBaseBatteryMs,
		BoostBatteryMs:  DefaultBoostBatteryMs,
	}
}

// DeviceIdentity pairs this device with a child account.
// Written once during pairing, read by the tracking loops.
type DeviceIdentity struct {
	ChildID  int
	DeviceID string
}

// Position is a geographic fix from any provider.
type Position struct {
	Lat float64
	Lng float64
}

// TrackingProfile names one of the two interval sets applied together
// to the location and battery loops.
type TrackingProfile string

const (
	ProfileBase  TrackingProfile = "base"
	ProfileBoost TrackingProfile = "boost"
)

// Intervals returns the (location, battery) intervals for the profile.
func (p TrackingProfile) Intervals(cfg TrackingConfig) (location, battery time.Duration) {
	if p == ProfileBoost {
		return time.Duration(cfg.BoostLocationMs) * time.Millisecond,
			time.Duration(cfg.BoostBatteryMs) * time.Millisecond
	}
	return time.Duration(cfg.BaseLocationMs) * time.Millisecond,
		time.Duration(cfg.BaseBatteryMs) * time.Millisecond
}

// ForegroundEvent is one foreground-app-change notification from the OS.
// Package may be empty when the OS could not attribute the change.
type ForegroundEvent struct {
	Package string
	At      time.Time
}

// CommandEnvelope is a push-delivered key/value command payload.
type CommandEnvelope map[string]string

// Remote command types the dispatcher understands.
const (
	CmdRemoteSiren          = "REMOTE_SIREN"
	CmdStartBatterySync     = "START_BATTERY_SYNC"
	CmdStopBatterySync      = "STOP_BATTERY_SYNC"
	CmdStartLocationSync    = "START_LOCATION_SYNC"
	CmdStopLocationSync     = "STOP_LOCATION_SYNC"
	CmdUpdateTrackingConfig = "UPDATE_TRACKING_CONFIG"
)

// Type extracts the command type, accepting both alias keys.
func (e CommandEnvelope) Type() string {
	if v, ok := e["type"]; ok && v != "" {
		return v
	}
	return e["commandType"]
}

// ID extracts the informational command id, accepting both alias keys.
// Used for logging only; duplicates are tolerated because every command
// is idempotent.
func (e CommandEnvelope) ID() string {
	if v, ok := e["command_id"]; ok && v != "" {
		return v
	}
	return e["id"]
}

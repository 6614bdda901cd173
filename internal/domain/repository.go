package domain

import "context"

// ConfigStore is the durable key-value store for tracking intervals and
// device identity. Both must survive process restart.
// Implementation: SQLCipher encrypted SQLite database.
type ConfigStore interface {
	// TrackingConfig returns the persisted intervals, or the defaults
	// when nothing has been persisted yet.
	TrackingConfig() (TrackingConfig, error)

	// SaveTrackingConfig overwrites the persisted intervals wholesale.
	SaveTrackingConfig(cfg TrackingConfig) error

	// Identity returns the paired identity, or (nil, nil) when the
	// device has not been paired.
	Identity() (*DeviceIdentity, error)

	// SaveIdentity persists the child/device pair.
	SaveIdentity(id DeviceIdentity) error

	// Close releases the underlying database connection.
	Close() error
}

// PositionProvider yields the device position using the three-stage
// fallback: bounded one-shot fix, platform last-known fix, then legacy
// providers in priority order. A (nil, nil) return means no position is
// available; the caller skips the tick.
type PositionProvider interface {
	// CurrentPosition attempts a one-shot fix at balanced accuracy.
	// The wait is bounded by ctx; a timeout is not an error here, it
	// simply yields nil.
	CurrentPosition(ctx context.Context) (*Position, error)

	// LastKnownPosition returns the platform's cached fix, if any.
	LastKnownPosition() (*Position, error)

	// LegacyProviderPosition returns the freshest cached fix from the
	// named legacy provider ("gps", "network", "passive"), if any.
	LegacyProviderPosition(provider string) (*Position, error)
}

// BatteryReader reads the current battery charge percentage.
type BatteryReader interface {
	// BatteryPercent returns the current charge in [0, 100].
	BatteryPercent() (int, error)
}

// Shield is the blocking overlay shown when the foreground app must be
// blocked. The renderer itself is out of scope; implementations record
// state and hand the reason text to whatever draws it.
type Shield interface {
	// Show displays the shield with the given reason text. Updating the
	// reason while showing is allowed (countdown refresh).
	Show(reason string) error

	// Hide removes the shield. Safe to call when not showing.
	Hide()

	// IsShowing reports whether the shield is currently displayed.
	IsShowing() bool
}

// ForegroundSource delivers foreground-app-change events.
// Implementation: gopsutil-based frontmost-process poller; the OS
// accessibility feed plugs in behind the same channel.
type ForegroundSource interface {
	// Events returns the channel of change notifications. Closed when
	// the source stops.
	Events() <-chan ForegroundEvent

	// Run feeds the channel until ctx is cancelled.
	Run(ctx context.Context) error
}

// CommandSource delivers push-distributed command envelopes.
type CommandSource interface {
	// Envelopes returns the channel of inbound commands.
	Envelopes() <-chan CommandEnvelope
}

// LocationSyncClient forwards one location sample upstream.
// Fire-and-forget: failures are logged by the implementation and never
// surfaced to the tracking loop.
type LocationSyncClient interface {
	SendLocation(ctx context.Context, id DeviceIdentity, pos Position)
}

// BatterySyncClient forwards one battery sample upstream.
// Same fire-and-forget contract as LocationSyncClient.
type BatterySyncClient interface {
	SendBattery(ctx context.Context, id DeviceIdentity, percent int)
}

// AudioController drives the alarm-class audio output for the siren.
type AudioController interface {
	// AlarmVolume returns the current alarm-stream volume percentage.
	AlarmVolume() (int, error)

	// SetAlarmVolume sets the alarm-stream volume percentage.
	SetAlarmVolume(percent int) error

	// PlayClip plays the named clip once, blocking until playback
	// finishes or ctx is cancelled.
	PlayClip(ctx context.Context, clip string) error
}

// WakeClaim is a persistent-execution claim keeping the host from
// suspending the tracking loops. Release is idempotent.
type WakeClaim interface {
	Acquire() error
	Release()
}

// DefaultAppsProvider reports the platform's default communication apps,
// used to seed the policy whitelist. Empty strings mean unknown.
type DefaultAppsProvider interface {
	DefaultDialerPackage() string
	DefaultSMSPackage() string
}

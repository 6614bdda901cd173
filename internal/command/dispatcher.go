// Package command implements the remote command dispatcher. Commands
// arrive as push-delivered key/value envelopes and drive the policy
// engine collaborators, the tracking service and the config store.
package command

import (
	"context"
	"strconv"

	"go.uber.org/zap"

	"github.com/kidcan/agent/internal/domain"
)

// TrackingController is the slice of the tracking service the dispatcher
// needs: profile switches only - STOP_* commands drop back to the base
// profile, they never fully stop telemetry.
type TrackingController interface {
	StartBase()
	StartBoost()
}

// Dispatcher routes inbound command envelopes. Every command is
// idempotent, so duplicate deliveries are tolerated; the command id is
// logged and nothing more.
type Dispatcher struct {
	store    domain.ConfigStore
	tracking TrackingController
	siren    *Siren
	logger   *zap.Logger
}

// NewDispatcher creates a dispatcher.
func NewDispatcher(store domain.ConfigStore, tracking TrackingController, siren *Siren, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		store:    store,
		tracking: tracking,
		siren:    siren,
		logger:   logger,
	}
}

// Handle processes one envelope. Malformed or unrecognized commands are
// logged and dropped; nothing here returns an error to the push channel.
func (d *Dispatcher) Handle(ctx context.Context, env domain.CommandEnvelope) {
	cmdType := env.Type()
	if cmdType == "" {
		d.logger.Warn("command envelope without type, ignoring")
		return
	}

	logger := d.logger.With(zap.String("command", cmdType))
	if id := env.ID(); id != "" {
		logger = logger.With(zap.String("command_id", id))
	}

	switch cmdType {
	case domain.CmdRemoteSiren:
		logger.Info("executing remote siren")
		d.siren.Play(ctx)

	case domain.CmdStartBatterySync, domain.CmdStartLocationSync:
		logger.Info("switching tracking to boost profile")
		d.tracking.StartBoost()

	case domain.CmdStopBatterySync, domain.CmdStopLocationSync:
		// Back to base cadence; telemetry keeps flowing.
		logger.Info("switching tracking to base profile")
		d.tracking.StartBase()

	case domain.CmdUpdateTrackingConfig:
		d.handleConfigUpdate(env, logger)

	default:
		logger.Warn("unknown command type, ignoring")
	}
}

// handleConfigUpdate validates the target child, persists the new
// interval set wholesale and restarts tracking in the base profile.
// A mismatched or missing local identity drops the command silently:
// that is a security boundary, not a bug path.
func (d *Dispatcher) handleConfigUpdate(env domain.CommandEnvelope, logger *zap.Logger) {
	childStr := env["childId"]
	if childStr == "" {
		childStr = env["child_id"]
	}
	if childStr == "" {
		logger.Warn("config update without childId, dropping")
		return
	}

	remoteChildID, err := strconv.Atoi(childStr)
	if err != nil {
		logger.Warn("config update with unparsable childId, dropping",
			zap.String("child_id", childStr))
		return
	}

	localID, err := d.store.Identity()
	if err != nil {
		logger.Warn("failed to read local identity", zap.Error(err))
		return
	}
	if localID == nil {
		logger.Debug("device not paired, dropping config update")
		return
	}
	if localID.ChildID != remoteChildID {
		logger.Debug("config update targets another child, dropping",
			zap.Int("remote_child_id", remoteChildID),
			zap.Int("local_child_id", localID.ChildID))
		return
	}

	cfg := domain.TrackingConfig{
		BaseLocationMs:  intervalField(env, "base_location_ms", domain.DefaultBaseLocationMs),
		BoostLocationMs: intervalField(env, "boost_location_ms", domain.DefaultBoostLocationMs),
		BaseBatteryMs:   intervalField(env, "base_battery_ms", domain.DefaultBaseBatteryMs),
		BoostBatteryMs:  intervalField(env, "boost_battery_ms", domain.DefaultBoostBatteryMs),
	}

	if err := d.store.SaveTrackingConfig(cfg); err != nil {
		logger.Error("failed to persist tracking config", zap.Error(err))
		return
	}

	logger.Info("tracking config updated",
		zap.Int64("base_location_ms", cfg.BaseLocationMs),
		zap.Int64("boost_location_ms", cfg.BoostLocationMs),
		zap.Int64("base_battery_ms", cfg.BaseBatteryMs),
		zap.Int64("boost_battery_ms", cfg.BoostBatteryMs))

	// New intervals take effect via a base-profile restart.
	d.tracking.StartBase()
}

// intervalField parses one optional interval, falling back to its own
// default when the field is missing, unparsable or non-positive.
func intervalField(env domain.CommandEnvelope, key string, def int64) int64 {
	v, ok := env[key]
	if !ok || v == "" {
		return def
	}
	ms, err := strconv.ParseInt(v, 10, 64)
	if err != nil || ms <= 0 {
		return def
	}
	return ms
}

// Package daemon wires the agent together and runs its event loop.
package daemon

import (
	"context"

	"go.uber.org/zap"

	"github.com/kidcan/agent/internal/command"
	"github.com/kidcan/agent/internal/domain"
	"github.com/kidcan/agent/internal/policy"
	"github.com/kidcan/agent/internal/tracking"
	"github.com/kidcan/agent/internal/usecase"
)

// Agent is the explicitly constructed context object holding every
// collaborator. Created once at service startup and passed by reference;
// there are no package-level singletons.
type Agent struct {
	Engine     *policy.Engine
	Session    *usecase.BlockSession
	Monitor    *usecase.ForegroundMonitor
	Tracking   *tracking.Service
	Dispatcher *command.Dispatcher

	foreground domain.ForegroundSource
	commands   domain.CommandSource
	logger     *zap.Logger
}

// New assembles an agent from its collaborators.
func New(
	engine *policy.Engine,
	session *usecase.BlockSession,
	monitor *usecase.ForegroundMonitor,
	trackingSvc *tracking.Service,
	dispatcher *command.Dispatcher,
	foreground domain.ForegroundSource,
	commands domain.CommandSource,
	logger *zap.Logger,
) *Agent {
	return &Agent{
		Engine:     engine,
		Session:    session,
		Monitor:    monitor,
		Tracking:   trackingSvc,
		Dispatcher: dispatcher,
		foreground: foreground,
		commands:   commands,
		logger:     logger,
	}
}

// Run starts tracking in the base profile and serves foreground events
// and remote commands until ctx is cancelled. Event handling is
// synchronous and never blocks the tracking loops, which run on their
// own goroutines inside the tracking service.
func (a *Agent) Run(ctx context.Context) error {
	a.logger.Info("agent starting")

	go func() {
		if err := a.foreground.Run(ctx); err != nil && ctx.Err() == nil {
			a.logger.Error("foreground source stopped", zap.Error(err))
		}
	}()

	a.Tracking.StartBase()
	defer a.Tracking.Stop()
	defer a.Session.CancelBlock()

	events := a.foreground.Events()
	envelopes := a.commands.Envelopes()

	for {
		select {
		case <-ctx.Done():
			a.logger.Info("agent stopping")
			return ctx.Err()

		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			a.Monitor.HandleEvent(ev)

		case env, ok := <-envelopes:
			if !ok {
				envelopes = nil
				continue
			}
			a.Dispatcher.Handle(ctx, env)
		}
	}
}

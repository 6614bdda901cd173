package infra

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"

	"github.com/kidcan/agent/internal/domain"
)

// CommandRunner abstracts command execution for testing.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) error
	Output(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecCommandRunner executes real system commands.
type ExecCommandRunner struct{}

// Run executes a command and waits for it to complete.
func (ExecCommandRunner) Run(ctx context.Context, name string, args ...string) error {
	return exec.CommandContext(ctx, name, args...).Run()
}

// Output executes a command and returns its stdout.
func (ExecCommandRunner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

var volumeRe = regexp.MustCompile(`\[(\d+)%\]`)

// AmixerAudioController implements domain.AudioController by shelling
// out to amixer for volume control and paplay for clip playback.
type AmixerAudioController struct {
	runner CommandRunner
}

// NewAmixerAudioController creates a controller with the given runner.
func NewAmixerAudioController(runner CommandRunner) *AmixerAudioController {
	return &AmixerAudioController{runner: runner}
}

// AlarmVolume reads the current Master volume percentage.
func (a *AmixerAudioController) AlarmVolume() (int, error) {
	out, err := a.runner.Output(context.Background(), "amixer", "get", "Master")
	if err != nil {
		return 0, fmt.Errorf("failed to read mixer volume: %w", err)
	}
	m := volumeRe.FindSubmatch(out)
	if m == nil {
		return 0, fmt.Errorf("no volume level in mixer output")
	}
	percent, err := strconv.Atoi(string(m[1]))
	if err != nil {
		return 0, fmt.Errorf("unparsable mixer volume: %w", err)
	}
	return percent, nil
}

// SetAlarmVolume sets the Master volume percentage.
func (a *AmixerAudioController) SetAlarmVolume(percent int) error {
	arg := strconv.Itoa(percent) + "%"
	if err := a.runner.Run(context.Background(), "amixer", "set", "Master", arg); err != nil {
		return fmt.Errorf("failed to set mixer volume: %w", err)
	}
	return nil
}

// PlayClip plays the clip once, blocking until playback finishes or ctx
// is cancelled.
func (a *AmixerAudioController) PlayClip(ctx context.Context, clip string) error {
	if err := a.runner.Run(ctx, "paplay", clip); err != nil {
		return fmt.Errorf("failed to play clip %s: %w", clip, err)
	}
	return nil
}

var _ domain.AudioController = (*AmixerAudioController)(nil)

package command

import (
	"context"

	"go.uber.org/zap"

	"github.com/kidcan/agent/internal/domain"
)

// maxAlarmVolume is the alarm-stream ceiling, in percent.
const maxAlarmVolume = 100

// Siren plays the remote alarm clip at maximum alarm volume and restores
// the prior volume when playback ends.
type Siren struct {
	audio  domain.AudioController
	clip   string
	logger *zap.Logger
}

// NewSiren creates a siren for the given clip.
func NewSiren(audio domain.AudioController, clip string, logger *zap.Logger) *Siren {
	return &Siren{audio: audio, clip: clip, logger: logger}
}

// Play raises the alarm volume to maximum, plays the clip once
// (non-looping) and restores the prior volume. Restoration runs on
// failure paths too; it is only skipped when the prior volume could not
// be read in the first place.
func (s *Siren) Play(ctx context.Context) {
	prior, err := s.audio.AlarmVolume()
	canRestore := err == nil
	if err != nil {
		s.logger.Warn("failed to read alarm volume, restore will be skipped", zap.Error(err))
	}

	if canRestore {
		defer func() {
			if err := s.audio.SetAlarmVolume(prior); err != nil {
				s.logger.Error("failed to restore alarm volume",
					zap.Int("volume", prior),
					zap.Error(err))
			}
		}()
	}

	if err := s.audio.SetAlarmVolume(maxAlarmVolume); err != nil {
		s.logger.Error("failed to raise alarm volume", zap.Error(err))
		return
	}

	if err := s.audio.PlayClip(ctx, s.clip); err != nil {
		s.logger.Error("siren playback failed", zap.Error(err))
	}
}

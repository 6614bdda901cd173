package infra

import "github.com/kidcan/agent/internal/domain"

// ChannelCommandSource implements domain.CommandSource as a buffered
// envelope channel. The push transport (FCM bridge, local socket, test
// harness) publishes into it; the agent consumes.
type ChannelCommandSource struct {
	ch chan domain.CommandEnvelope
}

// NewChannelCommandSource creates a source with a small buffer.
func NewChannelCommandSource() *ChannelCommandSource {
	return &ChannelCommandSource{ch: make(chan domain.CommandEnvelope, 16)}
}

// Envelopes returns the inbound command channel.
func (s *ChannelCommandSource) Envelopes() <-chan domain.CommandEnvelope {
	return s.ch
}

// Publish delivers one envelope. Drops when the agent is not draining,
// matching push semantics: commands are best-effort and idempotent.
func (s *ChannelCommandSource) Publish(env domain.CommandEnvelope) {
	select {
	case s.ch <- env:
	default:
	}
}

var _ domain.CommandSource = (*ChannelCommandSource)(nil)

package chat

import (
	"context"
	"fmt"
	"strings"
)

// Streamer starts a streamed completion for a full prompt.
type Streamer interface {
	Stream(ctx context.Context, messages []Message) (<-chan Chunk, error)
}

// Service prepares a user transcript for the assistant and relays the reply.
type Service struct {
	streamer Streamer
	snapshot Snapshot
}

func NewService(streamer Streamer, snapshot Snapshot) *Service {
	return &Service{streamer: streamer, snapshot: snapshot}
}

// Reply validates the transcript, prepends the system prompt plus any claims
// context for the latest user message and starts streaming.
func (s *Service) Reply(ctx context.Context, transcript []Message) (<-chan Chunk, error) {
	prompt, err := s.Prompt(transcript)
	if err != nil {
		return nil, err
	}
	return s.streamer.Stream(ctx, prompt)
}

// Prompt builds the message list sent upstream.
func (s *Service) Prompt(transcript []Message) ([]Message, error) {
	if len(transcript) == 0 {
		return nil, ErrEmptyTranscript
	}

	latest := ""
	for i, m := range transcript {
		switch m.Role {
		case RoleUser:
			latest = m.Content
		case RoleAssistant:
		default:
			return nil, fmt.Errorf("%w: messages[%d].role must be user or assistant", ErrInvalidMessage, i)
		}
		if strings.TrimSpace(m.Content) == "" {
			return nil, fmt.Errorf("%w: messages[%d].content is required", ErrInvalidMessage, i)
		}
	}

	prompt := make([]Message, 0, len(transcript)+2)
	prompt = append(prompt, Message{Role: RoleSystem, Content: systemPrompt})
	if extra := BuildContext(s.snapshot, latest); extra != "" {
		prompt = append(prompt, Message{Role: RoleSystem, Content: extra})
	}
	return append(prompt, transcript...), nil
}

package chat

import "errors"

var (
	ErrEmptyTranscript = errors.New("messages must be a non-empty array")
	ErrInvalidMessage  = errors.New("invalid chat message")
	ErrNotConfigured   = errors.New("chat assistant is not configured")
	ErrUpstream        = errors.New("chat completion upstream error")
)

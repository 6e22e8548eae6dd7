package chat

import (
	"errors"
	"io"
	"net/http"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"claimdesk/internal/pkg/metrics"
	"claimdesk/internal/pkg/response"
)

const (
	transportHTTP = "http"
	transportWS   = "ws"
)

// Request is the body of POST /chat and of every websocket frame a client sends.
type Request struct {
	Messages []Message `json:"messages"`
}

// Limiter decides whether a client IP may send another transcript.
type Limiter interface {
	Allow(ip string) bool
}

// Handler relays chat transcripts to the assistant.
type Handler struct {
	service  *Service
	upgrader websocket.Upgrader
	limiter  Limiter
}

// NewHandler builds the relay handler. limiter is consulted for every
// websocket frame; a nil limiter lets all frames through.
func NewHandler(service *Service, allowedOrigins []string, limiter Limiter) *Handler {
	return &Handler{service: service, upgrader: newUpgrader(allowedOrigins), limiter: limiter}
}

// Chat handles POST /api/v1/chat and streams the reply as chunked plain text.
func (h *Handler) Chat(c *gin.Context) {
	var req Request
	if err := c.ShouldBindJSON(&req); err != nil {
		metrics.RecordChatRequest(transportHTTP, "invalid")
		response.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	stream, err := h.service.Reply(c.Request.Context(), req.Messages)
	if err != nil {
		metrics.RecordChatRequest(transportHTTP, outcomeOf(err))
		writeError(c, err)
		return
	}

	c.Header("Content-Type", "text/plain; charset=utf-8")
	c.Header("Cache-Control", "no-cache")
	c.Header("X-Content-Type-Options", "nosniff")
	c.Status(http.StatusOK)

	outcome := "ok"
	for chunk := range stream {
		if chunk.Done {
			break
		}
		if chunk.Err != nil {
			outcome = "stream_error"
			log.WithError(chunk.Err).Warn("chat stream interrupted")
			break
		}
		if _, err := io.WriteString(c.Writer, chunk.Content); err != nil {
			outcome = "client_gone"
			break
		}
		c.Writer.Flush()
	}
	metrics.RecordChatRequest(transportHTTP, outcome)
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrEmptyTranscript), errors.Is(err, ErrInvalidMessage):
		response.Error(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
	case errors.Is(err, ErrNotConfigured):
		response.Error(c, http.StatusServiceUnavailable, "CHAT_UNAVAILABLE", err.Error())
	case errors.Is(err, ErrUpstream):
		log.WithError(err).Error("chat completion failed")
		response.Error(c, http.StatusBadGateway, "UPSTREAM_ERROR", "Chat assistant is unavailable")
	default:
		response.Internal(c, err)
	}
}

func outcomeOf(err error) string {
	switch {
	case errors.Is(err, ErrEmptyTranscript), errors.Is(err, ErrInvalidMessage):
		return "invalid"
	case errors.Is(err, ErrNotConfigured):
		return "unavailable"
	case errors.Is(err, ErrUpstream):
		return "upstream_error"
	}
	return "error"
}

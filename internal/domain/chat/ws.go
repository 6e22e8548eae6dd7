package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"claimdesk/internal/pkg/metrics"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMsgSize = 64 * 1024
)

// Frame is what the server sends over the websocket: reply text, an end
// marker, or an error.
type Frame struct {
	Content string `json:"content,omitempty"`
	Done    bool   `json:"done,omitempty"`
	Error   string `json:"error,omitempty"`
}

func newUpgrader(allowedOrigins []string) websocket.Upgrader {
	allowAll := len(allowedOrigins) == 0
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		if o == "*" {
			allowAll = true
		}
		allowed[strings.TrimRight(o, "/")] = true
	}

	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if allowAll || origin == "" {
				return true
			}
			if allowed[origin] {
				return true
			}
			u, err := url.Parse(origin)
			return err == nil && u.Host == r.Host
		},
	}
}

// wsSession serialises writes: the relay and the ping loop share one conn.
type wsSession struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (s *wsSession) write(f Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteJSON(f)
}

func (s *wsSession) ping() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

// WebSocket handles GET /api/v1/chat/ws. Each client frame is a Request; the
// reply streams back as content frames closed by a done or error frame.
func (h *Handler) WebSocket(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.WithError(err).Warn("chat websocket upgrade failed")
		return
	}

	ip := c.ClientIP()
	ctx, cancel := context.WithCancel(context.Background())
	session := &wsSession{conn: conn}
	defer func() {
		cancel()
		conn.Close()
	}()

	conn.SetReadLimit(maxMsgSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	go pingLoop(ctx, session)

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.WithError(err).Warn("chat websocket closed")
			}
			return
		}

		var req Request
		if err := json.Unmarshal(raw, &req); err != nil {
			metrics.RecordChatRequest(transportWS, "invalid")
			if session.write(Frame{Error: "Invalid request body"}) != nil {
				return
			}
			continue
		}

		if h.limiter != nil && !h.limiter.Allow(ip) {
			log.WithField("client_ip", ip).Warn("chat websocket rate limit exceeded")
			metrics.RecordChatRequest(transportWS, "rate_limited")
			if session.write(Frame{Error: "Rate limit exceeded"}) != nil {
				return
			}
			continue
		}

		if err := h.relay(ctx, session, req.Messages); err != nil {
			return
		}
		// Pongs are not read while a reply streams.
		conn.SetReadDeadline(time.Now().Add(pongWait))
	}
}

// relay streams one reply. It returns an error only when the socket itself failed.
func (h *Handler) relay(ctx context.Context, session *wsSession, messages []Message) error {
	stream, err := h.service.Reply(ctx, messages)
	if err != nil {
		metrics.RecordChatRequest(transportWS, outcomeOf(err))
		msg := err.Error()
		if outcomeOf(err) == "upstream_error" {
			log.WithError(err).Error("chat completion failed")
			msg = "Chat assistant is unavailable"
		}
		return session.write(Frame{Error: msg})
	}

	for chunk := range stream {
		switch {
		case chunk.Err != nil:
			log.WithError(chunk.Err).Warn("chat stream interrupted")
			metrics.RecordChatRequest(transportWS, "stream_error")
			return session.write(Frame{Error: "Chat stream interrupted"})
		case chunk.Done:
			metrics.RecordChatRequest(transportWS, "ok")
			return session.write(Frame{Done: true})
		default:
			if err := session.write(Frame{Content: chunk.Content}); err != nil {
				return err
			}
		}
	}
	metrics.RecordChatRequest(transportWS, "ok")
	return session.write(Frame{Done: true})
}

func pingLoop(ctx context.Context, session *wsSession) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := session.ping(); err != nil {
				return
			}
		}
	}
}

package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/goodpsyche/hopebot/backend/internal/middleware"
	"github.com/goodpsyche/hopebot/backend/internal/model/language"
)

const (
	defaultReadTimeout = 60 * time.Second
	writeTimeout       = 10 * time.Second
	pingInterval       = 54 * time.Second
)

// Frame types exchanged over /chat/ws.
const (
	frameMessage  = "message"
	frameConfig   = "config"
	frameResponse = "response"
	frameError    = "error"
)

type inboundFrame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type textPayload struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

type configPayload struct {
	Language string `json:"language"`
}

type outgoingFrame struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

type connectionState struct {
	userID   string
	language string
}

func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "user id is required", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	log := h.log.With().Str("user_id", userID).Logger()
	log.Info().Msg("websocket connected")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	_ = conn.SetReadDeadline(time.Now().Add(h.readTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(h.readTimeout))
	})

	go pingLoop(ctx, conn)

	state := &connectionState{
		userID:   userID,
		language: language.Default,
	}
	h.send(log, conn, frameConfig, configPayload{Language: state.language})

	for {
		var frame inboundFrame
		if err := conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Msg("websocket read failed")
			}
			return
		}

		h.handleFrame(ctx, log, conn, state, frame)

		// A turn may take several model calls; the idle timeout starts after it.
		_ = conn.SetReadDeadline(time.Now().Add(h.readTimeout))
	}
}

func (h *Handler) handleFrame(ctx context.Context, log zerolog.Logger, conn *websocket.Conn, state *connectionState, frame inboundFrame) {
	switch frame.Type {
	case frameMessage:
		var payload textPayload
		if err := json.Unmarshal(frame.Data, &payload); err != nil {
			h.sendError(log, conn, "invalid message payload")
			return
		}
		text, msg := validateMessage(payload.Text)
		if msg != "" {
			h.sendError(log, conn, msg)
			return
		}
		if h.limiter != nil && !h.limiter.Allow(state.userID) {
			h.sendError(log, conn, "rate limit exceeded")
			return
		}
		lang := state.language
		if payload.Language != "" {
			lang = language.Resolve(h.languages, payload.Language)
		}
		resp := h.responder.HandleUserMessage(ctx, state.userID, text, lang)
		h.send(log, conn, frameResponse, resp)

	case frameConfig:
		var payload configPayload
		if err := json.Unmarshal(frame.Data, &payload); err != nil {
			h.sendError(log, conn, "invalid config payload")
			return
		}
		h.applyConfig(state, payload)
		h.send(log, conn, frameConfig, configPayload{Language: state.language})

	default:
		h.sendError(log, conn, "unsupported message type: "+frame.Type)
	}
}

func (h *Handler) applyConfig(state *connectionState, cfg configPayload) {
	if cfg.Language != "" {
		state.language = language.Resolve(h.languages, cfg.Language)
	}
}

func (h *Handler) send(log zerolog.Logger, conn *websocket.Conn, frameType string, data interface{}) {
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	err := conn.WriteJSON(outgoingFrame{
		Type:      frameType,
		Data:      data,
		Timestamp: time.Now().Unix(),
	})
	if err != nil {
		log.Warn().Err(err).Str("type", frameType).Msg("websocket write failed")
	}
}

func (h *Handler) sendError(log zerolog.Logger, conn *websocket.Conn, message string) {
	h.send(log, conn, frameError, map[string]string{"message": message})
}

// pingLoop uses WriteControl, which may run concurrently with WriteJSON.
func pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				return
			}
		}
	}
}

package chat

import (
	"context"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/goodpsyche/hopebot/backend/internal/middleware"
	"github.com/goodpsyche/hopebot/backend/internal/model/chat"
	"github.com/goodpsyche/hopebot/backend/internal/model/language"
	"github.com/goodpsyche/hopebot/backend/pkg/utils"
)

// MaxMessageLength bounds a single user message, in characters.
const MaxMessageLength = 4000

// Responder answers one user message.
type Responder interface {
	HandleUserMessage(ctx context.Context, userID, userInput, language string) chat.BotResponse
}

// HistoryReader returns a user's conversation.
type HistoryReader interface {
	History(ctx context.Context, userID string) ([]chat.Message, error)
}

// Handler serves the chat endpoints.
type Handler struct {
	responder Responder
	history   HistoryReader
	languages language.Store
	limiter   *middleware.RateLimiter
	log       zerolog.Logger
	upgrader  websocket.Upgrader

	readTimeout time.Duration
}

// New creates the chat handler. A nil limiter disables per-user rate limiting.
func New(responder Responder, history HistoryReader, languages language.Store, limiter *middleware.RateLimiter, log zerolog.Logger) *Handler {
	return &Handler{
		responder:   responder,
		history:     history,
		languages:   languages,
		limiter:     limiter,
		log:         log.With().Str("component", "chat_handler").Logger(),
		readTimeout: defaultReadTimeout,
		upgrader: websocket.Upgrader{
			// Origins are checked by the CORS middleware.
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes mounts the chat routes under /chat. Callers must install middleware.RequireUser.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/chat", func(r chi.Router) {
		if h.limiter != nil {
			r.With(h.limiter.Middleware).Post("/messages", h.handleSendMessage)
		} else {
			r.Post("/messages", h.handleSendMessage)
		}
		r.Get("/history", h.handleHistory)
		// Each message frame is rate limited individually.
		r.Get("/ws", h.handleWebSocket)
	})
}

type sendMessageRequest struct {
	Message  string `json:"message"`
	Language string `json:"language"`
}

func (h *Handler) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "user id is required")
		return
	}

	var payload sendMessageRequest
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	text, msg := validateMessage(payload.Message)
	if msg != "" {
		utils.RespondError(w, http.StatusBadRequest, msg)
		return
	}

	resp := h.responder.HandleUserMessage(r.Context(), userID, text, language.Resolve(h.languages, payload.Language))
	utils.RespondJSON(w, http.StatusOK, resp)
}

// handleHistory mirrors the UI contract: a failing store yields an empty list.
func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "user id is required")
		return
	}

	messages, err := h.history.History(r.Context(), userID)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", userID).Msg("failed to load chat history")
		messages = nil
	}
	if messages == nil {
		messages = []chat.Message{}
	}
	utils.RespondJSON(w, http.StatusOK, messages)
}

// validateMessage returns the trimmed text, or a client error message.
func validateMessage(raw string) (string, string) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return "", "message is required"
	}
	if utf8.RuneCountInString(text) > MaxMessageLength {
		return "", "message is too long"
	}
	return text, ""
}

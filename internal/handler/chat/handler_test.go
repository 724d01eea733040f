package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goodpsyche/hopebot/backend/internal/middleware"
	"github.com/goodpsyche/hopebot/backend/internal/model/chat"
	"github.com/goodpsyche/hopebot/backend/internal/model/language"
	"github.com/goodpsyche/hopebot/backend/internal/service/companion"
	chatservice "github.com/goodpsyche/hopebot/backend/internal/service/chat"
	"github.com/goodpsyche/hopebot/backend/internal/store/memory"
)

type recordedCall struct {
	userID, input, language string
}

type stubResponder struct {
	mu    sync.Mutex
	calls []recordedCall
	resp  chat.BotResponse
}

func (s *stubResponder) HandleUserMessage(_ context.Context, userID, input, lang string) chat.BotResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, recordedCall{userID, input, lang})
	return s.resp
}

func (s *stubResponder) lastCall() recordedCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[len(s.calls)-1]
}

type failingHistory struct{}

func (failingHistory) History(context.Context, string) ([]chat.Message, error) {
	return nil, errors.New("store offline")
}

type slowResponder struct {
	delay time.Duration
}

func (s slowResponder) HandleUserMessage(context.Context, string, string, string) chat.BotResponse {
	time.Sleep(s.delay)
	return chat.BotResponse{Type: chat.ResponseBot, Response: "still here"}
}

func setupRouter(responder Responder, history HistoryReader) *chi.Mux {
	return mount(New(responder, history, language.NewMemoryStore(language.Seed()), nil, zerolog.Nop()))
}

func mount(h *Handler) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequireUser)
	h.RegisterRoutes(r)
	return r
}

func postMessage(t *testing.T, r http.Handler, user string, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/chat/messages", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set(middleware.UserIDHeader, user)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestSendMessageReturnsBotResponse(t *testing.T) {
	responder := &stubResponder{resp: chat.BotResponse{
		Type:     chat.ResponseBot,
		Response: "I'm here for you.",
		Recommendations: &chat.RecommendationSet{
			CalmingExercises: []string{"Take five slow breaths."},
			CBTPrompts:       []string{"What is one thing within your control?"},
		},
	}}
	r := setupRouter(responder, chatservice.NewService(memory.New()))

	rec := postMessage(t, r, "user-1", map[string]string{"message": "  I feel anxious  ", "language": "ta-IN"})
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "botResponse", body["type"])
	assert.Equal(t, "I'm here for you.", body["response"])
	recs, ok := body["recommendations"].(map[string]any)
	require.True(t, ok)
	assert.Len(t, recs["calmingExercises"], 1)
	assert.Len(t, recs["cbtPrompts"], 1)

	assert.Equal(t, recordedCall{"user-1", "I feel anxious", "Tamil"}, responder.lastCall())
}

func TestSendMessageEncodesNullRecommendations(t *testing.T) {
	responder := &stubResponder{resp: chat.BotResponse{Type: chat.ResponseCrisis, Response: "call 988"}}
	r := setupRouter(responder, chatservice.NewService(memory.New()))

	rec := postMessage(t, r, "user-1", map[string]string{"message": "hello"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"recommendations":null`)
	assert.Equal(t, language.Default, responder.lastCall().language)
}

func TestSendMessageValidation(t *testing.T) {
	r := setupRouter(&stubResponder{}, chatservice.NewService(memory.New()))

	cases := []struct {
		name   string
		user   string
		body   any
		status int
	}{
		{"missing user", "", map[string]string{"message": "hi"}, http.StatusUnauthorized},
		{"blank message", "user-1", map[string]string{"message": "   "}, http.StatusBadRequest},
		{"unknown field", "user-1", map[string]string{"text": "hi"}, http.StatusBadRequest},
		{"too long", "user-1", map[string]string{"message": strings.Repeat("a", MaxMessageLength+1)}, http.StatusBadRequest},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := postMessage(t, r, tc.user, tc.body)
			assert.Equal(t, tc.status, rec.Code)
		})
	}
}

func TestHistoryReturnsStoredPairsInOrder(t *testing.T) {
	chatSvc := chatservice.NewService(memory.New())
	ctx := context.Background()
	require.NoError(t, chatSvc.SaveExchange(ctx, "user-1", "first", "reply one"))
	require.NoError(t, chatSvc.SaveExchange(ctx, "user-1", "second", "reply two"))
	require.NoError(t, chatSvc.SaveExchange(ctx, "user-2", "other", "other reply"))

	r := setupRouter(&stubResponder{}, chatSvc)

	req := httptest.NewRequest(http.MethodGet, "/chat/history", nil)
	req.Header.Set(middleware.UserIDHeader, "user-1")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var messages []chat.Message
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &messages))
	require.Len(t, messages, 4)

	contents := []string{messages[0].Content, messages[1].Content, messages[2].Content, messages[3].Content}
	assert.Equal(t, []string{"first", "reply one", "second", "reply two"}, contents)
	assert.Equal(t, chat.RoleUser, messages[0].Role)
	assert.Equal(t, chat.RoleBot, messages[1].Role)
}

func TestHistoryEmptyAndFailingStore(t *testing.T) {
	for name, history := range map[string]HistoryReader{
		"empty":   chatservice.NewService(memory.New()),
		"failing": failingHistory{},
	} {
		t.Run(name, func(t *testing.T) {
			r := setupRouter(&stubResponder{}, history)

			req := httptest.NewRequest(http.MethodGet, "/chat/history", nil)
			req.Header.Set(middleware.UserIDHeader, "user-1")
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			require.Equal(t, http.StatusOK, rec.Code)
			assert.JSONEq(t, `[]`, rec.Body.String())
		})
	}
}

func dialWebSocket(t *testing.T, r http.Handler) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/chat/ws"
	header := http.Header{}
	header.Set(middleware.UserIDHeader, "ws-user")

	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var frame map[string]any
	require.NoError(t, conn.ReadJSON(&frame))
	return frame
}

func TestWebSocketConversation(t *testing.T) {
	responder := &stubResponder{resp: chat.BotResponse{Type: chat.ResponseBot, Response: "Tell me more."}}
	conn := dialWebSocket(t, setupRouter(responder, chatservice.NewService(memory.New())))

	hello := readFrame(t, conn)
	assert.Equal(t, "config", hello["type"])
	assert.Equal(t, map[string]any{"language": "English"}, hello["data"])

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "config", "data": map[string]string{"language": "hindi"}}))
	cfg := readFrame(t, conn)
	assert.Equal(t, map[string]any{"language": "Hindi"}, cfg["data"])

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "message", "data": map[string]string{"text": "rough day"}}))
	resp := readFrame(t, conn)
	assert.Equal(t, "response", resp["type"])
	data, ok := resp["data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Tell me more.", data["response"])
	assert.NotZero(t, resp["timestamp"])

	assert.Equal(t, recordedCall{"ws-user", "rough day", "Hindi"}, responder.lastCall())
}

func TestWebSocketErrors(t *testing.T) {
	conn := dialWebSocket(t, setupRouter(&stubResponder{}, chatservice.NewService(memory.New())))
	readFrame(t, conn)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "audio", "data": map[string]string{}}))
	frame := readFrame(t, conn)
	assert.Equal(t, "error", frame["type"])

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "message", "data": map[string]string{"text": "  "}}))
	frame = readFrame(t, conn)
	assert.Equal(t, "error", frame["type"])
	assert.Equal(t, map[string]any{"message": "message is required"}, frame["data"])
}

func TestWebSocketMessagesAreRateLimitedPerUser(t *testing.T) {
	responder := &stubResponder{resp: chat.BotResponse{Type: chat.ResponseBot, Response: "ok"}}
	limiter := middleware.NewRateLimiter(1, 1)
	h := New(responder, chatservice.NewService(memory.New()), language.NewMemoryStore(language.Seed()), limiter, zerolog.Nop())
	conn := dialWebSocket(t, mount(h))
	readFrame(t, conn)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "message", "data": map[string]string{"text": "first"}}))
	assert.Equal(t, "response", readFrame(t, conn)["type"])

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "message", "data": map[string]string{"text": "second"}}))
	frame := readFrame(t, conn)
	assert.Equal(t, "error", frame["type"])
	assert.Equal(t, map[string]any{"message": "rate limit exceeded"}, frame["data"])

	// Config frames do not consume tokens.
	require.NoError(t, conn.WriteJSON(map[string]any{"type": "config", "data": map[string]string{"language": "hindi"}}))
	assert.Equal(t, "config", readFrame(t, conn)["type"])

	responder.mu.Lock()
	defer responder.mu.Unlock()
	assert.Len(t, responder.calls, 1)
}

func TestSendMessageSharesLimiterWithWebSocket(t *testing.T) {
	limiter := middleware.NewRateLimiter(1, 1)
	h := New(&stubResponder{}, chatservice.NewService(memory.New()), language.NewMemoryStore(language.Seed()), limiter, zerolog.Nop())
	r := mount(h)

	conn := dialWebSocket(t, r)
	readFrame(t, conn)
	require.NoError(t, conn.WriteJSON(map[string]any{"type": "message", "data": map[string]string{"text": "hello"}}))
	assert.Equal(t, "response", readFrame(t, conn)["type"])

	rec := postMessage(t, r, "ws-user", map[string]string{"message": "hello again"})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	rec = postMessage(t, r, "other-user", map[string]string{"message": "hello"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestWebSocketIdleTimeoutStartsAfterSlowTurn(t *testing.T) {
	h := New(slowResponder{delay: 500 * time.Millisecond}, chatservice.NewService(memory.New()), language.NewMemoryStore(language.Seed()), nil, zerolog.Nop())
	h.readTimeout = 300 * time.Millisecond
	conn := dialWebSocket(t, mount(h))
	readFrame(t, conn)

	for _, text := range []string{"first", "second"} {
		require.NoError(t, conn.WriteJSON(map[string]any{"type": "message", "data": map[string]string{"text": text}}))
		frame := readFrame(t, conn)
		assert.Equal(t, "response", frame["type"], text)
	}
}

func TestWebSocketRequiresUser(t *testing.T) {
	srv := httptest.NewServer(setupRouter(&stubResponder{}, chatservice.NewService(memory.New())))
	defer srv.Close()

	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/chat/ws", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHandlerWithOrchestratorCrisisPath(t *testing.T) {
	chatSvc := chatservice.NewService(memory.New())
	orchestrator := companion.New(companion.Options{Conversations: chatSvc, Logger: zerolog.Nop()})
	r := setupRouter(orchestrator, chatSvc)

	rec := postMessage(t, r, "user-1", map[string]string{"message": "I want to die"})
	require.Equal(t, http.StatusOK, rec.Code)

	var body chat.BotResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, chat.ResponseCrisis, body.Type)
	assert.Nil(t, body.Recommendations)

	history, err := chatSvc.History(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Empty(t, history)
}

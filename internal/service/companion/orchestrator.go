// Package companion turns one user message into one bot response.
package companion

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/goodpsyche/hopebot/backend/internal/analysis/crisis"
	"github.com/goodpsyche/hopebot/backend/internal/model/chat"
	"github.com/goodpsyche/hopebot/backend/internal/service/ai"
	"github.com/goodpsyche/hopebot/backend/internal/service/mood"
)

// FallbackMessage is returned whenever a full reply cannot be produced.
const FallbackMessage = "I'm having a little trouble formulating a full response right now, but I'm still here to listen. Could you tell me more about what's on your mind?"

const (
	defaultCallTimeout  = 20 * time.Second
	defaultHistoryLimit = 10
)

// ReplyGenerator produces the conversational reply.
type ReplyGenerator interface {
	GenerateReply(ctx context.Context, req ai.ReplyRequest) (string, error)
}

// MoodClassifier labels the emotional tone of a message.
type MoodClassifier interface {
	Classify(ctx context.Context, text string) (chat.MoodResult, error)
}

// RecommendationGenerator suggests calming exercises and CBT prompts.
type RecommendationGenerator interface {
	GenerateRecommendations(ctx context.Context, req ai.RecommendationRequest) (*chat.RecommendationSet, error)
}

// ConversationStore reads and extends a user's conversation.
type ConversationStore interface {
	Recent(ctx context.Context, userID string, limit int) ([]chat.Message, error)
	SaveExchange(ctx context.Context, userID, userText, botText string) error
}

// Options configures an Orchestrator. Nil generators behave as if every call failed.
type Options struct {
	Replies         ReplyGenerator
	Moods           MoodClassifier
	Recommendations RecommendationGenerator
	Conversations   ConversationStore
	Logger          zerolog.Logger

	// CallTimeout bounds each model call separately.
	CallTimeout  time.Duration
	HistoryLimit int
}

// Orchestrator runs the crisis filter, the model calls and persistence for a single message.
type Orchestrator struct {
	replies         ReplyGenerator
	moods           MoodClassifier
	recommendations RecommendationGenerator
	conversations   ConversationStore
	log             zerolog.Logger
	callTimeout     time.Duration
	historyLimit    int
}

// New builds an Orchestrator from opts.
func New(opts Options) *Orchestrator {
	timeout := opts.CallTimeout
	if timeout <= 0 {
		timeout = defaultCallTimeout
	}
	limit := opts.HistoryLimit
	if limit < 0 {
		limit = defaultHistoryLimit
	}

	return &Orchestrator{
		replies:         opts.Replies,
		moods:           opts.Moods,
		recommendations: opts.Recommendations,
		conversations:   opts.Conversations,
		log:             opts.Logger.With().Str("component", "companion").Logger(),
		callTimeout:     timeout,
		historyLimit:    limit,
	}
}

type replyOutcome struct {
	text string
	err  error
}

type moodOutcome struct {
	result chat.MoodResult
	err    error
}

// HandleUserMessage never fails: errors degrade to missing recommendations or the fallback text.
func (o *Orchestrator) HandleUserMessage(ctx context.Context, userID, userInput, language string) (resp chat.BotResponse) {
	log := o.log.With().Str("user_id", userID).Logger()

	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("recovered while handling message")
			resp = fallbackResponse()
		}
	}()

	if phrase, ok := crisis.Match(userInput); ok {
		log.Warn().Str("phrase", phrase).Msg("crisis phrase detected, returning safety message")
		return chat.BotResponse{
			Type:     chat.ResponseCrisis,
			Response: crisis.SafetyMessage,
		}
	}

	history := o.loadHistory(ctx, log, userID)

	var (
		wg    sync.WaitGroup
		reply replyOutcome
		moods moodOutcome
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		reply = o.generateReply(ctx, ai.ReplyRequest{
			UserInput: userInput,
			Language:  language,
			History:   history,
		})
	}()
	go func() {
		defer wg.Done()
		moods = o.classify(ctx, userInput)
	}()
	wg.Wait()

	if reply.err != nil {
		log.Error().Err(reply.err).Msg("reply generation failed, returning fallback")
		return fallbackResponse()
	}

	resp = chat.BotResponse{
		Type:     chat.ResponseBot,
		Response: reply.text,
	}

	switch {
	case moods.err != nil:
		log.Warn().Err(moods.err).Msg("mood classification failed, skipping recommendations")
	case mood.IsDistressed(moods.result.Mood):
		resp.Recommendations = o.recommend(ctx, log, ai.RecommendationRequest{
			Mood:     moods.result.Mood,
			Message:  userInput,
			Language: language,
		})
	default:
		log.Debug().Str("mood", moods.result.Mood).Msg("no recommendations needed")
	}

	o.persist(ctx, log, userID, userInput, resp.Response)
	return resp
}

func (o *Orchestrator) loadHistory(ctx context.Context, log zerolog.Logger, userID string) []chat.Message {
	if o.conversations == nil || o.historyLimit == 0 {
		return nil
	}
	history, err := o.conversations.Recent(ctx, userID, o.historyLimit)
	if err != nil {
		log.Warn().Err(err).Msg("failed to load history, continuing without it")
		return nil
	}
	return history
}

func (o *Orchestrator) generateReply(ctx context.Context, req ai.ReplyRequest) (out replyOutcome) {
	defer recoverInto(&out.err)
	if o.replies == nil {
		return replyOutcome{err: errors.New("reply generator unavailable")}
	}

	callCtx, cancel := context.WithTimeout(ctx, o.callTimeout)
	defer cancel()

	text, err := o.replies.GenerateReply(callCtx, req)
	if err == nil && strings.TrimSpace(text) == "" {
		err = errors.Wrap(ai.ErrInvalidOutput, "empty reply")
	}
	return replyOutcome{text: text, err: err}
}

func (o *Orchestrator) classify(ctx context.Context, text string) (out moodOutcome) {
	defer recoverInto(&out.err)
	if o.moods == nil {
		return moodOutcome{err: errors.New("mood classifier unavailable")}
	}

	callCtx, cancel := context.WithTimeout(ctx, o.callTimeout)
	defer cancel()

	result, err := o.moods.Classify(callCtx, text)
	return moodOutcome{result: result, err: err}
}

func (o *Orchestrator) recommend(ctx context.Context, log zerolog.Logger, req ai.RecommendationRequest) (set *chat.RecommendationSet) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("recovered while generating recommendations")
			set = nil
		}
	}()
	if o.recommendations == nil {
		return nil
	}

	callCtx, cancel := context.WithTimeout(ctx, o.callTimeout)
	defer cancel()

	set, err := o.recommendations.GenerateRecommendations(callCtx, req)
	if err != nil {
		log.Warn().Err(err).Str("mood", req.Mood).Msg("recommendation generation failed")
		return nil
	}
	if set == nil || set.Empty() {
		return nil
	}
	return set
}

func (o *Orchestrator) persist(ctx context.Context, log zerolog.Logger, userID, userText, botText string) {
	if o.conversations == nil {
		return
	}
	if err := o.conversations.SaveExchange(ctx, userID, userText, botText); err != nil {
		log.Error().Err(err).Msg("failed to persist exchange")
	}
}

func recoverInto(err *error) {
	if r := recover(); r != nil {
		*err = errors.Errorf("panic: %v", r)
	}
}

func fallbackResponse() chat.BotResponse {
	return chat.BotResponse{
		Type:     chat.ResponseBot,
		Response: FallbackMessage,
	}
}

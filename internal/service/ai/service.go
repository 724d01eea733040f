package ai

import (
	"context"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/goodpsyche/hopebot/backend/internal/model/chat"
	"github.com/goodpsyche/hopebot/backend/internal/model/language"
)

// ReplyRequest is the input of GenerateReply.
type ReplyRequest struct {
	UserInput string
	Language  string
	History   []chat.Message
}

// RecommendationRequest is the input of GenerateRecommendations.
type RecommendationRequest struct {
	Mood     string
	Message  string
	Language string
}

// Service generates companion replies and coping recommendations with a chat model.
type Service struct {
	reply     compose.Runnable[map[string]any, *schema.Message]
	recommend compose.Runnable[map[string]any, *schema.Message]
	log       zerolog.Logger
}

// NewService compiles the reply and recommendation chains on chatModel.
func NewService(ctx context.Context, chatModel model.BaseChatModel, log zerolog.Logger) (*Service, error) {
	if chatModel == nil {
		return nil, errors.New("chat model is required")
	}

	reply, err := compileChain(ctx, chatModel, prompt.FromMessages(
		schema.FString,
		schema.SystemMessage(replySystemPrompt),
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{user_input}"),
	))
	if err != nil {
		return nil, errors.Wrap(err, "failed to compile reply chain")
	}

	recommend, err := compileChain(ctx, chatModel, prompt.FromMessages(
		schema.FString,
		schema.SystemMessage(recommendationSystemPrompt),
		schema.UserMessage(recommendationUserPrompt),
	))
	if err != nil {
		return nil, errors.Wrap(err, "failed to compile recommendation chain")
	}

	return &Service{
		reply:     reply,
		recommend: recommend,
		log:       log.With().Str("component", "ai").Logger(),
	}, nil
}

func compileChain(ctx context.Context, chatModel model.BaseChatModel, template *prompt.DefaultChatTemplate) (compose.Runnable[map[string]any, *schema.Message], error) {
	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(template)
	chain.AppendChatModel(chatModel)
	return chain.Compile(ctx)
}

// GenerateReply asks the model for the conversational reply to req.UserInput.
func (s *Service) GenerateReply(ctx context.Context, req ReplyRequest) (string, error) {
	input := map[string]any{
		"language":   languageOrDefault(req.Language),
		"history":    buildHistoryMessages(req.History),
		"user_input": req.UserInput,
	}

	msg, err := s.reply.Invoke(ctx, input)
	if err != nil {
		return "", errors.Wrap(err, "failed to run reply chain")
	}
	if msg == nil {
		return "", errors.Wrap(ErrInvalidOutput, "empty reply")
	}

	var payload struct {
		Response string `json:"response"`
	}
	if err := DecodeJSONObject(msg.Content, &payload); err != nil {
		return "", err
	}

	response := strings.TrimSpace(payload.Response)
	if response == "" {
		return "", errors.Wrap(ErrInvalidOutput, "response is empty")
	}

	s.log.Debug().Int("length", len(response)).Int("history", len(req.History)).Msg("generated reply")
	return response, nil
}

// GenerateRecommendations asks the model for calming exercises and CBT prompts.
func (s *Service) GenerateRecommendations(ctx context.Context, req RecommendationRequest) (*chat.RecommendationSet, error) {
	input := map[string]any{
		"language": languageOrDefault(req.Language),
		"mood":     strings.TrimSpace(req.Mood),
		"message":  req.Message,
	}

	msg, err := s.recommend.Invoke(ctx, input)
	if err != nil {
		return nil, errors.Wrap(err, "failed to run recommendation chain")
	}
	if msg == nil {
		return nil, errors.Wrap(ErrInvalidOutput, "empty recommendations")
	}

	var payload chat.RecommendationSet
	if err := DecodeJSONObject(msg.Content, &payload); err != nil {
		return nil, err
	}

	set := &chat.RecommendationSet{
		CalmingExercises: cleanList(payload.CalmingExercises),
		CBTPrompts:       cleanList(payload.CBTPrompts),
	}
	if set.Empty() {
		return nil, errors.Wrap(ErrInvalidOutput, "no recommendations")
	}
	return set, nil
}

func buildHistoryMessages(messages []chat.Message) []*schema.Message {
	if len(messages) == 0 {
		return nil
	}

	history := make([]*schema.Message, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case chat.RoleUser:
			history = append(history, schema.UserMessage(msg.Content))
		case chat.RoleBot:
			history = append(history, schema.AssistantMessage(msg.Content, nil))
		}
	}
	return history
}

func languageOrDefault(lang string) string {
	if lang = strings.TrimSpace(lang); lang == "" {
		return language.Default
	}
	return lang
}

// Package mood classifies the emotional tone of a user message with a chat model.
package mood

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
	"github.com/goodpsyche/hopebot/backend/internal/service/ai"
)

// distressMoods are the labels that trigger coping recommendations.
var distressMoods = []string{"sad", "anxious", "angry", "stressed", "overwhelmed", "low"}

// IsDistressed reports whether mood contains one of the distress labels, ignoring case.
func IsDistressed(mood string) bool {
	normalized := strings.ToLower(strings.TrimSpace(mood))
	if normalized == "" {
		return false
	}
	for _, label := range distressMoods {
		if strings.Contains(normalized, label) {
			return true
		}
	}
	return false
}

// Service runs the mood classifier chain.
type Service struct {
	classifier compose.Runnable[map[string]any, *schema.Message]
	log        zerolog.Logger
}

// NewService compiles the classifier chain on chatModel.
func NewService(ctx context.Context, chatModel model.BaseChatModel, log zerolog.Logger) (*Service, error) {
	if chatModel == nil {
		return nil, errors.New("chat model is required")
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage(classifierSystemPrompt),
		schema.UserMessage("{message}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to compile mood classifier chain")
	}

	return &Service{
		classifier: runnable,
		log:        log.With().Str("component", "mood").Logger(),
	}, nil
}

// Classify returns the mood of text. The mood label is always non-empty on success.
func (s *Service) Classify(ctx context.Context, text string) (chat.MoodResult, error) {
	msg, err := s.classifier.Invoke(ctx, map[string]any{
		"message": strings.TrimSpace(text),
	})
	if err != nil {
		return chat.MoodResult{}, errors.Wrap(err, "failed to run mood classifier")
	}
	if msg == nil {
		return chat.MoodResult{}, errors.Wrap(ai.ErrInvalidOutput, "empty classification")
	}

	var payload chat.MoodResult
	if err := ai.DecodeJSONObject(msg.Content, &payload); err != nil {
		return chat.MoodResult{}, err
	}

	result := chat.MoodResult{
		Mood:              strings.ToLower(strings.TrimSpace(payload.Mood)),
		Reason:            strings.TrimSpace(payload.Reason),
		SuggestedResponse: strings.TrimSpace(payload.SuggestedResponse),
	}
	if result.Mood == "" {
		return chat.MoodResult{}, errors.Wrap(ai.ErrInvalidOutput, "mood is empty")
	}

	s.log.Debug().Str("mood", result.Mood).Msg("classified message")
	return result, nil
}

const classifierSystemPrompt = `You are an expert in sentiment analysis and mental health. Analyze the user's message to determine their mood.

Use a single lowercase word for the mood, preferably one of: happy, calm, neutral, hopeful, sad, anxious, angry, stressed, overwhelmed, low.

Output format: return only a JSON object with three string fields: "mood" (the detected mood), "reason" (a brief explanation of why you detected this mood) and "suggestedResponse" (a suggested empathetic response). Do not add any other text.`

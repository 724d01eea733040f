package chat

// ResponseType tags how a bot response was produced.
type ResponseType string

const (
	ResponseCrisis ResponseType = "crisis"
	ResponseBot    ResponseType = "botResponse"
)

// RecommendationSet holds coping suggestions attached to a single bot turn.
type RecommendationSet struct {
	CalmingExercises []string `json:"calmingExercises"`
	CBTPrompts       []string `json:"cbtPrompts"`
}

// Empty reports whether the set carries no suggestions at all.
func (r *RecommendationSet) Empty() bool {
	return r == nil || (len(r.CalmingExercises) == 0 && len(r.CBTPrompts) == 0)
}

// MoodResult is the classifier's view of the user's emotional state.
type MoodResult struct {
	Mood              string `json:"mood"`
	Reason            string `json:"reason,omitempty"`
	SuggestedResponse string `json:"suggestedResponse,omitempty"`
}

// BotResponse is what the UI receives for every user message.
type BotResponse struct {
	Type            ResponseType       `json:"type"`
	Response        string             `json:"response"`
	Recommendations *RecommendationSet `json:"recommendations"`
}

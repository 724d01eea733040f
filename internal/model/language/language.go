package language

// Language is a reply language offered by the language switch.
type Language struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	NativeName string `json:"nativeName"`
	SpeechCode string `json:"speechCode"`
}

// Default is used when a request names no language or an unknown one.
const Default = "English"

// Seed provides the languages the companion can answer in.
func Seed() []Language {
	return []Language{
		{ID: "English", Name: "English", NativeName: "English", SpeechCode: "en-US"},
		{ID: "Tamil", Name: "Tamil", NativeName: "தமிழ்", SpeechCode: "ta-IN"},
		{ID: "Hindi", Name: "Hindi", NativeName: "हिन्दी", SpeechCode: "hi-IN"},
	}
}

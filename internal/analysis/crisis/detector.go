// Package crisis flags messages that mention self-harm so that no model is consulted for them.
package crisis

import "strings"

// SafetyMessage is returned verbatim whenever a crisis phrase is detected.
const SafetyMessage = "It sounds like you are going through a difficult time. Please know that there is help available. " +
	"You can connect with people who can support you by calling or texting 988 in the US and Canada, " +
	"or calling 111 in the UK, anytime."

// keywords are matched as lower-case substrings.
var keywords = []string{
	"suicide",
	"kill myself",
	"want to kill myself",
	"i want to die",
	"end my life",
	"ending it all",
	"no reason to live",
	"take my own life",
	"self-harm",
	"self harm",
	"better off dead",
	"hopeless and want to end it",
}

// Keywords returns a copy of the phrase list.
func Keywords() []string {
	return append([]string(nil), keywords...)
}

// IsCrisis reports whether text contains any crisis phrase, ignoring case.
func IsCrisis(text string) bool {
	_, ok := Match(text)
	return ok
}

// Match returns the first crisis phrase found in text.
func Match(text string) (string, bool) {
	normalized := strings.ToLower(text)
	if strings.TrimSpace(normalized) == "" {
		return "", false
	}
	for _, word := range keywords {
		if strings.Contains(normalized, word) {
			return word, true
		}
	}
	return "", false
}

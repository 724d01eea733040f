package ai

import (
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
)

// ErrInvalidOutput marks model output that does not satisfy the expected schema.
var ErrInvalidOutput = errors.New("model output does not match the expected schema")

// DecodeJSONObject decodes the outermost JSON object embedded in content into v.
// Models often wrap JSON in prose or code fences, so everything outside the
// first '{' and the last '}' is ignored.
func DecodeJSONObject(content string, v any) error {
	trimmed := strings.TrimSpace(content)
	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start == -1 || end == -1 || end <= start {
		return errors.Wrap(ErrInvalidOutput, "missing json object")
	}

	if err := json.Unmarshal([]byte(trimmed[start:end+1]), v); err != nil {
		return errors.Wrap(ErrInvalidOutput, err.Error())
	}
	return nil
}

func cleanList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

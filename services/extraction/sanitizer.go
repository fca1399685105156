package extraction

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExtractJSON recovers the JSON object embedded in a raw model response.
// The model is asked to return bare JSON but routinely wraps it in prose or
// markdown code fences, so the text between the first '{' and the last '}'
// is sliced out and parsed.
func ExtractJSON(text string) (map[string]any, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")

	start := strings.Index(text, "{")
	if start == -1 {
		return nil, &ExtractionFormatError{Reason: "no JSON object found in response"}
	}
	end := strings.LastIndex(text, "}")
	if end == -1 || end < start {
		return nil, &ExtractionFormatError{Reason: "unterminated JSON object in response"}
	}

	var raw map[string]any
	if err := json.Unmarshal([]byte(text[start:end+1]), &raw); err != nil {
		return nil, &ExtractionFormatError{Reason: fmt.Sprintf("malformed JSON: %v", err)}
	}
	return raw, nil
}

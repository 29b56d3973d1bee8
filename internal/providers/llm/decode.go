package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DecodeJSON unmarshals a JSON object or array out of raw LLM output text.
// Models in JSON mode still occasionally wrap the payload in markdown fences
// or prose, so the decoder strips fences and slices from the first opening
// delimiter to the last matching closer before unmarshalling.
func DecodeJSON[T any](raw string, out *T) error {
	text := stripFences(strings.TrimSpace(raw))

	start := strings.IndexAny(text, "{[")
	if start < 0 {
		return fmt.Errorf("llm: no json payload in output (len %d)", len(raw))
	}
	closer := "}"
	if text[start] == '[' {
		closer = "]"
	}
	end := strings.LastIndex(text, closer)
	if end < start {
		return fmt.Errorf("llm: unterminated json payload")
	}

	if err := json.Unmarshal([]byte(text[start:end+1]), out); err != nil {
		preview := text[start:]
		if len(preview) > 160 {
			preview = preview[:160] + "..."
		}
		return fmt.Errorf("llm: decode json: %w (payload: %s)", err, preview)
	}
	return nil
}

func stripFences(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	lines := strings.Split(text, "\n")
	if len(lines) < 3 {
		return text
	}
	end := len(lines) - 1
	for i := end; i > 0; i-- {
		if strings.TrimSpace(lines[i]) == "```" {
			end = i
			break
		}
	}
	return strings.Join(lines[1:end], "\n")
}

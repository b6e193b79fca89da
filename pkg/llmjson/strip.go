// Package llmjson centralizes the "strip a markdown code fence, then parse
// JSON" pattern that goal planning, decision evaluation, and self-reflection
// all need when reading structured output back from the LLM. It never
// attempts to repair malformed JSON — a parse failure always means the
// caller falls back to its own documented default.
package llmjson

import (
	"encoding/json"
	"strings"
)

// Strip removes a single leading/trailing ``` fence pair, with or without a
// "json" language tag, and returns the trimmed inner text. A response with
// no fence is returned trimmed and otherwise unchanged. Only the first
// fence pair is considered — text like "```json\n{...}\n```\nSome notes"
// still extracts just the JSON block, matching the original's
// response.split("```")[1] behavior.
func Strip(response string) string {
	s := strings.TrimSpace(response)
	if !strings.Contains(s, "```") {
		return s
	}

	parts := strings.SplitN(s, "```", 3)
	if len(parts) < 2 {
		return s
	}
	inner := parts[1]
	inner = strings.TrimPrefix(inner, "json")
	return strings.TrimSpace(inner)
}

// Unmarshal strips a code fence (if present) from response and unmarshals
// the result into v. On any parse failure it returns the error unchanged so
// callers can fall back to their own default rather than retrying.
func Unmarshal(response string, v any) error {
	return json.Unmarshal([]byte(Strip(response)), v)
}

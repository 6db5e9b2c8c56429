package snowtrack

import (
	"encoding/json"
	"fmt"
	"strings"
)

// JSON carries caller-supplied JSON attached to an event, either as raw
// pre-validated text or as a parsed document. The two construction paths
// replace separate string/map overloads per tracking method.
type JSON struct {
	raw    string
	parsed map[string]any
}

// ParseJSON validates text as JSON and wraps it. The original text is kept
// verbatim, so the bytes that reach the wire are exactly the caller's.
func ParseJSON(text string) (*JSON, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, fmt.Errorf("malformed json: empty input")
	}
	if !json.Valid([]byte(trimmed)) {
		return nil, fmt.Errorf("malformed json: %q", text)
	}
	return &JSON{raw: trimmed}, nil
}

// JSONFromMap wraps an already-parsed document.
func JSONFromMap(m map[string]any) *JSON {
	return &JSON{parsed: m}
}

// serialize returns the JSON text: raw input as given, or the marshalled
// document for map-backed values.
func (j *JSON) serialize() (string, error) {
	if j.raw != "" {
		return j.raw, nil
	}
	data, err := json.Marshal(j.parsed)
	if err != nil {
		return "", fmt.Errorf("serialize json: %w", err)
	}
	return string(data), nil
}

// parseOptionalJSON turns an optional context string into a JSON value.
// Empty input means no context.
func parseOptionalJSON(text string) (*JSON, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	return ParseJSON(text)
}

package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	fencedObjectPattern = regexp.MustCompile("(?s)```(?:json|JSON)?\\s*\\n?(\\{.*\\})\\s*```")
	trailingComma       = regexp.MustCompile(`,\s*([}\]])`)
)

// ExtractJSON returns the model's JSON object. Valid JSON is returned
// trimmed and otherwise untouched. Anything else has a markdown fence
// stripped and trailing commas dropped.
func ExtractJSON(content string) string {
	s := strings.TrimSpace(content)
	if json.Valid([]byte(s)) {
		return s
	}
	if m := fencedObjectPattern.FindStringSubmatch(s); len(m) > 1 {
		s = strings.TrimSpace(m[1])
		if json.Valid([]byte(s)) {
			return s
		}
	}
	return trailingComma.ReplaceAllString(s, "$1")
}

// ParseList reads {"<key>": [...]} from raw and returns the array items.
// A null list is empty; a missing key or a non-array value is an error.
func ParseList(raw, key string) ([]json.RawMessage, error) {
	cleaned := ExtractJSON(raw)
	if cleaned == "" {
		return nil, errors.New("empty response")
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(cleaned), &obj); err != nil {
		return nil, fmt.Errorf("decode response object: %w", err)
	}
	val, ok := obj[key]
	if !ok {
		return nil, fmt.Errorf("response has no %q key", key)
	}
	if strings.TrimSpace(string(val)) == "null" {
		return nil, nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(val, &items); err != nil {
		return nil, fmt.Errorf("%q is not a list: %w", key, err)
	}
	return items, nil
}

// DecodeItems decodes every item into T. One bad item rejects the batch.
func DecodeItems[T any](items []json.RawMessage) ([]T, error) {
	out := make([]T, 0, len(items))
	for i, it := range items {
		var v T
		if err := json.Unmarshal(it, &v); err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		out = append(out, v)
	}
	return out, nil
}

package trigger

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/gemeos-pipeline/internal/platform/apierr"
)

// Missing returns the required keys that are absent or blank in payload.
// A key written "a|b" is satisfied by either alternative.
func Missing(payload map[string]any, keys ...string) []string {
	var out []string
	for _, k := range keys {
		present := false
		for _, alt := range strings.Split(k, "|") {
			if strings.TrimSpace(fmt.Sprint(valueOrEmpty(payload, strings.TrimSpace(alt)))) != "" {
				present = true
				break
			}
		}
		if !present {
			out = append(out, k)
		}
	}
	return out
}

func valueOrEmpty(payload map[string]any, key string) any {
	v, ok := payload[key]
	if !ok || v == nil {
		return ""
	}
	return v
}

// String returns payload[key] trimmed, or an invalid-argument error.
func String(payload map[string]any, key string) (string, error) {
	v, ok := payload[key]
	if !ok || v == nil {
		return "", apierr.BadRequest("missing_key", "missing required key %q", key)
	}
	s, ok := v.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return "", apierr.BadRequest("invalid_key", "key %q must be a non-empty string", key)
	}
	return strings.TrimSpace(s), nil
}

// UUID returns payload[key] parsed as a UUID, or an invalid-argument error.
func UUID(payload map[string]any, key string) (uuid.UUID, error) {
	s, err := String(payload, key)
	if err != nil {
		return uuid.Nil, err
	}
	id, err := uuid.Parse(s)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, apierr.BadRequest("invalid_key", "key %q is not a valid id", key)
	}
	return id, nil
}

// FirstUUID reads the first present key of keys as a UUID.
func FirstUUID(payload map[string]any, keys ...string) (uuid.UUID, error) {
	for _, k := range keys {
		if _, ok := payload[k]; ok {
			return UUID(payload, k)
		}
	}
	return uuid.Nil, apierr.BadRequest("missing_key", "missing required key %q", strings.Join(keys, "|"))
}

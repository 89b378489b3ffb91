package prompts

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
)

// Prompt is an assembled request: the system channel carries the
// instruction, the user channel carries examples, feedback and subject.
type Prompt struct {
	Name        string
	Version     int
	System      string
	User        string
	SchemaName  string
	Schema      map[string]any
	OutputKey   string
	Temperature *float64
	// Set when System came from guidance rather than a default.
	Guided bool
}

func (p Prompt) Fingerprint() string {
	h := sha256.Sum256([]byte(
		strings.TrimSpace(p.Name) + "|" +
			strconv.Itoa(p.Version) + "|" +
			strings.TrimSpace(p.System) + "|" +
			strings.TrimSpace(p.User),
	))
	return hex.EncodeToString(h[:])
}

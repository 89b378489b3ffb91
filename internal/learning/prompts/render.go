package prompts

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/yungbote/gemeos-pipeline/internal/learning/guidance"
)

// RenderExamples renders few-shot pairs; outputs are re-encoded as compact
// JSON with sorted keys.
func RenderExamples(examples []guidance.Example) string {
	var b strings.Builder
	for _, ex := range examples {
		if strings.TrimSpace(ex.Input) == "" || len(ex.Output) == 0 {
			continue
		}
		b.WriteString("EXAMPLE INPUT:\n")
		b.WriteString(ex.Input)
		b.WriteString("\nEXAMPLE OUTPUT:\n")
		b.WriteString(canonicalJSON(ex.Output))
		b.WriteString("\n\n")
	}
	return b.String()
}

func canonicalJSON(raw json.RawMessage) string {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return string(bytes.TrimSpace(raw))
	}
	out, err := json.Marshal(v)
	if err != nil {
		return string(bytes.TrimSpace(raw))
	}
	return string(out)
}

func OutputInstruction(key, itemShape string) string {
	if itemShape == "" {
		itemShape = "items"
	}
	return fmt.Sprintf(
		"Return your response as a single JSON object with exactly one top-level key %q, whose value is a list of %s. Do not include any other keys or any text outside the JSON object.",
		key, itemShape,
	)
}

// GoalFeedback folds previously approved and rejected goal descriptions
// into steering text. Either list may be empty.
func GoalFeedback(approved, rejected []string) string {
	var b strings.Builder
	if len(approved) > 0 {
		b.WriteString("Here are some examples of GOOD learning goals that have been approved: ")
		b.WriteString(jsonList(approved))
		b.WriteString("\n")
	}
	if len(rejected) > 0 {
		b.WriteString("IMPORTANT: Do NOT suggest any of the following goals, as they have been rejected: ")
		b.WriteString(jsonList(rejected))
		b.WriteString("\n")
	}
	return b.String()
}

func jsonList(items []string) string {
	if items == nil {
		items = []string{}
	}
	out, _ := json.Marshal(items)
	return string(out)
}

// ConceptList renders concept names as a JSON array for the structuring subject.
func ConceptList(names []string) string {
	return jsonList(names)
}

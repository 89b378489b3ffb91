package prompts

import "github.com/yungbote/gemeos-pipeline/internal/learning/guidance"

// Input carries everything a stage contributes to one request.
type Input struct {
	DomainSlug string
	// Guidance instruction; empty selects the default.
	Instruction string
	// Overrides the prompt's built-in default instruction when set.
	DefaultInstruction string
	Examples           []guidance.Example
	// Stage-specific steering text placed after the examples.
	Feedback string
	Subject  string
	// Overrides the prompt's configured temperature when set.
	Temperature *float64
}

// Package stagekit holds the glue every model-backed stage shares.
package stagekit

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yungbote/gemeos-pipeline/internal/jobs/orchestrator"
	"github.com/yungbote/gemeos-pipeline/internal/learning/guidance"
	"github.com/yungbote/gemeos-pipeline/internal/learning/prompts"
	"github.com/yungbote/gemeos-pipeline/internal/platform/apierr"
)

// PromptInput combines the stage's configured defaults with the loaded
// guidance bundle.
func PromptInput(stage orchestrator.Stage, b guidance.Bundle, slug, subject string) prompts.Input {
	return prompts.Input{
		DomainSlug:         slug,
		Instruction:        b.Instruction,
		DefaultInstruction: stage.DefaultInstruction,
		Examples:           b.Examples,
		Subject:            subject,
		Temperature:        stage.Temperature,
	}
}

// LoadGuidance reads the stage's guidance bundle. A stage whose guidance is
// marked required fails with guidance_missing when no instruction exists.
func LoadGuidance(ctx context.Context, loader *guidance.Loader, stage orchestrator.Stage, slug string) (guidance.Bundle, error) {
	b := loader.Load(ctx, slug, stage.ID)
	if stage.Guidance.Required && !b.HasInstruction() {
		return b, apierr.Internal("guidance_missing", fmt.Errorf("%s guidance for domain %q is unavailable", stage.ID, slug))
	}
	return b, nil
}

// BuildPrompt assembles the request from the prompt the stage is configured
// with.
func BuildPrompt(stage orchestrator.Stage, in prompts.Input) (prompts.Prompt, error) {
	p, err := prompts.Build(stage.PromptName(), in)
	switch {
	case errors.Is(err, prompts.ErrNoInstruction):
		return p, apierr.Internal("guidance_missing", err)
	case err != nil:
		return p, apierr.Internal("prompt_build_failed", err)
	}
	return p, nil
}

// ReadErr reports a lookup failure as not-found when the record is absent
// and as an internal error otherwise.
func ReadErr(code string, err error) error {
	if errors.Is(err, apierr.ErrNotFound) {
		return apierr.NotFound(code, err)
	}
	return apierr.Internal("store_read_failed", err)
}

func WriteErr(err error) error {
	return apierr.Internal("store_write_failed", err)
}

// FoldName is the key two concept names are compared by.
func FoldName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

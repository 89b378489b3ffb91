package stagekit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yungbote/gemeos-pipeline/internal/jobs/orchestrator"
	"github.com/yungbote/gemeos-pipeline/internal/jobs/pipeline/pipelinetest"
	"github.com/yungbote/gemeos-pipeline/internal/learning/guidance"
	"github.com/yungbote/gemeos-pipeline/internal/learning/prompts"
	"github.com/yungbote/gemeos-pipeline/internal/platform/apierr"
)

func TestBuildPromptUsesStagePrompt(t *testing.T) {
	in := prompts.Input{DomainSlug: "biology", Subject: "Cells divide by mitosis."}

	p, err := BuildPrompt(orchestrator.Stage{ID: "any", Prompt: string(prompts.PromptLearningGoals)}, in)
	require.NoError(t, err)
	require.Equal(t, "learning_goals", p.OutputKey)
	require.Equal(t, prompts.DefaultLearningGoalsSystem, p.System)

	p, err = BuildPrompt(orchestrator.Stage{ID: "any", Prompt: string(prompts.PromptConceptExtraction)}, in)
	require.NoError(t, err)
	require.Equal(t, "concepts", p.OutputKey)

	_, err = BuildPrompt(orchestrator.Stage{ID: "any", Prompt: "summaries"}, in)
	require.Equal(t, "prompt_build_failed", apierr.CodeOf(err, ""))
}

func TestBuildPromptWithoutInstruction(t *testing.T) {
	in := prompts.Input{Subject: `["Cell"]`}
	_, err := BuildPrompt(orchestrator.Stage{ID: "any", Prompt: string(prompts.PromptConceptStructuring)}, in)
	require.Equal(t, "guidance_missing", apierr.CodeOf(err, ""))

	in.DefaultInstruction = "Group by organ system."
	p, err := BuildPrompt(orchestrator.Stage{ID: "any", Prompt: string(prompts.PromptConceptStructuring)}, in)
	require.NoError(t, err)
	require.Equal(t, "Group by organ system.", p.System)
}

func TestLoadGuidanceRequired(t *testing.T) {
	blobs := pipelinetest.NewBlobs()
	loader := pipelinetest.Guidance(t, blobs)
	stage, ok := pipelinetest.Pipeline(t).Stage("concept_structuring")
	require.True(t, ok)

	_, err := LoadGuidance(context.Background(), loader, stage, "biology")
	require.Equal(t, "guidance_missing", apierr.CodeOf(err, ""))

	stage.Guidance.Required = false
	b, err := LoadGuidance(context.Background(), loader, stage, "biology")
	require.NoError(t, err)
	require.False(t, b.HasInstruction())

	blobs.Put(guidance.DefaultBucket, "biology/guidance/concepts/concept-structuring_guidance.md", "text/markdown", []byte("Root at Cell."))
	stage.Guidance.Required = true
	b, err = LoadGuidance(context.Background(), loader, stage, "biology")
	require.NoError(t, err)
	require.Equal(t, "Root at Cell.", b.Instruction)
}

package app

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yungbote/gemeos-pipeline/internal/jobs/pipeline/pipelinetest"
	jobrt "github.com/yungbote/gemeos-pipeline/internal/jobs/runtime"
)

type namedStage string

func (n namedStage) Type() string             { return string(n) }
func (n namedStage) Run(*jobrt.Context) error { return nil }

func registryOf(t *testing.T, names ...string) *jobrt.Registry {
	t.Helper()
	reg := jobrt.NewRegistry()
	for _, n := range names {
		require.NoError(t, reg.Register(namedStage(n)))
	}
	return reg
}

func TestCheckStages(t *testing.T) {
	p := pipelinetest.Pipeline(t)
	all := []string{"preprocess", "concept_extraction", "concept_structuring", "learning_goal_generation"}

	require.NoError(t, checkStages(p, registryOf(t, all...)))

	err := checkStages(p, registryOf(t, all[:3]...))
	require.ErrorContains(t, err, `"learning_goal_generation" has no handler`)

	err = checkStages(p, registryOf(t, append(all, "summarise")...))
	require.ErrorContains(t, err, `handler "summarise" is not a pipeline stage`)
}

package app

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yungbote/gemeos-pipeline/internal/jobs/pipeline/pipelinetest"
	jobrt "github.com/yungbote/gemeos-pipeline/internal/jobs/runtime"
	"github.com/yungbote/gemeos-pipeline/internal/jobs/trigger"
	"github.com/yungbote/gemeos-pipeline/internal/platform/logger"
)

type memBus struct {
	subs map[string]func(context.Context, trigger.Envelope)
}

func (b *memBus) Publish(ctx context.Context, topic string, env trigger.Envelope) error {
	if fn, ok := b.subs[topic]; ok {
		fn(ctx, env)
	}
	return nil
}

func (b *memBus) Subscribe(_ context.Context, topic string, onMsg func(context.Context, trigger.Envelope)) error {
	if b.subs == nil {
		b.subs = map[string]func(context.Context, trigger.Envelope){}
	}
	b.subs[topic] = onMsg
	return nil
}

func (b *memBus) Close() error { return nil }

type countingStage struct {
	payloads []map[string]any
}

func (c *countingStage) Type() string { return "concept_extraction" }

func (c *countingStage) Run(jc *jobrt.Context) error {
	c.payloads = append(c.payloads, jc.Payload())
	return nil
}

func TestConsumeTriggersSubscribesFollowUpTopics(t *testing.T) {
	stage := &countingStage{}
	d := pipelinetest.Dispatcher(t, nil, stage)
	b := &memBus{}
	require.NoError(t, consumeTriggers(context.Background(), logger.Nop(), b, d))

	require.Len(t, b.subs, 1)
	require.Contains(t, b.subs, "content-extraction-requests")

	env, err := trigger.Encode("content-extraction-requests", "concept_extraction", map[string]any{
		"file_id": "7f0c2b5e-36a5-4a5e-9f7d-0e7f3f1f0a11", "domain_id": "d", "domain_slug": "biology",
	}, nil)
	require.NoError(t, err)
	require.NoError(t, b.Publish(context.Background(), "content-extraction-requests", env))
	require.Len(t, stage.payloads, 1)
	require.Equal(t, "biology", stage.payloads[0]["domain_slug"])
}

func TestHandleEnvelopeFallsBackToTopicStage(t *testing.T) {
	stage := &countingStage{}
	d := pipelinetest.Dispatcher(t, nil, stage)

	env, err := trigger.Encode("content-extraction-requests", "concept_extraction", map[string]any{
		"record_id": "7f0c2b5e-36a5-4a5e-9f7d-0e7f3f1f0a11", "domain_id": "d", "domain_slug": "biology",
	}, nil)
	require.NoError(t, err)
	delete(env.Message.Attributes, trigger.AttrStage)

	out := handleEnvelope(context.Background(), logger.Nop(), d, "content-extraction-requests", "concept_extraction", env)
	require.True(t, out.OK(), "%+v", out)
	require.Len(t, stage.payloads, 1)

	out = handleEnvelope(context.Background(), logger.Nop(), d, "content-extraction-requests", "concept_extraction", trigger.Envelope{})
	require.Equal(t, http.StatusBadRequest, out.Status)
	require.Len(t, stage.payloads, 1)
}

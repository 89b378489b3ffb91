package app

import (
	"context"
	"fmt"
	"net/http"

	jobrt "github.com/yungbote/gemeos-pipeline/internal/jobs/runtime"
	"github.com/yungbote/gemeos-pipeline/internal/jobs/trigger"
	"github.com/yungbote/gemeos-pipeline/internal/observability"
	"github.com/yungbote/gemeos-pipeline/internal/platform/bus"
	"github.com/yungbote/gemeos-pipeline/internal/platform/logger"
)

// consumeTriggers feeds follow-up triggers from the bus to the dispatcher.
// Only topics named by the pipeline's follow-up edges are subscribed.
func consumeTriggers(ctx context.Context, log *logger.Logger, b bus.Bus, d *jobrt.Dispatcher) error {
	topics := map[string]string{}
	for _, id := range d.Pipeline().Order() {
		st, _ := d.Pipeline().Stage(id)
		for _, e := range st.FollowUps() {
			topics[e.Topic] = e.Stage
		}
	}
	for topic, stage := range topics {
		topic, stage := topic, stage
		err := b.Subscribe(ctx, topic, func(ctx context.Context, env trigger.Envelope) {
			handleEnvelope(ctx, log, d, topic, stage, env)
		})
		if err != nil {
			return fmt.Errorf("subscribe %s: %w", topic, err)
		}
		log.Info("Consuming triggers", "topic", topic, "default_stage", stage)
	}
	return nil
}

func handleEnvelope(ctx context.Context, log *logger.Logger, d *jobrt.Dispatcher, topic, defaultStage string, env trigger.Envelope) jobrt.Outcome {
	tr, err := env.Message.Decode()
	if err != nil {
		observability.ReportMalformedTrigger(ctx, log, "bus:"+topic, err)
		return jobrt.Outcome{Status: http.StatusBadRequest, Code: "malformed_trigger", Err: err}
	}
	stage := tr.Stage()
	if stage == "" {
		stage = defaultStage
	}
	return d.Dispatch(ctx, stage, tr)
}

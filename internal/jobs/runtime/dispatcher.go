package runtime

import (
	"context"
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/yungbote/gemeos-pipeline/internal/jobs/orchestrator"
	"github.com/yungbote/gemeos-pipeline/internal/jobs/trigger"
	"github.com/yungbote/gemeos-pipeline/internal/observability"
	"github.com/yungbote/gemeos-pipeline/internal/platform/apierr"
	"github.com/yungbote/gemeos-pipeline/internal/platform/ctxutil"
	"github.com/yungbote/gemeos-pipeline/internal/platform/logger"
)

// Dispatcher routes a decoded trigger to the handler of its stage.
type Dispatcher struct {
	log      *logger.Logger
	db       *gorm.DB
	pipeline *orchestrator.Pipeline
	registry *Registry
	metrics  *observability.Metrics
	tracer   trace.Tracer
}

func NewDispatcher(log *logger.Logger, db *gorm.DB, pipeline *orchestrator.Pipeline, registry *Registry, metrics *observability.Metrics) *Dispatcher {
	return &Dispatcher{
		log:      log.With("component", "Dispatcher"),
		db:       db,
		pipeline: pipeline,
		registry: registry,
		metrics:  metrics,
		tracer:   observability.Tracer(),
	}
}

func (d *Dispatcher) Pipeline() *orchestrator.Pipeline { return d.pipeline }

// Dispatch validates required payload keys before any handler code runs,
// then runs the handler. Panics become 500 outcomes.
func (d *Dispatcher) Dispatch(ctx context.Context, stageID string, tr trigger.Trigger) Outcome {
	start := time.Now()
	stageID = strings.TrimSpace(stageID)
	ctx = ctxutil.WithTraceData(ctx, mergeTrace(ctx, tr, stageID))
	log := d.log.With(ctxutil.LogFields(ctx)...)

	stage, ok := d.pipeline.Stage(stageID)
	if !ok {
		return d.finish(stageID, start, rejected(stageID, apierr.New(http.StatusNotFound, "unknown_stage",
			fmt.Errorf("%w: unknown stage %q", apierr.ErrNotFound, stageID))))
	}
	if missing := trigger.Missing(tr.Payload, stage.Required...); len(missing) > 0 {
		observability.ReportMissingKeys(ctx, d.log, stage.ID, missing)
		return d.finish(stage.ID, start, rejected(stage.ID, apierr.BadRequest("missing_keys",
			"missing required keys: [%s]", strings.Join(missing, ", "))))
	}
	h, ok := d.registry.Get(stage.ID)
	if !ok {
		return d.finish(stage.ID, start, rejected(stage.ID, apierr.Internal("handler_missing",
			fmt.Errorf("no handler registered for stage %q", stage.ID))))
	}

	ctx, span := d.tracer.Start(ctx, "stage."+stage.ID, trace.WithAttributes(
		attribute.String("stage", stage.ID),
		attribute.String("message_id", tr.MessageID),
	))
	defer span.End()

	jc := NewContext(ctx, d.db, log.With("stage", stage.ID), stage, tr)
	d.run(h, jc)
	out := jc.Outcome()

	span.SetAttributes(attribute.Int("status", out.Status))
	if !out.OK() {
		span.RecordError(out.Err)
		span.SetStatus(codes.Error, out.Code)
	}
	return d.finish(stage.ID, start, out)
}

func (d *Dispatcher) run(h Handler, jc *Context) {
	defer func() {
		if r := recover(); r != nil {
			jc.Log.Error("Stage panicked", "panic", fmt.Sprint(r), "stack", string(debug.Stack()))
			jc.Fail("panic", apierr.Internal("stage_panic", fmt.Errorf("panic: %v", r)))
		}
	}()
	if err := h.Run(jc); err != nil {
		jc.Fail("run", err)
	}
}

func (d *Dispatcher) finish(stage string, start time.Time, out Outcome) Outcome {
	dur := time.Since(start)
	d.metrics.ObserveStage(stage, fmt.Sprint(out.Status), dur)
	switch {
	case out.OK():
		d.log.Info("Stage finished", "stage", stage, "status", out.Status, "duration", dur.String())
	case out.Status >= 500:
		d.log.Error("Stage failed", "stage", stage, "status", out.Status, "code", out.Code, "step", out.Step, "error", out.Err)
	default:
		d.log.Warn("Stage rejected trigger", "stage", stage, "status", out.Status, "code", out.Code, "error", out.Err)
	}
	return out
}

func rejected(stage string, err error) Outcome {
	return Outcome{
		Status: apierr.StatusOf(err),
		Code:   apierr.CodeOf(err, "rejected"),
		Step:   "validate",
		Body:   map[string]any{"error": err.Error(), "stage": stage},
		Err:    err,
	}
}

func mergeTrace(ctx context.Context, tr trigger.Trigger, stage string) *ctxutil.TraceData {
	td := ctxutil.TraceData{}
	if prev := ctxutil.GetTraceData(ctx); prev != nil {
		td = *prev
	}
	if td.MessageID == "" {
		td.MessageID = tr.MessageID
	}
	if td.TraceID == "" {
		if v, ok := tr.Payload["trace_id"].(string); ok {
			td.TraceID = v
		}
	}
	td.Stage = stage
	return &td
}

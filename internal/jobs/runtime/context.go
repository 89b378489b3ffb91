package runtime

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/gemeos-pipeline/internal/jobs/orchestrator"
	"github.com/yungbote/gemeos-pipeline/internal/jobs/trigger"
	"github.com/yungbote/gemeos-pipeline/internal/pkg/dbctx"
	"github.com/yungbote/gemeos-pipeline/internal/platform/apierr"
	"github.com/yungbote/gemeos-pipeline/internal/platform/logger"
)

/*
Context is the execution handle for one stage invocation. Handlers read the
decoded trigger through it and end the run with exactly one of Succeed or
Fail; the first call wins. A handler that returns without calling either
succeeds with an empty body.
*/
type Context struct {
	Ctx     context.Context
	DB      *gorm.DB
	Log     *logger.Logger
	Stage   orchestrator.Stage
	Trigger trigger.Trigger

	outcome *Outcome
}

// Outcome is the transport-facing result of a run.
type Outcome struct {
	Status int
	Code   string
	Step   string
	Body   map[string]any
	Err    error
}

func (o Outcome) OK() bool { return o.Status >= 200 && o.Status < 300 }

func NewContext(ctx context.Context, db *gorm.DB, log *logger.Logger, stage orchestrator.Stage, tr trigger.Trigger) *Context {
	if tr.Payload == nil {
		tr.Payload = map[string]any{}
	}
	return &Context{Ctx: ctx, DB: db, Log: log, Stage: stage, Trigger: tr}
}

// Payload never returns nil.
func (c *Context) Payload() map[string]any {
	return c.Trigger.Payload
}

func (c *Context) PayloadString(key string) (string, error) {
	return trigger.String(c.Trigger.Payload, key)
}

func (c *Context) PayloadUUID(key string) (uuid.UUID, error) {
	return trigger.UUID(c.Trigger.Payload, key)
}

// DBC returns a repo context bound to this run's ctx.
func (c *Context) DBC() dbctx.Context {
	return dbctx.New(c.Ctx)
}

func (c *Context) Succeed(step string, result map[string]any) {
	if c.outcome != nil {
		return
	}
	body := map[string]any{"status": "success", "stage": c.Stage.ID}
	for k, v := range result {
		body[k] = v
	}
	c.outcome = &Outcome{Status: http.StatusOK, Step: step, Body: body}
}

// Fail ends the run with the status apierr maps err to.
func (c *Context) Fail(step string, err error) {
	if c.outcome != nil {
		return
	}
	if err == nil {
		err = apierr.Internal("stage_failed", nil)
	}
	c.outcome = &Outcome{
		Status: apierr.StatusOf(err),
		Code:   apierr.CodeOf(err, "stage_failed"),
		Step:   step,
		Body:   map[string]any{"error": err.Error(), "stage": c.Stage.ID},
		Err:    err,
	}
}

func (c *Context) Done() bool { return c.outcome != nil }

func (c *Context) Outcome() Outcome {
	if c.outcome == nil {
		c.Succeed("done", nil)
	}
	return *c.outcome
}

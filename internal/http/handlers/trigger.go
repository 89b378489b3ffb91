package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/gemeos-pipeline/internal/http/response"
	jobrt "github.com/yungbote/gemeos-pipeline/internal/jobs/runtime"
	"github.com/yungbote/gemeos-pipeline/internal/jobs/trigger"
	"github.com/yungbote/gemeos-pipeline/internal/observability"
	"github.com/yungbote/gemeos-pipeline/internal/platform/apierr"
	"github.com/yungbote/gemeos-pipeline/internal/platform/logger"
)

// TriggerHandler accepts push-delivered trigger envelopes and hands them to
// the dispatcher.
type TriggerHandler struct {
	log        *logger.Logger
	dispatcher *jobrt.Dispatcher
}

func NewTriggerHandler(log *logger.Logger, dispatcher *jobrt.Dispatcher) *TriggerHandler {
	return &TriggerHandler{log: log.With("handler", "TriggerHandler"), dispatcher: dispatcher}
}

// POST /v1/stages/:stage
func (h *TriggerHandler) Stage(c *gin.Context) {
	h.handle(c, c.Param("stage"))
}

// POST /v1/triggers, addressed by message.attributes.stage.
func (h *TriggerHandler) Envelope(c *gin.Context) {
	h.handle(c, "")
}

// Route serves a fixed stage on its own path.
func (h *TriggerHandler) Route(stageID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		h.handle(c, stageID)
	}
}

func (h *TriggerHandler) handle(c *gin.Context, stageID string) {
	body, err := c.GetRawData()
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "read_body_failed", err)
		return
	}
	tr, err := trigger.Decode(body)
	if err != nil {
		observability.ReportMalformedTrigger(c.Request.Context(), h.log, c.FullPath(), err)
		response.RespondError(c, apierr.StatusOf(err), apierr.CodeOf(err, "malformed_trigger"), err)
		return
	}
	if stageID == "" {
		stageID = tr.Stage()
	}
	if stageID == "" {
		err := apierr.BadRequest("missing_stage", "message.attributes.%s is required on this route", trigger.AttrStage)
		observability.ReportMalformedTrigger(c.Request.Context(), h.log, c.FullPath(), err)
		response.RespondError(c, http.StatusBadRequest, "missing_stage", err)
		return
	}
	response.RespondOutcome(c, h.dispatcher.Dispatch(c.Request.Context(), stageID, tr))
}

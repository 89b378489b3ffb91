package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	jobrt "github.com/yungbote/gemeos-pipeline/internal/jobs/runtime"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
	Stage string   `json:"stage,omitempty"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	c.JSON(status, ErrorEnvelope{Error: apiError(code, err)})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// RespondOutcome writes a stage result: the success body as-is, or the error
// envelope tagged with the stage.
func RespondOutcome(c *gin.Context, out jobrt.Outcome) {
	if out.OK() {
		c.JSON(out.Status, out.Body)
		return
	}
	stage, _ := out.Body["stage"].(string)
	c.JSON(out.Status, ErrorEnvelope{Error: apiError(out.Code, out.Err), Stage: stage})
}

func apiError(code string, err error) APIError {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return APIError{Message: msg, Code: code}
}

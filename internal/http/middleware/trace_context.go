package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/gemeos-pipeline/internal/platform/ctxutil"
)

const (
	headerTraceID    = "X-Trace-Id"
	headerRequestID  = "X-Request-Id"
	headerCloudTrace = "X-Cloud-Trace-Context"
)

// AttachTraceContext seeds the request context with trace and request ids.
// The trace id comes from X-Trace-Id, then the push transport's
// X-Cloud-Trace-Context, then the active span, then a fresh uuid.
func AttachTraceContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := strings.TrimSpace(c.GetHeader(headerRequestID))
		if reqID == "" {
			reqID = uuid.New().String()
		}
		traceID := strings.TrimSpace(c.GetHeader(headerTraceID))
		if traceID == "" {
			traceID = cloudTraceID(c.GetHeader(headerCloudTrace))
		}
		if traceID == "" {
			if sc := trace.SpanContextFromContext(c.Request.Context()); sc.HasTraceID() {
				traceID = sc.TraceID().String()
			}
		}
		if traceID == "" {
			traceID = uuid.New().String()
		}
		ctx := ctxutil.WithTraceData(c.Request.Context(), &ctxutil.TraceData{
			TraceID:   traceID,
			RequestID: reqID,
		})
		c.Request = c.Request.WithContext(ctx)
		c.Writer.Header().Set(headerTraceID, traceID)
		c.Writer.Header().Set(headerRequestID, reqID)
		c.Next()
	}
}

// cloudTraceID reads "TRACE_ID/SPAN_ID;o=OPTIONS".
func cloudTraceID(h string) string {
	h = strings.TrimSpace(h)
	if i := strings.IndexAny(h, "/;"); i >= 0 {
		h = h[:i]
	}
	return h
}

package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/gemeos-pipeline/internal/http/handlers"
	httpMW "github.com/yungbote/gemeos-pipeline/internal/http/middleware"
	"github.com/yungbote/gemeos-pipeline/internal/jobs/orchestrator"
	"github.com/yungbote/gemeos-pipeline/internal/observability"
	"github.com/yungbote/gemeos-pipeline/internal/platform/logger"
)

type RouterConfig struct {
	Log          *logger.Logger
	Metrics      *observability.Metrics
	ServiceName  string
	AllowOrigins []string

	// Pipeline supplies the legacy single-stage routes.
	Pipeline *orchestrator.Pipeline

	TriggerHandler *httpH.TriggerHandler
	HealthHandler  *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.AllowOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	if cfg.TriggerHandler == nil {
		return r
	}

	v1 := r.Group("/v1")
	{
		v1.POST("/triggers", cfg.TriggerHandler.Envelope)
		v1.POST("/stages/:stage", cfg.TriggerHandler.Stage)
	}

	// Legacy per-function routes
	if cfg.Pipeline != nil {
		for _, id := range cfg.Pipeline.Order() {
			st, ok := cfg.Pipeline.Stage(id)
			if !ok || st.Route == "" {
				continue
			}
			r.POST(st.Route, cfg.TriggerHandler.Route(st.ID))
		}
	}

	return r
}

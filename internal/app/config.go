package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	types "github.com/yungbote/gemeos-pipeline/internal/domain/curriculum"
	"github.com/yungbote/gemeos-pipeline/internal/learning/extractor"
	"github.com/yungbote/gemeos-pipeline/internal/learning/guidance"
	"github.com/yungbote/gemeos-pipeline/internal/learning/llm"
	"github.com/yungbote/gemeos-pipeline/internal/platform/envutil"
	"github.com/yungbote/gemeos-pipeline/internal/platform/logger"
)

const ServiceName = "gemeos-pipeline"

type Config struct {
	Port        string
	Environment string

	AutoMigrate        bool
	ConceptUniqueIndex bool

	GuidanceBucket     string
	PipelineSpecPath   string
	PreprocessMaxChars int

	ModelRetry             llm.RetryConfig
	ModelRequestsPerSecond float64

	SystemPrincipalID uuid.UUID
	TriggerConsume    bool

	CORSAllowOrigins []string
	ShutdownTimeout  time.Duration
}

func LoadConfig(log *logger.Logger) (Config, error) {
	retry := llm.DefaultRetryConfig()
	cfg := Config{
		Port:               envutil.String("PORT", "8080"),
		Environment:        envutil.String("ENVIRONMENT", "development"),
		AutoMigrate:        envutil.Bool("DB_AUTOMIGRATE", true),
		ConceptUniqueIndex: envutil.Bool("CONCEPT_UNIQUE_INDEX", false),
		GuidanceBucket:     envutil.String("GUIDANCE_BUCKET", guidance.DefaultBucket),
		PipelineSpecPath:   envutil.String("PIPELINE_SPEC_PATH", ""),
		PreprocessMaxChars: envutil.Int("PREPROCESS_MAX_CHARS", extractor.DefaultMaxChars),
		ModelRetry: llm.RetryConfig{
			MaxAttempts: envutil.Int("MODEL_MAX_ATTEMPTS", retry.MaxAttempts),
			Delay:       envutil.Seconds("MODEL_RETRY_DELAY_SECONDS", retry.Delay),
		},
		ModelRequestsPerSecond: envutil.Float("MODEL_REQUESTS_PER_SECOND", 0),
		SystemPrincipalID:      types.SystemPrincipalID,
		TriggerConsume:         envutil.Bool("TRIGGER_CONSUME", false),
		CORSAllowOrigins:       splitList(envutil.String("CORS_ALLOW_ORIGINS", "")),
		ShutdownTimeout:        envutil.Seconds("SHUTDOWN_TIMEOUT_SECONDS", 15*time.Second),
	}

	if raw := envutil.String("SYSTEM_PRINCIPAL_ID", ""); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return Config{}, fmt.Errorf("SYSTEM_PRINCIPAL_ID: %w", err)
		}
		cfg.SystemPrincipalID = id
	}
	if cfg.ModelRetry.MaxAttempts < 1 {
		return Config{}, fmt.Errorf("MODEL_MAX_ATTEMPTS must be at least 1, got %d", cfg.ModelRetry.MaxAttempts)
	}
	if cfg.PreprocessMaxChars <= 0 {
		return Config{}, fmt.Errorf("PREPROCESS_MAX_CHARS must be positive, got %d", cfg.PreprocessMaxChars)
	}

	if log != nil {
		log.Debug("Resolved config",
			"port", cfg.Port,
			"environment", cfg.Environment,
			"db_automigrate", cfg.AutoMigrate,
			"concept_unique_index", cfg.ConceptUniqueIndex,
			"guidance_bucket", cfg.GuidanceBucket,
			"pipeline_spec_path", cfg.PipelineSpecPath,
			"preprocess_max_chars", cfg.PreprocessMaxChars,
			"model_max_attempts", cfg.ModelRetry.MaxAttempts,
			"model_retry_delay", cfg.ModelRetry.Delay.String(),
			"model_requests_per_second", cfg.ModelRequestsPerSecond,
			"trigger_consume", cfg.TriggerConsume,
		)
	}
	return cfg, nil
}

func splitList(raw string) []string {
	var out []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

package app

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/gemeos-pipeline/internal/data/db"
	gemeoshttp "github.com/yungbote/gemeos-pipeline/internal/http"
	httpH "github.com/yungbote/gemeos-pipeline/internal/http/handlers"
	"github.com/yungbote/gemeos-pipeline/internal/jobs/orchestrator"
	jobrt "github.com/yungbote/gemeos-pipeline/internal/jobs/runtime"
	"github.com/yungbote/gemeos-pipeline/internal/observability"
	"github.com/yungbote/gemeos-pipeline/internal/platform/envutil"
	"github.com/yungbote/gemeos-pipeline/internal/platform/logger"
)

type App struct {
	Log        *logger.Logger
	DB         *gorm.DB
	Cfg        Config
	Pipeline   *orchestrator.Pipeline
	Clients    Clients
	Repos      Repos
	Metrics    *observability.Metrics
	Dispatcher *jobrt.Dispatcher
	Server     *gemeoshttp.Server

	pg           *db.PostgresService
	otelShutdown func(context.Context) error
	cancel       context.CancelFunc
}

// NewLogger builds the process logger from LOG_MODE.
func NewLogger() (*logger.Logger, error) {
	log, err := logger.New(envutil.String("LOG_MODE", "development"))
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return log, nil
}

func New() (*App, error) {
	log, err := NewLogger()
	if err != nil {
		return nil, err
	}

	log.Info("Loading environment variables...")
	cfg, err := LoadConfig(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("load config: %w", err)
	}

	pipeline, err := orchestrator.Load(cfg.PipelineSpecPath)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("load pipeline: %w", err)
	}

	otelShutdown := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		ServiceName: ServiceName,
		Environment: cfg.Environment,
	})
	var metrics *observability.Metrics
	if observability.Enabled() {
		metrics = observability.Init(log)
	}

	pg, err := db.NewPostgresService(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init postgres: %w", err)
	}
	if cfg.AutoMigrate {
		if err := pg.AutoMigrateAll(db.MigrateOptions{ConceptUniqueIndex: cfg.ConceptUniqueIndex}); err != nil {
			_ = pg.Close()
			log.Sync()
			return nil, fmt.Errorf("postgres automigrate: %w", err)
		}
	}
	theDB := pg.DB()

	clients, err := wireClients(log)
	if err != nil {
		_ = pg.Close()
		log.Sync()
		return nil, err
	}
	reposet := wireRepos(theDB, log)

	registry, err := wireStages(theDB, log, cfg, pipeline, clients, reposet, metrics)
	if err != nil {
		clients.Close()
		_ = pg.Close()
		log.Sync()
		return nil, fmt.Errorf("wire stages: %w", err)
	}
	dispatcher := jobrt.NewDispatcher(log, theDB, pipeline, registry, metrics)

	server := gemeoshttp.NewServer(gemeoshttp.RouterConfig{
		Log:            log,
		Metrics:        metrics,
		ServiceName:    ServiceName,
		AllowOrigins:   cfg.CORSAllowOrigins,
		Pipeline:       pipeline,
		TriggerHandler: httpH.NewTriggerHandler(log, dispatcher),
		HealthHandler:  httpH.NewHealthHandler(),
	})

	return &App{
		Log:          log,
		DB:           theDB,
		Cfg:          cfg,
		Pipeline:     pipeline,
		Clients:      clients,
		Repos:        reposet,
		Metrics:      metrics,
		Dispatcher:   dispatcher,
		Server:       server,
		pg:           pg,
		otelShutdown: otelShutdown,
	}, nil
}

// Start begins background work: bus consumption when TRIGGER_CONSUME is set.
func (a *App) Start() error {
	if a == nil || a.cancel != nil {
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	if a.Cfg.TriggerConsume {
		if err := consumeTriggers(ctx, a.Log, a.Clients.Bus, a.Dispatcher); err != nil {
			return err
		}
	}
	return nil
}

func (a *App) Run(addr string) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	a.Log.Info("Serving", "addr", addr)
	return a.Server.Run(addr)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout())
	defer cancel()
	if a.Server != nil {
		if err := a.Server.Shutdown(ctx); err != nil {
			a.Log.Warn("HTTP shutdown", "error", err)
		}
	}
	a.Clients.Close()
	if a.pg != nil {
		_ = a.pg.Close()
	}
	if a.otelShutdown != nil {
		_ = a.otelShutdown(ctx)
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}

func (a *App) shutdownTimeout() time.Duration {
	if a.Cfg.ShutdownTimeout > 0 {
		return a.Cfg.ShutdownTimeout
	}
	return 15 * time.Second
}

package main

import (
	"context"
	"fmt"
	"time"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/fleetcore/driver-completion/internal/adapter/cache"
	"github.com/fleetcore/driver-completion/internal/adapter/queue"
	"github.com/fleetcore/driver-completion/internal/adapter/storage/sqlstore"
	"github.com/fleetcore/driver-completion/internal/adapter/vault"
	"github.com/fleetcore/driver-completion/internal/observability/telemetry"
	"github.com/fleetcore/driver-completion/internal/ports"
	"github.com/fleetcore/driver-completion/internal/service/email"
	"github.com/fleetcore/driver-completion/internal/service/report"
	"github.com/fleetcore/driver-completion/pkg/config"
	"github.com/fleetcore/driver-completion/pkg/logging"
)

// application holds everything both commands share.
type application struct {
	cfg       *config.Config
	log       *zap.Logger
	loc       *time.Location
	db        *gorm.DB
	redisLock *cache.RedisLock
	events    ports.MessageQueue
	tracer    *sdktrace.TracerProvider
	pipeline  *report.Pipeline
}

func bootstrap(configPath string) (*application, error) {
	// 1. Load Configuration
	cfg, err := config.LoadFile(configPath)
	if err != nil {
		return nil, err
	}

	// 2. Initialize Logger
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	app := &application{cfg: cfg, log: logger}

	logger.Info("Starting Driver Completion Report",
		zap.String("service", cfg.App.Name),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	// 3. Apply Vault secrets
	if cfg.Vault.Enabled {
		sm, err := vault.NewSecretManager(cfg.Vault.Address, cfg.Vault.Token, cfg.Vault.Path, logger)
		if err != nil {
			return nil, app.fail(err)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err = sm.Apply(ctx, cfg)
		cancel()
		if err != nil {
			return nil, app.fail(fmt.Errorf("failed to load secrets: %w", err))
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, app.fail(fmt.Errorf("invalid configuration: %w", err))
	}
	app.loc, _ = cfg.Region.Location()

	// 4. Initialize OpenTelemetry
	if cfg.OpenTelemetry.Enabled {
		app.tracer, err = telemetry.InitTracer(cfg.OpenTelemetry.ServiceName, cfg.App.Version, cfg.OpenTelemetry.JaegerEndpoint)
		if err != nil {
			return nil, app.fail(fmt.Errorf("failed to initialize tracer: %w", err))
		}
	}

	// 5. Connect to the order database
	app.db, err = sqlstore.NewConnection(cfg.Database, logger)
	if err != nil {
		return nil, app.fail(err)
	}
	repo := sqlstore.NewCompletionRepository(app.db, cfg.Database.QueryTimeout, logger)

	// 6. Run lock
	var lock ports.RunLock
	if cfg.Lock.Enabled {
		if cfg.Redis.URL != "" {
			app.redisLock, err = cache.NewRedisLock(cfg.Redis.URL, cfg.Redis.DialTimeout, logger)
			if err != nil {
				return nil, app.fail(err)
			}
			lock = app.redisLock
		} else {
			lock = cache.NewLocalLock(logger)
		}
	}

	// 7. Run events
	app.events, err = queue.New(cfg.Events, logger)
	if err != nil {
		return nil, app.fail(err)
	}

	// 8. Mail dispatcher
	dispatcher, err := email.NewService(cfg.Mail, cfg.CircuitBreaker, logger)
	if err != nil {
		return nil, app.fail(err)
	}

	// 9. Report pipeline
	app.pipeline = report.NewPipeline(
		repo,
		report.NewRenderer(cfg.Report.OutputDir, logger),
		dispatcher,
		lock,
		app.events,
		report.Options{
			WindowDays: cfg.Report.WindowDays,
			Location:   app.loc,
			Timeout:    cfg.Report.Timeout,
			LockTTL:    cfg.Lock.TTL,
		},
		logger,
	)

	return app, nil
}

func (a *application) fail(err error) error {
	a.log.Error("Startup failed", zap.Error(err))
	a.Close()
	return err
}

// Close releases connections in reverse order of creation.
func (a *application) Close() {
	if a.events != nil {
		if err := a.events.Close(); err != nil {
			a.log.Warn("Error closing event publisher", zap.Error(err))
		}
	}
	if a.redisLock != nil {
		if err := a.redisLock.Close(); err != nil {
			a.log.Warn("Error closing redis", zap.Error(err))
		}
	}
	if a.db != nil {
		if err := sqlstore.Close(a.db); err != nil {
			a.log.Warn("Error closing database", zap.Error(err))
		}
	}
	if a.tracer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.tracer.Shutdown(ctx); err != nil {
			a.log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}
	_ = a.log.Sync()
}

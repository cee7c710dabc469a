package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/valyala/fasthttp/fasthttpadaptor"
	"go.uber.org/zap"

	"github.com/fleetcore/driver-completion/internal/adapter/http/fiber/handlers"
	"github.com/fleetcore/driver-completion/internal/adapter/http/fiber/middleware"
	"github.com/fleetcore/driver-completion/internal/service/health"
	"github.com/fleetcore/driver-completion/internal/service/scheduler"
)

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the on-demand endpoint and run the report on schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := bootstrap(*configPath)
			if err != nil {
				return err
			}
			defer app.Close()
			return serve(app)
		},
	}
}

func serve(app *application) error {
	cfg, logger := app.cfg, app.log

	// 10. Scheduler
	var sched *scheduler.Scheduler
	if cfg.Report.ScheduleEnabled {
		var err error
		sched, err = scheduler.New(cfg.Report.Schedule, app.loc, app.pipeline, logger)
		if err != nil {
			return err
		}
	}

	// 11. Health checks
	healthCfg := &health.Config{Version: cfg.App.Version}
	if sqlDB, err := app.db.DB(); err == nil {
		healthCfg.Database = sqlDB
	}
	if app.redisLock != nil {
		healthCfg.Redis = app.redisLock
	}
	if sched != nil {
		healthCfg.Schedule = sched
	}
	healthService := health.NewService(healthCfg, logger)

	// 12. Fiber HTTP Server
	server := fiber.New(fiber.Config{
		AppName:               serviceName,
		ServerHeader:          serviceName,
		DisableStartupMessage: true,
		ReadTimeout:           cfg.HTTP.ReadTimeout,
		WriteTimeout:          cfg.HTTP.WriteTimeout,
		IdleTimeout:           cfg.HTTP.IdleTimeout,
		ErrorHandler:          middleware.ErrorHandler(logger),
	})
	server.Use(recover.New())
	server.Use(fiberlogger.New())

	health.NewFiberHandler(healthService).RegisterRoutes(server)

	if cfg.Prometheus.Enabled {
		metrics := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
		server.Get(cfg.Prometheus.Path, func(c *fiber.Ctx) error {
			metrics(c.Context())
			return nil
		})
	}

	checker := handlers.NewPasscodeChecker(cfg.Security.Passcode, cfg.Security.PasscodeHash)
	reportHandler := handlers.NewReportHandler(app.pipeline, logger)
	server.Add(fiber.MethodGet, "/driverreport", middleware.PasscodeRequired(checker, logger), reportHandler.Generate)
	server.Add(fiber.MethodPost, "/driverreport", middleware.PasscodeRequired(checker, logger), reportHandler.Generate)

	// 13. Start
	if sched != nil {
		sched.Start()
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP Server", zap.Int("port", cfg.HTTP.Port))
		if err := server.Listen(fmt.Sprintf(":%d", cfg.HTTP.Port)); err != nil {
			errCh <- err
		}
	}()

	// 14. Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	var serveErr error
	select {
	case <-quit:
	case serveErr = <-errCh:
		logger.Error("HTTP Server failed", zap.Error(serveErr))
	}

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.ShutdownWithContext(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
	if sched != nil {
		if err := sched.Stop(ctx); err != nil {
			logger.Warn("Scheduled run interrupted", zap.Error(err))
		}
	}

	logger.Info("Server exited gracefully")
	return serveErr
}

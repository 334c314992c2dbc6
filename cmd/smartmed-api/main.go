package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/smartmed/smartmed-api/internal/ai"
	"github.com/smartmed/smartmed-api/internal/config"
	v1 "github.com/smartmed/smartmed-api/internal/handler/v1"
	"github.com/smartmed/smartmed-api/internal/mailer"
	"github.com/smartmed/smartmed-api/internal/repository"
	"github.com/smartmed/smartmed-api/internal/scheduler"
	"github.com/smartmed/smartmed-api/internal/service"
	"github.com/smartmed/smartmed-api/pkg/auth"
	"github.com/smartmed/smartmed-api/pkg/database"
	"github.com/smartmed/smartmed-api/pkg/logger"
	"github.com/smartmed/smartmed-api/pkg/metrics"
	"github.com/smartmed/smartmed-api/pkg/tracer"
)

func main() {
	if err := run(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Error("failed to load config", zap.Error(err))
		return err
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Tracing.Enabled {
		tp, err := tracer.Init(cfg.Tracing)
		if err != nil {
			log.Error("failed to init tracer", zap.Error(err))
			return err
		}
		defer func() {
			if err := tp.Shutdown(context.Background()); err != nil {
				log.Warn("tracer shutdown failed", zap.Error(err))
			}
		}()
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Error("failed to connect to database", zap.Error(err))
		return err
	}
	if err := database.Migrate(db, log); err != nil {
		log.Error("failed to run migrations", zap.Error(err))
		return err
	}

	collector := metrics.NewCollector("smartmed")
	jwtManager := auth.NewJWTManager(cfg.JWT)
	sender := mailer.NewSendGrid(cfg.Email, log)

	generator, err := ai.NewGeminiClient(ctx, cfg.AI)
	if err != nil {
		log.Error("failed to create gemini client", zap.Error(err))
		return err
	}
	defer generator.Close()

	cronScheduler := scheduler.New(sender, log)
	if cfg.Scheduler.Enabled {
		cronScheduler.Start()
		defer cronScheduler.Stop()
	}

	userRepo := repository.NewUserRepository(db)
	doctorRepo := repository.NewDoctorRepository(db)
	patientRepo := repository.NewPatientRepository(db)
	readingRepo := repository.NewReadingRepository(db)
	reportRepo := repository.NewReportRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	auditSvc := service.NewAuditService(auditRepo, log)
	defer auditSvc.Shutdown()

	reportSvc := service.NewReportService(service.ReportServiceParams{
		Repo:        reportRepo,
		ReadingRepo: readingRepo,
		PatientRepo: patientRepo,
		DoctorRepo:  doctorRepo,
		Generator:   generator,
		Mailer:      sender,
		Scheduler:   cronScheduler,
		AuditSvc:    auditSvc,
		Metrics:     collector,
		AIConfig:    cfg.AI,
		EmailConfig: cfg.Email,
		Logger:      log,
	})
	authSvc := service.NewAuthService(userRepo, doctorRepo, patientRepo, reportSvc, jwtManager, sender, cfg.App.BaseURL, log)
	doctorSvc := service.NewDoctorService(doctorRepo, log)
	patientSvc := service.NewPatientService(patientRepo, reportSvc, auditSvc, collector, log)
	readingSvc := service.NewReadingService(readingRepo, patientRepo, auditSvc, collector, log)

	router := v1.NewRouter(v1.RouterParams{
		Config:     cfg,
		JWTManager: jwtManager,
		Metrics:    collector,
		Logger:     log,
		Auth:       v1.NewAuthHandler(authSvc),
		Doctor:     v1.NewDoctorHandler(doctorSvc),
		Patient:    v1.NewPatientHandler(patientSvc, reportSvc),
		Reading:    v1.NewReadingHandler(readingSvc),
		Report:     v1.NewReportHandler(reportSvc),
	})

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening",
			zap.String("address", srv.Addr),
			zap.String("environment", cfg.App.Environment),
			zap.String("version", cfg.App.Version),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		log.Error("server failed", zap.Error(err))
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
		return err
	}

	log.Info("server stopped")
	return nil
}

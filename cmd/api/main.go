package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/sparc-center/sparc-api/internal/handler"
	"github.com/sparc-center/sparc-api/internal/repository"
	"github.com/sparc-center/sparc-api/internal/service"
	"github.com/sparc-center/sparc-api/pkg/cache"
	"github.com/sparc-center/sparc-api/pkg/config"
	"github.com/sparc-center/sparc-api/pkg/database"
	"github.com/sparc-center/sparc-api/pkg/export"
	"github.com/sparc-center/sparc-api/pkg/jobs"
	"github.com/sparc-center/sparc-api/pkg/logger"
	"github.com/sparc-center/sparc-api/pkg/metrics"
	"github.com/sparc-center/sparc-api/pkg/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatal("connect postgres", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	// Redis backs the session denylist and the lookup cache. The API degrades
	// rather than refusing to start: logged-out tokens then stay valid until
	// expiry, and lookups hit the database every time.
	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		log.Warn("redis unavailable, session revocation and lookup caching disabled", zap.Error(err))
		redisClient = nil
	} else {
		defer redisClient.Close() //nolint:errcheck
	}

	store, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
	if err != nil {
		log.Fatal("init report storage", zap.Error(err))
	}
	signer := storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL)

	validate := validator.New()
	m := metrics.New()

	studentRepo := repository.NewStudentRepository(db)
	employeeRepo := repository.NewEmployeeRepository(db)
	appointmentRepo := repository.NewAppointmentRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	scorecardRepo := repository.NewScoreCardRepository(db)
	lookupRepo := repository.NewLookupRepository(db)
	sessionRepo := repository.NewSessionRepository(redisClient)
	reportRepo := repository.NewReportRepository(db)

	authService := service.NewAuthService(studentRepo, employeeRepo, sessionRepo, validate, log, service.AuthConfig{
		Secret:     cfg.JWT.Secret,
		Expiration: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})
	appointmentService := service.NewAppointmentService(appointmentRepo, employeeRepo, validate, log)
	enrollmentService := service.NewEnrollmentService(enrollmentRepo, studentRepo, employeeRepo, lookupRepo, validate, log)
	scorecardService := service.NewScoreCardService(scorecardRepo, enrollmentRepo, lookupRepo, validate, log)
	employeeService := service.NewEmployeeService(employeeRepo, lookupRepo, validate, log)
	studentService := service.NewStudentService(studentRepo, validate, log)
	lookupService := service.NewLookupService(lookupRepo, redisClient, validate, log)

	reportService := service.NewReportService(reportRepo, studentRepo, scorecardRepo, enrollmentRepo, export.NewPDFExporter(), store, signer, log)
	reportService.AttachObserver(m.ObserveReportJob)

	reportQueue := jobs.NewQueue("reports", reportService.Handle, jobs.QueueConfig{
		Workers:    cfg.Reports.WorkerConcurrency,
		MaxRetries: cfg.Reports.WorkerRetries,
		RetryDelay: 5 * time.Second,
		Logger:     log,
	})
	reportService.AttachQueue(reportQueue)

	cookie := handler.CookieOptions{
		Name:   cfg.JWT.CookieName,
		TTL:    cfg.JWT.Expiration,
		Secure: cfg.Env == config.EnvProduction,
	}
	handlers := handler.Handlers{
		Auth:         handler.NewAuthHandler(authService, cookie),
		Appointments: handler.NewAppointmentHandler(appointmentService),
		Enrollments:  handler.NewEnrollmentHandler(enrollmentService, scorecardService),
		ScoreCards:   handler.NewScoreCardHandler(scorecardService),
		Reports:      handler.NewReportHandler(reportService),
		Students:     handler.NewStudentHandler(studentService),
		Employees:    handler.NewEmployeeHandler(employeeService),
		Lookups:      handler.NewLookupHandler(lookupService),
	}

	router := handler.NewRouter(cfg, log, m, authService, handlers, db, redisClient)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reportQueue.Start(ctx)
	defer reportQueue.Stop()

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("server listening", zap.Int("port", cfg.Port), zap.String("env", cfg.Env))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
}

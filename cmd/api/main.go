package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/xavierca1/ligue-leads/internal/config"
	"github.com/xavierca1/ligue-leads/internal/entity"
	"github.com/xavierca1/ligue-leads/internal/infra/cache"
	"github.com/xavierca1/ligue-leads/internal/infra/database"
	"github.com/xavierca1/ligue-leads/internal/infra/http/handlers"
	"github.com/xavierca1/ligue-leads/internal/infra/http/middleware"
	"github.com/xavierca1/ligue-leads/internal/infra/logger"
	"github.com/xavierca1/ligue-leads/internal/infra/mail"
	"github.com/xavierca1/ligue-leads/internal/infra/queue"
	"github.com/xavierca1/ligue-leads/internal/infra/worker"
	"github.com/xavierca1/ligue-leads/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat, "ligue-leads")
	if err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewDBConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("database unavailable", zap.Error(err))
	}
	defer db.Close()

	rabbitMQ, err := queue.NewRabbitMQ(cfg.RabbitMQURL)
	if err != nil {
		log.Fatal("rabbitmq unavailable", zap.Error(err))
	}
	defer rabbitMQ.Close()

	rdb, err := cache.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Fatal("redis unavailable", zap.Error(err))
	}
	defer rdb.Close()

	// 1. Repositories
	leadRepo := database.NewLeadRepository(db)
	activityRepo := database.NewActivityRepository(db)

	// 2. Adapters
	clock := entity.SystemClock{}
	producer := queue.NewProducer(rabbitMQ.Ch)
	lock := cache.NewWarningLock(rdb)
	mailSender := mail.NewEmailSender(cfg.Mail.Host, cfg.Mail.Port, cfg.Mail.User, cfg.Mail.Password, cfg.Mail.From)

	// 3. UseCases
	useCases := handlers.LeadUseCases{
		CreateLead:           usecase.NewCreateLeadUseCase(leadRepo, clock, cfg.Scoring.Weights(), log),
		GetLead:              usecase.NewGetLeadUseCase(leadRepo, clock, log),
		DocumentFirstContact: usecase.NewDocumentFirstContactUseCase(leadRepo, clock, cfg.Scoring.Weights(), log),
		LogActivity:          usecase.NewLogActivityUseCase(leadRepo, activityRepo, clock, cfg.Scoring.Weights(), log),
		ListActivities:       usecase.NewListActivitiesUseCase(leadRepo, activityRepo),
		UpdateEngagement:     usecase.NewUpdateEngagementUseCase(leadRepo, activityRepo, clock, cfg.Scoring.Weights(), log),
		ChangeStatus:         usecase.NewChangeStatusUseCase(leadRepo, clock, log),
		DeleteLead:           usecase.NewDeleteLeadUseCase(leadRepo, clock, log),
		ListOverduePreClaim:  usecase.NewListOverduePreClaimUseCase(leadRepo, clock),
	}
	scanDeadlines := usecase.NewScanDeadlinesUseCase(leadRepo, producer, lock, clock, log)

	// 4. Workers: the scanner publishes, the consumer emails the owner
	go worker.NewDeadlineWarningWorker(scanDeadlines, cfg.DeadlineScanEvery, log).Start(ctx)

	consumer := queue.NewWorker(rabbitMQ.Ch, mailSender, log)
	go func() {
		if err := consumer.Start(ctx, queue.QueueName); err != nil {
			log.Error("deadline warning consumer stopped", zap.Error(err))
		}
	}()

	// 5. Handlers
	leadHandler := handlers.NewLeadHandler(ctx, useCases, log)
	healthHandler := handlers.NewHealthHandler(db, rabbitMQ.Conn, rdb)

	// 6. Router
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "If-Match"},
		ExposedHeaders: []string{"ETag", "Location"},
	}))

	r.Get("/health", healthHandler.Handle)
	r.Handle("/metrics", promhttp.Handler())
	leadHandler.Routes(r)

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Info("lead protection service listening", zap.String("addr", srv.Addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("http server failed", zap.Error(err))
	}
}

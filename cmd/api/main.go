package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"realty-crm/internal/audit"
	"realty-crm/internal/auth"
	"realty-crm/internal/calls"
	"realty-crm/internal/campaigns"
	"realty-crm/internal/config"
	"realty-crm/internal/httpapi"
	"realty-crm/internal/outcome"
	"realty-crm/internal/reporting"
	"realty-crm/internal/schedule"
	"realty-crm/internal/voice"
	"realty-crm/pkg/logger"
	"realty-crm/pkg/utils"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	authManager, err := auth.NewManager(cfg.Auth)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}

	db, err := utils.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
	if err != nil {
		log.Error("postgres init failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr(), Password: cfg.Redis.Password})
	if err != nil {
		log.Error("redis init failed", "err", err)
		os.Exit(1)
	}
	defer rdb.Close()

	scripts, err := voice.LoadScriptBook(cfg.Campaign.ScriptsFile)
	if err != nil {
		log.Error("call scripts load failed", "err", err)
		os.Exit(1)
	}

	voiceClient := voice.NewClient(cfg.Voice, nil)
	callRepo := calls.NewPostgresRepo(db)
	campaignRepo := campaigns.NewPostgresRepo(db)
	events := audit.NewService(audit.NewPostgresRepo(db))
	scheduler := schedule.New(schedule.NewRedisStore(rdb, ""), log)

	orch := campaigns.NewOrchestrator(campaigns.Deps{
		Initiator:   voice.NewInitiator(voiceClient, scripts),
		Transcripts: voiceClient,
		Classifier:  outcome.NewRuleClassifier(),
		Calls:       callRepo,
		Updater:     calls.NewUpdater(callRepo),
		Campaigns:   campaignRepo,
		Scheduler:   scheduler,
		Guard:       schedule.NewRedisGuard(rdb, "", cfg.Campaign.ClassifyLockTTL),
		Events:      events,
		Log:         log,
	}, campaigns.Options{
		ClassifyDelay:     cfg.Campaign.ClassifyDelay,
		DeployConcurrency: cfg.Campaign.DeployConcurrency,
	})

	// scheduled passes outlive the signal context; Shutdown below bounds them
	if err := scheduler.Start(context.WithoutCancel(rootCtx), orch.HandleDue); err != nil {
		log.Error("scheduler start failed", "err", err)
		os.Exit(1)
	}

	h := httpapi.Handlers{
		Campaigns:     campaignRepo,
		Dialer:        orch,
		Calls:         callRepo,
		Reports:       reporting.NewService(callRepo),
		Events:        events,
		WebhookSecret: cfg.Voice.WebhookSecret,
	}

	// Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	registerRoutes(r, h, auth.RequireAccessToken(authManager), func(ctx context.Context) error {
		if err := utils.HealthCheck(ctx, db, 2*time.Second); err != nil {
			return err
		}
		return rdb.Ping(ctx).Err()
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}
	// pending classifications stay in Redis for the next start
	scheduler.Shutdown(shutdownCtx)
}

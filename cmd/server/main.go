package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/redis/go-redis/v9"

	"github.com/ignite/ses-bounce-handler/internal/account"
	"github.com/ignite/ses-bounce-handler/internal/config"
	"github.com/ignite/ses-bounce-handler/internal/dedupe"
	"github.com/ignite/ses-bounce-handler/internal/notification"
	"github.com/ignite/ses-bounce-handler/internal/pkg/httpretry"
	"github.com/ignite/ses-bounce-handler/internal/pkg/logger"
	"github.com/ignite/ses-bounce-handler/internal/repository/postgres"
	"github.com/ignite/ses-bounce-handler/internal/sns"
	"github.com/ignite/ses-bounce-handler/internal/suppression"
	"github.com/ignite/ses-bounce-handler/internal/webhook"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	cfg, err := config.LoadFromEnv(configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	appLog := logger.New(logger.ParseLevel(cfg.Logging.Level), cfg.Logging.Redact())

	if cfg.Database.URL == "" {
		log.Fatal("database url is required (config database.url or DATABASE_URL)")
	}
	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Minute)
	if err := db.Ping(); err != nil {
		log.Fatalf("ping database: %v", err)
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			appLog.Warn("redis unreachable, duplicate-delivery guard disabled",
				"addr", cfg.Redis.Addr, "error", err.Error())
			redisClient = nil
		}
	}

	var suppressor account.Suppressor
	if cfg.Suppression.Enabled {
		syncer, err := suppression.NewSyncer(context.Background(), cfg.Suppression.Region)
		if err != nil {
			log.Fatalf("init suppression syncer: %v", err)
		}
		suppressor = syncer
	}

	repo := postgres.NewAccountRepo(db)
	reconciler := account.NewService(repo, suppressor, appLog)
	classifier := notification.NewClassifier(reconciler, appLog)
	validator := sns.NewValidator(&http.Client{Timeout: cfg.SNS.CertTimeout()}, appLog)
	guard := dedupe.NewGuard(redisClient, cfg.Redis.TTL(), appLog)
	confirmClient := httpretry.New(&http.Client{Timeout: cfg.SNS.ConfirmTimeout()}, cfg.SNS.ConfirmRetries)

	handler := webhook.NewHandler(validator, classifier, guard, confirmClient, cfg.SNS.TopicArn, appLog)

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      handler.Routes(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("bounce handler listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down bounce handler...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	srv.Shutdown(ctx)
	db.Close()
	if redisClient != nil {
		redisClient.Close()
	}
}

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

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"github.com/Zendevve/vscord/config"
	"github.com/Zendevve/vscord/internal/broker"
	channelModel "github.com/Zendevve/vscord/internal/channel/model"
	channelRepository "github.com/Zendevve/vscord/internal/channel/repository"
	channelUsecase "github.com/Zendevve/vscord/internal/channel/usecase"
	"github.com/Zendevve/vscord/internal/identity"
	"github.com/Zendevve/vscord/internal/session"
	userModel "github.com/Zendevve/vscord/internal/user/model"
	userRepository "github.com/Zendevve/vscord/internal/user/repository"
	"github.com/Zendevve/vscord/pkg/logger"
)

func main() {
	// .env is optional; env vars win either way.
	_ = godotenv.Load()

	v, err := config.LoadConfig("config")
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	cfg, err := config.ParseConfig(v)
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}

	appLogger, err := logger.NewLogger(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}

	ctx := context.Background()

	db, err := connectDB(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer db.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	b, err := broker.NewRedisBroker(ctx, redisClient, broker.Options{
		ResumeTTL: cfg.Presence.ResumeTTL,
		StatusTTL: cfg.Presence.StatusCacheTTL,
	}, *appLogger)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}

	userRepo := userRepository.NewUserRepository(db, *appLogger)
	channelRepo := channelRepository.NewChannelRepository(db, *appLogger)
	channelUC := channelUsecase.NewChannelUsecase(channelRepo, *appLogger)
	provider := identity.NewGitHubProvider(cfg.Identity.BaseURL, cfg.Identity.Timeout)

	manager := session.NewManager(cfg.Presence, userRepo, channelUC, b, provider, *appLogger)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go manager.Run(runCtx)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", manager.ServeWS)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: mux,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		appLogger.Info("server listening", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe: %v", err)
		}
	}()

	<-done
	appLogger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("http shutdown failed", "err", err)
	}
	manager.Shutdown(shutdownCtx)
	cancel()
	if err := b.Close(); err != nil {
		appLogger.Error("broker close failed", "err", err)
	}
	appLogger.Info("server exited")
}

func connectDB(ctx context.Context, cfg *config.Config) (*bun.DB, error) {
	connector := pgdriver.NewConnector(pgdriver.WithDSN(cfg.Bun.DSN))
	sqlDB := sql.OpenDB(connector)
	sqlDB.SetMaxOpenConns(cfg.Bun.MaxOpenConns)

	db := bun.NewDB(sqlDB, pgdialect.New())

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return nil, err
	}

	// Idempotent bootstrap; real deployments can swap in migrations.
	tables := []any{
		(*userModel.User)(nil),
		(*userModel.Preferences)(nil),
		(*userModel.GuestUser)(nil),
		(*channelModel.Channel)(nil),
		(*channelModel.ChannelMember)(nil),
	}
	for _, t := range tables {
		if _, err := db.NewCreateTable().Model(t).IfNotExists().Exec(ctx); err != nil {
			return nil, err
		}
	}
	return db, nil
}

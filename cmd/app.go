package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"

	"github.com/milyonersgroup/catchthespy/internal/application/config"
	"github.com/milyonersgroup/catchthespy/internal/application/constant"
	"github.com/milyonersgroup/catchthespy/internal/application/metric"
	"github.com/milyonersgroup/catchthespy/internal/infra/adapters/memory"
	"github.com/milyonersgroup/catchthespy/internal/infra/adapters/postgres"
	"github.com/milyonersgroup/catchthespy/internal/infra/adapters/postgres/repository"
	"github.com/milyonersgroup/catchthespy/internal/infra/ports/http/handlers"
	"github.com/milyonersgroup/catchthespy/internal/infra/ports/http/server"
	"github.com/milyonersgroup/catchthespy/internal/usecase"
)

func runApp() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	_ = godotenv.Load()

	slog.SetDefault(
		slog.New(
			slog.NewJSONHandler(
				os.Stdout,
				&slog.HandlerOptions{Level: slog.LevelInfo},
			),
		),
	)

	cfg, err := config.New()
	if err != nil {
		slog.Error("parse config", slog.Any(constant.Error, err))
		os.Exit(1)
	}

	dbConn, err := postgres.NewPostgres(ctx, cfg.Postgres.DSN())
	if err != nil {
		slog.Error("connect to postgres", slog.Any(constant.Error, err))
		os.Exit(1)
	}
	defer dbConn.Close()

	scoreRepo := repository.NewScoreRepo(dbConn)
	categoryRepo := repository.NewCategoryRepo(dbConn)

	roomStore := memory.NewRoomStore()

	wordUsecase, err := usecase.NewWordUsecase(ctx, categoryRepo)
	if err != nil {
		slog.Error("load word categories", slog.Any(constant.Error, err))
		os.Exit(1)
	}

	identityUsecase := usecase.NewIdentityUsecase([]byte(cfg.JWTSecret))
	roomUsecase := usecase.NewRoomUsecase(cfg.Room, roomStore, wordUsecase)
	gameUsecase := usecase.NewGameUsecase(cfg.Room.MinPlayers, roomStore, wordUsecase, scoreRepo)

	authHandler := handlers.NewAuthHandler(identityUsecase)
	roomHandler := handlers.NewRoomHandler(roomUsecase, wordUsecase)
	scoreHandler := handlers.NewScoreHandler(scoreRepo)
	wsHandler := handlers.NewWebSocketHandler(cfg, roomUsecase, gameUsecase)

	echoSrv := server.New(cfg, identityUsecase, authHandler, roomHandler, scoreHandler, wsHandler)

	metricsSrv := metric.NewServer()

	go roomUsecase.RunSweeper(ctx)

	echoSrvCh := make(chan error, 1)
	metricsSrvCh := make(chan error, 1)

	go func() {
		echoSrvCh <- echoSrv.Start(":" + cfg.Port)
	}()

	go func() {
		metricsSrvCh <- metricsSrv.Start(":" + cfg.MetricPort)
	}()

	select {
	case <-ctx.Done():
		slog.Info("Shutting down servers due to context cancel")
	case err := <-echoSrvCh:
		slog.Error(
			"HTTP server failed",
			slog.Any(constant.Error, err),
		)
		os.Exit(1)
	case err := <-metricsSrvCh:
		slog.Error(
			"Metrics server failed",
			slog.Any(constant.Error, err),
		)
		os.Exit(1)
	}

	timeoutCtx, timeoutCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer timeoutCancel()

	if err := echoSrv.Shutdown(timeoutCtx); err != nil {
		slog.Error("Failed to gracefully shutdown HTTP server", slog.Any(constant.Error, err))
	}

	if err := metricsSrv.Shutdown(timeoutCtx); err != nil {
		slog.Error("Failed to gracefully shutdown metric server", slog.Any(constant.Error, err))
	}
}

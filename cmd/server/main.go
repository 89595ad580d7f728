package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/common-nighthawk/go-figure"

	"github.com/oggyb/daily-riddle/internal/achievement"
	"github.com/oggyb/daily-riddle/internal/app"
	"github.com/oggyb/daily-riddle/internal/cache"
	"github.com/oggyb/daily-riddle/internal/config"
	"github.com/oggyb/daily-riddle/internal/db"
	"github.com/oggyb/daily-riddle/internal/httpapi"
	"github.com/oggyb/daily-riddle/internal/logger"
	"github.com/oggyb/daily-riddle/internal/server"
	"github.com/oggyb/daily-riddle/internal/service/challenge"
)

func main() {
	printStartUpBanner()

	cfg := config.New()

	// Init logger (global singleton)
	logger.InitFromConfig(cfg)
	log := logger.L() // slog.Logger pointer

	// Init DB
	database, err := db.NewDB(cfg)
	if err != nil {
		log.Error("failed to init db", "err", err)
		os.Exit(1)
	}

	// Init Redis
	redisCache := cache.NewRedisCache(cfg)
	if err := redisCache.Ping(context.Background()); err != nil {
		log.Error("failed to connect to redis", "err", err)
		os.Exit(1)
	}

	if cfg.App.ENV == "development" {
		if err := db.SeedTestData(database); err != nil {
			log.Error("failed to seed", "err", err)
		}
	}

	// Inject logger into app context
	appCtx := app.New(database, redisCache, log, cfg, nil)
	svc, registrar := challenge.NewFromApp(appCtx)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup

	// achievement evaluations that failed after a committed answer
	worker := achievement.NewRetryWorker(svc.RetryQueue(), svc.Achievements(), cfg.Achievements.RetryInterval, log)
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Run(ctx)
	}()

	grpcServer := server.NewGRPCServer(log, registrar)
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info("starting gRPC server", "addr", cfg.GRPC.Host+":"+cfg.GRPC.Port)
		if err := server.StartGRPCServer(cfg, grpcServer); err != nil {
			log.Error("gRPC server stopped", "err", err)
			stop()
		}
	}()

	router := httpapi.NewRouter(svc, cfg, log)
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info("starting HTTP server", "addr", cfg.HTTP.Host+":"+cfg.HTTP.Port, "day_zone", appCtx.Clock.Location().String())
		if err := httpapi.StartHTTPServer(ctx, cfg, router); err != nil {
			log.Error("HTTP server stopped", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	grpcServer.GracefulStop()
	wg.Wait()
}

func printStartUpBanner() {
	myFigure := figure.NewFigure("DAILY RIDDLE", "", true)
	myFigure.Print()

	fmt.Println("======================================================")
	fmt.Printf("Daily Riddle challenge engine (v%s)\n\n", "1.0.0")
}

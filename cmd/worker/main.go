package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"content-pipeline/cmd/internal/app"
	"content-pipeline/cmd/internal/eventbus"
	"content-pipeline/cmd/internal/logger"
	"content-pipeline/config"
	"content-pipeline/db"
)

func main() {
	config.InitApp()
	cfg := config.GetConfig()
	logger.InitFromEnv("LOG_LEVEL", cfg.Logging.Level)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// MongoDB 초기화
	if err := db.Init(ctx, cfg.Mongo); err != nil {
		logger.Log.Errorf("failed to initialize MongoDB: %v", err)
		os.Exit(1)
	}
	defer db.Disconnect(context.Background())

	a, err := app.New(ctx, cfg, db.Database())
	if err != nil {
		logger.Log.Errorf("failed to wire application: %v", err)
		os.Exit(1)
	}
	defer a.Close()

	worker := a.Worker()

	logger.Log.Info("starting generation worker service...")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	var wg sync.WaitGroup

	// 폴링 루프. 이벤트가 없어도 pending 작업은 여기서 처리된다.
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Log.Errorf("generation worker error: %v", err)
		}
	}()

	// kafka 가 켜져 있으면 generation.requested 이벤트로 즉시 깨운다.
	if a.Bus != nil {
		groupID := cfg.Kafka.GroupID + "-worker"
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := a.Bus.Subscribe(ctx, groupID, eventbus.TopicGenerationEvents, worker.HandleEvent)
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Log.Errorf("eventbus subscribe error: %v", err)
			}
		}()
	}

	<-sigChan
	logger.Log.Info("received shutdown signal, shutting down generation worker...")

	cancel()
	wg.Wait()

	logger.Log.Info("generation worker stopped")
}

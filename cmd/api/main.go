package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"content-pipeline/cmd/api/router"
	"content-pipeline/cmd/api/services"
	"content-pipeline/cmd/internal/app"
	"content-pipeline/cmd/internal/logger"
	"content-pipeline/config"
	"content-pipeline/db"
)

// @title           Content Pipeline API
// @version         1.0
// @description     Discover sources for a topic, synthesize articles and manage them
// @BasePath        /api/v1
func main() {
	config.InitApp()
	cfg := config.GetConfig()
	logger.InitFromEnv("LOG_LEVEL", cfg.Logging.Level)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

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

	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := router.New(router.Services{
		Generation: services.NewGenerationService(a.Orchestrator, a.Queue("api"), a.Tasks, cfg.Pipeline.GenerateTimeout),
		Articles:   services.NewArticleService(a.Articles, a.Images, a.Preview),
		Sources:    services.NewSourceService(a.Sources),
		Configs:    services.NewConfigService(a.Themes),
		Ping: func(ctx context.Context) error {
			return db.Client().Ping(ctx, readpref.Primary())
		},
	})

	handler := cors.New(cors.Options{
		AllowedOrigins: cfg.HTTP.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
	}).Handler(engine)

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Log.Infof("api listening on %s", cfg.HTTP.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Errorf("http server error: %v", err)
			cancel()
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigChan:
	case <-ctx.Done():
	}
	logger.Log.Info("shutting down api service...")

	shutdownCtx, stop := context.WithTimeout(context.Background(), 15*time.Second)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Errorf("http shutdown error: %v", err)
	}
	logger.Log.Info("api service stopped")
}

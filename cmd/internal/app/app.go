package app

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"

	"content-pipeline/cmd/internal/analyzer"
	"content-pipeline/cmd/internal/browser"
	"content-pipeline/cmd/internal/discovery"
	"content-pipeline/cmd/internal/eventbus"
	"content-pipeline/cmd/internal/fetcher"
	"content-pipeline/cmd/internal/images"
	"content-pipeline/cmd/internal/llm"
	"content-pipeline/cmd/internal/logger"
	"content-pipeline/cmd/internal/pipeline"
	"content-pipeline/cmd/internal/preview"
	"content-pipeline/cmd/internal/quota"
	"content-pipeline/cmd/internal/search"
	"content-pipeline/cmd/internal/synthesizer"
	"content-pipeline/cmd/internal/tasks"
	"content-pipeline/cmd/internal/themes"
	"content-pipeline/config"
	"content-pipeline/repositories"
)

// App holds the wired components shared by the binaries.
type App struct {
	Config config.AppConfig

	Sources  *repositories.SourceRepository
	Articles *repositories.GeneratedArticleRepository
	Images   *repositories.ImageRepository
	Tasks    *repositories.GenerationTaskRepository
	Themes   *themes.Resolver
	Preview  *preview.Renderer

	Orchestrator *pipeline.Orchestrator

	// Bus is nil unless kafka is enabled.
	Bus eventbus.EventBus
}

// New wires every component on top of database.
func New(ctx context.Context, cfg config.AppConfig, database *mongo.Database) (*App, error) {
	a := &App{
		Config:   cfg,
		Sources:  repositories.NewSourceRepository(database),
		Articles: repositories.NewGeneratedArticleRepository(database),
		Images:   repositories.NewImageRepository(database),
		Tasks:    repositories.NewGenerationTaskRepository(database),
		Preview:  preview.New(cfg.Preview),
	}
	a.Themes = themes.NewResolver(repositories.NewThemeConfigRepository(database), cfg.ThemeDefaults)

	limiter := quota.NewLimiter(cfg.LLMQuota)
	client, err := llm.NewGeminiClient(ctx, cfg.LLM, cfg.Pipeline.LLMTimeout, limiter, repositories.NewLLMLogRepository(database))
	if err != nil {
		return nil, fmt.Errorf("init llm client: %w", err)
	}

	searcher, err := search.New(cfg.Search, cfg.Fetcher.UserAgent)
	if err != nil {
		return nil, fmt.Errorf("init search: %w", err)
	}
	pages := fetcher.New(cfg.Fetcher)
	launcher := browser.NewLauncher(cfg.Browser, cfg.Fetcher.UserAgent)

	deps := pipeline.Deps{
		Discoverer:  discovery.New(searcher, launcher, pages, analyzer.New(client), a.Sources),
		Synthesizer: synthesizer.New(a.Sources, pages, client),
		Sources:     a.Sources,
		Articles:    a.Articles,
		Images:      a.Images,
		Configs:     a.Themes,
	}
	if cfg.Images.AccessKey != "" {
		deps.Finder = images.NewUnsplashFinder(cfg.Images)
	} else {
		logger.Log.Warn("UNSPLASH_ACCESS_KEY is not set, articles will have no images")
	}
	if cfg.Preview.Enabled {
		deps.Preview = a.Preview
	}
	a.Orchestrator = pipeline.New(deps)

	if cfg.Kafka.Enabled {
		bus, err := openBus(ctx, cfg.Kafka)
		if err != nil {
			return nil, err
		}
		a.Bus = bus
	}
	return a, nil
}

func openBus(ctx context.Context, cfg config.KafkaConfig) (eventbus.EventBus, error) {
	for _, t := range eventbus.AllTopics {
		if err := eventbus.EnsureTopics(ctx, cfg.Brokers, t, cfg.Partitions); err != nil {
			logger.Log.Errorf("failed to ensure eventbus topics for %s: %v", t.Base(), err)
		}
	}
	bus, err := eventbus.NewKafkaEventBus(cfg.Brokers)
	if err != nil {
		return nil, fmt.Errorf("init event bus: %w", err)
	}
	return bus, nil
}

// Queue returns a task queue announcing on the bus when one is configured.
func (a *App) Queue(source string) *tasks.Queue {
	var pub eventbus.Publisher
	if a.Bus != nil {
		pub = a.Bus
	}
	return tasks.NewQueue(a.Tasks, pub, source)
}

// Worker returns the FIFO generation worker.
func (a *App) Worker() *tasks.Worker {
	var pub eventbus.Publisher
	if a.Bus != nil {
		pub = a.Bus
	}
	return tasks.NewWorker(a.Tasks, a.Orchestrator, a.Themes, pub, tasks.WorkerOptions{
		PollInterval: a.Config.Worker.PollInterval,
		RunTimeout:   a.Config.Pipeline.GenerateTimeout,
	})
}

func (a *App) Close() {
	if a.Bus != nil {
		a.Bus.Close()
	}
}

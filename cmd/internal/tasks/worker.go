package tasks

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"content-pipeline/cmd/internal/eventbus"
	"content-pipeline/cmd/internal/logger"
	"content-pipeline/cmd/internal/pipeline"
	"content-pipeline/events"
	"content-pipeline/models"
)

// Runner runs the pipeline with an already resolved configuration.
type Runner interface {
	RunWithConfig(ctx context.Context, cfg models.ThemeConfig) (*pipeline.Result, error)
}

type ConfigResolver interface {
	Resolve(ctx context.Context, topic string) (models.ThemeConfig, bool, error)
	ResolveByID(ctx context.Context, id primitive.ObjectID) (models.ThemeConfig, error)
}

type WorkerOptions struct {
	PollInterval time.Duration
	// RunTimeout bounds one task. Zero means no limit.
	RunTimeout time.Duration
	Source     string
}

// Worker drains pending tasks one at a time in request order.
type Worker struct {
	store   Store
	runner  Runner
	configs ConfigResolver
	bus     eventbus.Publisher
	opts    WorkerOptions

	wake chan struct{}
	mu   sync.Mutex
}

// NewWorker builds a worker. bus may be nil.
func NewWorker(store Store, runner Runner, configs ConfigResolver, bus eventbus.Publisher, opts WorkerOptions) *Worker {
	if opts.PollInterval <= 0 {
		opts.PollInterval = 30 * time.Second
	}
	if opts.Source == "" {
		opts.Source = "worker"
	}
	return &Worker{
		store:   store,
		runner:  runner,
		configs: configs,
		bus:     bus,
		opts:    opts,
		wake:    make(chan struct{}, 1),
	}
}

// Notify asks the worker to look for pending tasks now. It never blocks.
func (w *Worker) Notify() {
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// HandleEvent is an eventbus handler that wakes the worker on task requests.
func (w *Worker) HandleEvent(_ context.Context, evt eventbus.Event) error {
	if evt.Type == string(events.GenerationRequested) {
		w.Notify()
	}
	return nil
}

// Run polls until ctx is done.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.opts.PollInterval)
	defer ticker.Stop()

	logger.Log.Infof("generation worker started (poll every %s)", w.opts.PollInterval)
	for {
		if _, err := w.Drain(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Log.Errorf("generation worker: %v", err)
		}
		select {
		case <-ctx.Done():
			logger.Log.Info("generation worker stopped")
			return ctx.Err()
		case <-ticker.C:
		case <-w.wake:
		}
	}
}

// Drain processes pending tasks until the queue is empty and returns how many ran.
func (w *Worker) Drain(ctx context.Context) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	n := 0
	for {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		task, err := w.store.ClaimNextPending(ctx)
		if err != nil {
			return n, err
		}
		if task == nil {
			return n, nil
		}
		w.process(ctx, task)
		n++
	}
}

func (w *Worker) process(ctx context.Context, task *models.GenerationTask) {
	fields := logger.Fields{"task_id": task.ID.Hex(), "topic": task.Topic}
	logger.InfoWithFields("generation task started", fields)

	runCtx := ctx
	if w.opts.RunTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, w.opts.RunTimeout)
		defer cancel()
	}

	res, err := w.run(runCtx, task)
	finished := events.GenerationFinishedEvent{
		BaseEvent: events.NewBase(task.ID.Hex()+":"+string(events.GenerationFinished), events.GenerationFinished, w.opts.Source, time.Now()),
		TaskID:    task.ID.Hex(),
		Topic:     task.Topic,
	}

	// 상태 갱신은 실행 ctx 가 취소돼도 남아야 한다
	storeCtx := context.WithoutCancel(ctx)
	if err != nil {
		finished.State = string(models.TaskStateError)
		finished.Error = err.Error()
		var abort *pipeline.AbortError
		if errors.As(err, &abort) {
			finished.Stage = string(abort.State)
			finished.Error = abort.Outcome()
		}
		if ferr := w.store.Fail(storeCtx, task.ID, finished.Error); ferr != nil {
			logger.Log.Errorf("could not mark task %s as failed: %v", task.ID.Hex(), ferr)
		}
		fields["error"] = err.Error()
		logger.WarnWithFields("generation task failed", fields)
	} else {
		finished.State = string(models.TaskStateCompleted)
		finished.ArticleID = res.ArticleID.Hex()
		if cerr := w.store.Complete(storeCtx, task.ID, res.ArticleID); cerr != nil {
			logger.Log.Errorf("could not mark task %s as completed: %v", task.ID.Hex(), cerr)
		}
		fields["article_id"] = res.ArticleID.Hex()
		logger.InfoWithFields("generation task completed", fields)
	}

	if w.bus != nil {
		if err := publish(storeCtx, w.bus, task.ID.Hex(), events.GenerationFinished, finished); err != nil {
			logger.Log.Warnf("could not announce result of task %s: %v", task.ID.Hex(), err)
		}
	}
}

func (w *Worker) run(ctx context.Context, task *models.GenerationTask) (*pipeline.Result, error) {
	var (
		cfg models.ThemeConfig
		err error
	)
	if task.ConfigurationID != nil {
		cfg, err = w.configs.ResolveByID(ctx, *task.ConfigurationID)
	} else {
		cfg, _, err = w.configs.Resolve(ctx, task.Topic)
	}
	if err != nil {
		return nil, err
	}
	// 저장된 설정을 골라도 주제는 작업의 것을 따른다
	cfg.Topic = task.Topic
	return w.runner.RunWithConfig(ctx, cfg)
}

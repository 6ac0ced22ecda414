package services

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"content-pipeline/cmd/api/dto"
	"content-pipeline/cmd/internal/pipeline"
	"content-pipeline/models"
	"content-pipeline/repositories"
)

type PipelineRunner interface {
	Run(ctx context.Context, topic string) (*pipeline.Result, error)
}

type TaskQueue interface {
	Enqueue(ctx context.Context, topic string, configID *primitive.ObjectID) (*models.GenerationTask, error)
}

type TaskReader interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.GenerationTask, error)
	List(ctx context.Context, opt repositories.ListTasksOptions) ([]models.GenerationTask, int64, error)
}

// GenerationService runs the pipeline synchronously or queues it as a task.
type GenerationService struct {
	runner  PipelineRunner
	queue   TaskQueue
	tasks   TaskReader
	timeout time.Duration
}

func NewGenerationService(runner PipelineRunner, queue TaskQueue, tasks TaskReader, timeout time.Duration) *GenerationService {
	return &GenerationService{runner: runner, queue: queue, tasks: tasks, timeout: timeout}
}

// Generate runs the whole pipeline for topic before returning.
func (s *GenerationService) Generate(ctx context.Context, topic string) (*dto.GenerateResponseDTO, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, ErrEmptyTopic
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	res, err := s.runner.Run(ctx, topic)
	if err != nil {
		return nil, err
	}
	states := make([]string, 0, len(res.States))
	for _, st := range res.States {
		states = append(states, string(st))
	}
	return &dto.GenerateResponseDTO{
		Message:   "article generated",
		ArticleID: res.ArticleID.Hex(),
		States:    states,
	}, nil
}

func (s *GenerationService) Enqueue(ctx context.Context, req dto.EnqueueRequestDTO) (*dto.EnqueueResponseDTO, error) {
	topic := strings.TrimSpace(req.Topic)
	if topic == "" {
		return nil, ErrEmptyTopic
	}
	var cfgID *primitive.ObjectID
	if raw := strings.TrimSpace(req.ConfigurationID); raw != "" {
		id, err := repositories.ParseObjectID(raw)
		if err != nil {
			return nil, err
		}
		cfgID = &id
	}
	task, err := s.queue.Enqueue(ctx, topic, cfgID)
	if err != nil {
		return nil, err
	}
	return &dto.EnqueueResponseDTO{TaskID: task.ID.Hex()}, nil
}

type ListTasksInput struct {
	Page     int
	PageSize int
	State    string
}

func (s *GenerationService) ListTasks(ctx context.Context, in ListTasksInput) (dto.Pagination[dto.TaskDTO], error) {
	page, pageSize := repositories.NormalizePage(in.Page, in.PageSize)
	state := models.TaskState(strings.TrimSpace(in.State))
	if state != "" && !state.Valid() {
		return dto.Pagination[dto.TaskDTO]{}, ErrInvalidState
	}
	items, total, err := s.tasks.List(ctx, repositories.ListTasksOptions{
		Page:     page,
		PageSize: pageSize,
		State:    state,
	})
	if err != nil {
		return dto.Pagination[dto.TaskDTO]{}, err
	}
	out := make([]dto.TaskDTO, 0, len(items))
	for _, t := range items {
		out = append(out, mapTask(t))
	}
	return dto.Pagination[dto.TaskDTO]{Data: out, Page: page, PageSize: pageSize, Total: total}, nil
}

func (s *GenerationService) GetTask(ctx context.Context, hexID string) (*dto.TaskDTO, error) {
	id, err := repositories.ParseObjectID(hexID)
	if err != nil {
		return nil, err
	}
	t, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	out := mapTask(*t)
	return &out, nil
}

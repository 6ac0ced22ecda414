package tasks

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"content-pipeline/cmd/internal/eventbus"
	"content-pipeline/cmd/internal/logger"
	"content-pipeline/events"
	"content-pipeline/models"
)

var ErrEmptyTopic = errors.New("topic is required")

// Store is the generation task persistence used by the queue and the worker.
type Store interface {
	Insert(ctx context.Context, t *models.GenerationTask) (primitive.ObjectID, error)
	ClaimNextPending(ctx context.Context) (*models.GenerationTask, error)
	Complete(ctx context.Context, id primitive.ObjectID, articleID primitive.ObjectID) error
	Fail(ctx context.Context, id primitive.ObjectID, message string) error
}

// Queue stores pending tasks and announces them on the bus.
type Queue struct {
	store  Store
	bus    eventbus.Publisher
	source string
	now    func() time.Time
}

// NewQueue builds a queue. bus may be nil, the worker then only finds tasks by polling.
func NewQueue(store Store, bus eventbus.Publisher, source string) *Queue {
	return &Queue{store: store, bus: bus, source: source, now: time.Now}
}

// Enqueue inserts a pending task for topic and returns it.
// A failed announcement is logged only: the task is already durable.
func (q *Queue) Enqueue(ctx context.Context, topic string, configID *primitive.ObjectID) (*models.GenerationTask, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, ErrEmptyTopic
	}

	task := &models.GenerationTask{
		Topic:           topic,
		ConfigurationID: configID,
		RequestedAt:     q.now(),
	}
	if _, err := q.store.Insert(ctx, task); err != nil {
		return nil, err
	}

	logger.InfoWithFields("generation task queued", logger.Fields{
		"task_id": task.ID.Hex(),
		"topic":   topic,
	})

	if q.bus != nil {
		evt := events.GenerationRequestedEvent{
			BaseEvent: events.NewBase(task.ID.Hex()+":"+string(events.GenerationRequested), events.GenerationRequested, q.source, q.now()),
			TaskID:    task.ID.Hex(),
			Topic:     topic,
		}
		if configID != nil {
			evt.ConfigurationID = configID.Hex()
		}
		if err := publish(ctx, q.bus, task.ID.Hex(), evt.Type, evt); err != nil {
			logger.Log.Warnf("generation task %s queued but not announced: %v", task.ID.Hex(), err)
		}
	}
	return task, nil
}

func publish(ctx context.Context, bus eventbus.Publisher, id string, t events.EventType, payload any) error {
	evt, err := eventbus.NewJSONEvent("", string(t), payload, 0)
	if err != nil {
		return err
	}
	if id != "" {
		evt.ID = id + ":" + string(t)
	}
	return bus.Publish(ctx, eventbus.TopicGenerationEvents.Base(), evt)
}

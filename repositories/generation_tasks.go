package repositories

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"content-pipeline/models"
)

type GenerationTaskRepository struct {
	col *mongo.Collection
}

func NewGenerationTaskRepository(db *mongo.Database) *GenerationTaskRepository {
	return &GenerationTaskRepository{col: db.Collection("generation_tasks")}
}

// Insert stores a new pending task.
func (r *GenerationTaskRepository) Insert(ctx context.Context, t *models.GenerationTask) (primitive.ObjectID, error) {
	now := time.Now()
	t.State = models.TaskStatePending
	if t.RequestedAt.IsZero() {
		t.RequestedAt = now
	}
	t.UpdatedAt = now

	res, err := r.col.InsertOne(ctx, t)
	if err != nil {
		return primitive.NilObjectID, err
	}
	id, _ := res.InsertedID.(primitive.ObjectID)
	t.ID = id
	return id, nil
}

func (r *GenerationTaskRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.GenerationTask, error) {
	var t models.GenerationTask
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&t); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}
	return &t, nil
}

// ClaimNextPending atomically moves the oldest pending task to in_progress and returns it.
// It returns (nil, nil) when the queue is empty.
func (r *GenerationTaskRepository) ClaimNextPending(ctx context.Context) (*models.GenerationTask, error) {
	now := time.Now()
	opts := options.FindOneAndUpdate().
		SetSort(bson.D{{Key: "requested_at", Value: 1}, {Key: "_id", Value: 1}}).
		SetReturnDocument(options.After)

	var t models.GenerationTask
	err := r.col.FindOneAndUpdate(ctx,
		bson.M{"state": models.TaskStatePending},
		bson.M{"$set": bson.M{"state": models.TaskStateInProgress, "updated_at": now}},
		opts,
	).Decode(&t)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Complete moves an in_progress task to completed.
func (r *GenerationTaskRepository) Complete(ctx context.Context, id primitive.ObjectID, articleID primitive.ObjectID) error {
	now := time.Now()
	return r.transition(ctx, id, []models.TaskState{models.TaskStateInProgress}, bson.M{
		"state":             models.TaskStateCompleted,
		"result_article_id": articleID,
		"finished_at":       now,
		"updated_at":        now,
	})
}

// Fail moves a pending or in_progress task to error.
func (r *GenerationTaskRepository) Fail(ctx context.Context, id primitive.ObjectID, message string) error {
	now := time.Now()
	return r.transition(ctx, id, []models.TaskState{models.TaskStatePending, models.TaskStateInProgress}, bson.M{
		"state":         models.TaskStateError,
		"error_message": message,
		"finished_at":   now,
		"updated_at":    now,
	})
}

func (r *GenerationTaskRepository) transition(ctx context.Context, id primitive.ObjectID, from []models.TaskState, set bson.M) error {
	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": id, "state": bson.M{"$in": from}},
		bson.M{"$set": set},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount > 0 {
		return nil
	}
	n, err := r.col.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrTaskNotFound
	}
	return ErrInvalidTransition
}

type ListTasksOptions struct {
	Page     int
	PageSize int
	State    models.TaskState
	Topic    string
}

func (r *GenerationTaskRepository) List(ctx context.Context, opt ListTasksOptions) ([]models.GenerationTask, int64, error) {
	filter := bson.M{}
	if opt.State != "" {
		filter["state"] = opt.State
	}
	if opt.Topic != "" {
		filter["topic"] = opt.Topic
	}

	skip, limit := pageBounds(opt.Page, opt.PageSize)
	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	findOpts := options.Find().SetSkip(skip).SetLimit(limit).SetSort(bson.D{
		{Key: "requested_at", Value: -1},
		{Key: "_id", Value: -1},
	})
	cur, err := r.col.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	var results []models.GenerationTask
	if err := cur.All(ctx, &results); err != nil {
		return nil, 0, err
	}
	return results, total, nil
}

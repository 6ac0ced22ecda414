package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"content-pipeline/models"
)

type LLMLogRepository struct {
	col *mongo.Collection
}

func NewLLMLogRepository(db *mongo.Database) *LLMLogRepository {
	return &LLMLogRepository{col: db.Collection("llm_logs")}
}

func (r *LLMLogRepository) Insert(ctx context.Context, log models.LLMCallLog) (*mongo.InsertOneResult, error) {
	if log.RequestedAt.IsZero() {
		log.RequestedAt = time.Now()
	}
	return r.col.InsertOne(ctx, log)
}

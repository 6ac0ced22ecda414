package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TaskState string

const (
	TaskStatePending    TaskState = "pending"
	TaskStateInProgress TaskState = "in_progress"
	TaskStateCompleted  TaskState = "completed"
	TaskStateError      TaskState = "error"
)

func (s TaskState) Valid() bool {
	switch s {
	case TaskStatePending, TaskStateInProgress, TaskStateCompleted, TaskStateError:
		return true
	}
	return false
}

// GenerationTask is a queued request to run the pipeline for a topic.
// Collection: generation_tasks
//
//	pending -> in_progress -> completed | error
type GenerationTask struct {
	ID              primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Topic           string              `bson:"topic" json:"topic"`
	ConfigurationID *primitive.ObjectID `bson:"configuration_id,omitempty" json:"configuration_id,omitempty"`
	State           TaskState           `bson:"state" json:"state"`
	ErrorMessage    string              `bson:"error_message,omitempty" json:"error_message,omitempty"`
	RequestedAt     time.Time           `bson:"requested_at" json:"requested_at"`
	UpdatedAt       time.Time           `bson:"updated_at" json:"updated_at"`
	FinishedAt      *time.Time          `bson:"finished_at,omitempty" json:"finished_at,omitempty"`
	ResultArticleID *primitive.ObjectID `bson:"result_article_id,omitempty" json:"result_article_id,omitempty"`
}

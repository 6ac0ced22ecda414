package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// LLMCallLog stores one language model call (system monitoring purpose)
// Collection: llm_logs
type LLMCallLog struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Purpose        string             `bson:"purpose" json:"purpose"`
	Topic          string             `bson:"topic,omitempty" json:"topic,omitempty"`
	ModelName      string             `bson:"model_name" json:"model_name"`
	ModelVersion   string             `bson:"model_version" json:"model_version"`
	InputTokens    int64              `bson:"input_tokens" json:"input_tokens"`
	OutputTokens   int64              `bson:"output_tokens" json:"output_tokens"`
	TotalTokens    int64              `bson:"total_tokens" json:"total_tokens"`
	DurationMs     int64              `bson:"duration_ms" json:"duration_ms"`
	ErrorMessage   *string            `bson:"error_message,omitempty" json:"error_message,omitempty"`
	PromptChars    int                `bson:"prompt_chars" json:"prompt_chars"`
	OutputResponse string             `bson:"output_response" json:"output_response"`
	RequestedAt    time.Time          `bson:"requested_at" json:"requested_at"`
	CompletedAt    time.Time          `bson:"completed_at" json:"completed_at"`
}

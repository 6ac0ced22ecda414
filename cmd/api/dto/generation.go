package dto

import "time"

type GenerateRequestDTO struct {
	Topic string `json:"topic" example:"exploración espacial"`
}

type GenerateResponseDTO struct {
	Message   string   `json:"message" example:"article generated"`
	ArticleID string   `json:"article_id"`
	States    []string `json:"states"`
}

type EnqueueRequestDTO struct {
	Topic           string `json:"topic" example:"exploración espacial"`
	ConfigurationID string `json:"configuration_id,omitempty"`
}

type EnqueueResponseDTO struct {
	TaskID string `json:"task_id"`
}

type TaskDTO struct {
	ID              string     `json:"id"`
	Topic           string     `json:"topic"`
	ConfigurationID string     `json:"configuration_id,omitempty"`
	State           string     `json:"state" example:"pending"`
	ErrorMessage    string     `json:"error_message,omitempty"`
	RequestedAt     time.Time  `json:"requested_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	FinishedAt      *time.Time `json:"finished_at,omitempty"`
	ResultArticleID string     `json:"result_article_id,omitempty"`
}

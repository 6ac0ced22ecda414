package events

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType 이벤트 타입
type EventType string

const (
	GenerationRequested EventType = "generation.requested"
	GenerationFinished  EventType = "generation.finished"
)

// BaseEvent 모든 이벤트의 공통 필드
type BaseEvent struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"` // "api", "worker", "pipelinectl"
	Version   string    `json:"version"`
}

// GenerationRequestedEvent wakes the worker for a newly queued task.
// The task document is the source of truth; the event only carries its id.
type GenerationRequestedEvent struct {
	BaseEvent
	TaskID          string `json:"task_id"`
	Topic           string `json:"topic"`
	ConfigurationID string `json:"configuration_id,omitempty"`
}

// GenerationFinishedEvent 작업 종료 이벤트. State 는 completed 또는 error.
type GenerationFinishedEvent struct {
	BaseEvent
	TaskID    string `json:"task_id"`
	Topic     string `json:"topic"`
	State     string `json:"state"`
	ArticleID string `json:"article_id,omitempty"`
	Error     string `json:"error,omitempty"`
	Stage     string `json:"stage,omitempty"`
}

func NewBase(id string, t EventType, source string, at time.Time) BaseEvent {
	return BaseEvent{ID: id, Type: t, Timestamp: at.UTC(), Source: source, Version: "1"}
}

// SerializeEvent 이벤트를 JSON 으로 직렬화하고 타입을 반환한다.
func SerializeEvent(event any) ([]byte, EventType, error) {
	var eventType EventType
	switch e := event.(type) {
	case GenerationRequestedEvent:
		eventType = e.Type
	case GenerationFinishedEvent:
		eventType = e.Type
	default:
		return nil, "", fmt.Errorf("unknown event type: %T", event)
	}

	data, err := json.Marshal(event)
	if err != nil {
		return nil, "", fmt.Errorf("failed to marshal event: %w", err)
	}
	return data, eventType, nil
}

// DeserializeEvent 타입에 맞는 구조체로 역직렬화한다.
func DeserializeEvent(eventType EventType, data []byte) (any, error) {
	var event any
	switch eventType {
	case GenerationRequested:
		event = &GenerationRequestedEvent{}
	case GenerationFinished:
		event = &GenerationFinishedEvent{}
	default:
		return nil, fmt.Errorf("unknown event type: %s", eventType)
	}

	if err := json.Unmarshal(data, event); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event: %w", err)
	}
	return event, nil
}

package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// RetryDelays 는 재시도 횟수(1-based)별 지연 시간이다.
var RetryDelays = []time.Duration{
	10 * time.Second,
	30 * time.Second,
	1 * time.Minute,
	5 * time.Minute,
}

// Topic 은 기본 토픽 이름과 그 재시도/DLQ 토픽 이름을 관리한다.
type Topic struct {
	base string
}

func NewTopic(base string) Topic {
	return Topic{base: base}
}

func (t Topic) Base() string {
	return t.base
}

// DLQ 예: content-pipeline.generation.events.dlq
func (t Topic) DLQ() string {
	return t.base + ".dlq"
}

// GetRetryTopics returns "<base>.retry.<n>" for every configured delay.
func (t Topic) GetRetryTopics() []string {
	topics := make([]string, len(RetryDelays))
	for i := range RetryDelays {
		topics[i] = fmt.Sprintf("%s.retry.%d", t.base, i+1)
	}
	return topics
}

// GetRetryTopic 은 retryCount(1-based)에 해당하는 재시도 토픽 이름을 반환한다.
func (t Topic) GetRetryTopic(retryCount int) (string, error) {
	if retryCount <= 0 || retryCount > len(RetryDelays) {
		return "", ErrMaxRetryExceeded
	}
	return fmt.Sprintf("%s.retry.%d", t.base, retryCount), nil
}

// Event 는 Kafka 메시지 값으로 쓰이는 봉투다.
type Event struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Retry     int             `json:"retry"` // 0부터 시작
	MaxRetry  int             `json:"max_retry"`
	LastError string          `json:"last_error,omitempty"`
}

type EventHandler func(ctx context.Context, event Event) error

// Publisher is the write side of the bus.
type Publisher interface {
	Publish(ctx context.Context, topic string, event Event) error
}

// EventBus 는 이벤트 발행/구독 추상화다.
type EventBus interface {
	Publisher
	// Subscribe 는 기본 토픽을 구독해 handler 를 실행한다. 실패한 이벤트는 재시도 토픽이나 DLQ 로 보낸다.
	Subscribe(ctx context.Context, groupID string, topic Topic, handler EventHandler) error
	// StartRetryReinjector 는 재시도 토픽을 구독하고 지연이 지난 이벤트를 기본 토픽으로 되돌린다.
	StartRetryReinjector(ctx context.Context, groupID string, topic Topic) error
	Close()
}

var (
	ErrMaxRetryExceeded    = errors.New("최대 재시도 횟수 초과")
	ErrRetryScheduleFailed = errors.New("재시도 또는 DLQ 발행 실패")
)

package eventbus

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopicNames(t *testing.T) {
	topic := NewTopic("content-pipeline.generation.events")

	assert.Equal(t, "content-pipeline.generation.events.dlq", topic.DLQ())
	retries := topic.GetRetryTopics()
	require.Len(t, retries, len(RetryDelays))
	assert.Equal(t, "content-pipeline.generation.events.retry.1", retries[0])

	name, err := topic.GetRetryTopic(2)
	require.NoError(t, err)
	assert.Equal(t, retries[1], name)

	_, err = topic.GetRetryTopic(len(RetryDelays) + 1)
	assert.ErrorIs(t, err, ErrMaxRetryExceeded)
}

func TestRetryTopicsRoundTripToDelays(t *testing.T) {
	for i, name := range TopicGenerationEvents.GetRetryTopics() {
		d, ok := ParseRetryDelayFromTopicName(name)
		require.True(t, ok, name)
		assert.Equal(t, RetryDelays[i], d)
	}

	_, ok := ParseRetryDelayFromTopicName("content-pipeline.generation.events")
	assert.False(t, ok)
	_, ok = ParseRetryDelayFromTopicName("x.retry.10s")
	assert.False(t, ok)
	_, ok = ParseRetryDelayFromTopicName("x.retry.99")
	assert.False(t, ok)
}

type payload struct {
	TaskID string `json:"task_id"`
}

func TestJSONEvents(t *testing.T) {
	evt, err := NewJSONEvent("", "generation.requested", payload{TaskID: "abc"}, 0)
	require.NoError(t, err)
	assert.NotEmpty(t, evt.ID)
	assert.Equal(t, len(RetryDelays), evt.MaxRetry)
	assert.Equal(t, "generation.requested", evt.Type)

	got, err := DecodeJSON[payload](evt)
	require.NoError(t, err)
	assert.Equal(t, "abc", got.TaskID)

	_, err = DecodeJSON[payload](Event{Payload: []byte("{")})
	assert.Error(t, err)
}

func TestFailureDestination(t *testing.T) {
	topic := NewTopic("t")
	cause := errors.New("boom")

	dest, next := failureDestination(topic, Event{ID: "1", MaxRetry: 2}, cause)
	assert.Equal(t, "t.retry.1", dest)
	assert.Equal(t, 1, next.Retry)
	assert.Equal(t, "boom", next.LastError)

	dest, next = failureDestination(topic, Event{ID: "1", Retry: 2, MaxRetry: 2}, cause)
	assert.Equal(t, "t.dlq", dest)
	assert.Equal(t, 2, next.Retry)
}

func TestRetryWaitBounds(t *testing.T) {
	now := time.Now()
	assert.Equal(t, 500*time.Millisecond, retryWait(now.Add(time.Minute), now))
	assert.Equal(t, 50*time.Millisecond, retryWait(now.Add(time.Millisecond), now))
	assert.Equal(t, 200*time.Millisecond, retryWait(now.Add(200*time.Millisecond), now))
}

func TestNewKafkaEventBusRequiresBrokers(t *testing.T) {
	_, err := NewKafkaEventBus(" ")
	assert.Error(t, err)
}

package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerializeAndDeserialize(t *testing.T) {
	in := GenerationRequestedEvent{
		BaseEvent: NewBase("e1", GenerationRequested, "api", time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)),
		TaskID:    "t1",
		Topic:     "astronomía",
	}
	data, typ, err := SerializeEvent(in)
	require.NoError(t, err)
	assert.Equal(t, GenerationRequested, typ)

	out, err := DeserializeEvent(typ, data)
	require.NoError(t, err)
	got, ok := out.(*GenerationRequestedEvent)
	require.True(t, ok)
	assert.Equal(t, "t1", got.TaskID)
	assert.Equal(t, "astronomía", got.Topic)
	assert.Equal(t, "1", got.Version)
}

func TestUnknownEventType(t *testing.T) {
	_, _, err := SerializeEvent(struct{}{})
	assert.Error(t, err)

	_, err = DeserializeEvent("post.created", []byte(`{}`))
	assert.Error(t, err)
}

package themes

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"content-pipeline/config"
	"content-pipeline/models"
)

type memoryStore struct {
	byTopic map[string]models.ThemeConfig
	err     error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{byTopic: map[string]models.ThemeConfig{}}
}

func (m *memoryStore) GetByTopic(_ context.Context, topic string) (*models.ThemeConfig, error) {
	if m.err != nil {
		return nil, m.err
	}
	c, ok := m.byTopic[topic]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (m *memoryStore) GetByID(_ context.Context, id primitive.ObjectID) (*models.ThemeConfig, error) {
	for _, c := range m.byTopic {
		if c.ID == id {
			return &c, nil
		}
	}
	return nil, errors.New("not found")
}

func (m *memoryStore) Upsert(_ context.Context, c *models.ThemeConfig) (primitive.ObjectID, error) {
	if existing, ok := m.byTopic[c.Topic]; ok {
		c.ID = existing.ID
	} else {
		c.ID = primitive.NewObjectID()
	}
	m.byTopic[c.Topic] = *c
	return c.ID, nil
}

func (m *memoryStore) ListTopics(context.Context) ([]string, error) {
	var out []string
	for t := range m.byTopic {
		out = append(out, t)
	}
	return out, nil
}

func intPtr(v int) *int { return &v }

func defaults() config.ThemeDefaults {
	return config.Default().ThemeDefaults
}

func TestResolveMissingUsesDefaults(t *testing.T) {
	r := NewResolver(newMemoryStore(), defaults())

	cfg, stored, err := r.Resolve(context.Background(), " astronomía ")
	require.NoError(t, err)

	assert.False(t, stored)
	assert.Equal(t, "astronomía", cfg.Topic)
	assert.Equal(t, 5, cfg.MinSourceScore)
	assert.Equal(t, 10, cfg.NumSearchResults)
	assert.Equal(t, 5, cfg.NumDiscoveryResults)
	assert.Equal(t, 7, cfg.MinGeneratorScore)
	assert.Equal(t, 3, cfg.NumGeneratorSources)
	assert.Equal(t, "medium", cfg.TextLength)
	assert.Equal(t, "neutral", cfg.TextTone)
	assert.Equal(t, 2, cfg.ImageCount())
}

func TestResolveMergesStoredValues(t *testing.T) {
	store := newMemoryStore()
	store.byTopic["cocina"] = models.ThemeConfig{Topic: "cocina", MinGeneratorScore: 8, TextLength: "long", AnalyzerPrompt: "{{.Topic}}"}
	r := NewResolver(store, defaults())

	cfg, stored, err := r.Resolve(context.Background(), "cocina")
	require.NoError(t, err)

	assert.True(t, stored)
	assert.Equal(t, 8, cfg.MinGeneratorScore)
	assert.Equal(t, "long", cfg.TextLength)
	assert.Equal(t, "{{.Topic}}", cfg.AnalyzerPrompt)
	assert.Equal(t, 5, cfg.MinSourceScore)
	assert.Equal(t, 2, cfg.ImageCount())
}

func TestResolveStoreError(t *testing.T) {
	store := newMemoryStore()
	store.err = errors.New("mongo down")

	_, _, err := NewResolver(store, defaults()).Resolve(context.Background(), "x")
	assert.Error(t, err)
}

func TestSaveValidatesAndUpserts(t *testing.T) {
	store := newMemoryStore()
	r := NewResolver(store, defaults())
	ctx := context.Background()

	saved, err := r.Save(ctx, models.ThemeConfig{Topic: "cocina", NumImages: intPtr(4)})
	require.NoError(t, err)
	assert.Equal(t, 4, saved.ImageCount())
	assert.Equal(t, 7, saved.MinGeneratorScore)
	assert.False(t, saved.ID.IsZero())

	again, err := r.Save(ctx, models.ThemeConfig{Topic: "cocina", NumImages: intPtr(1)})
	require.NoError(t, err)
	assert.Equal(t, saved.ID, again.ID)
	assert.Len(t, store.byTopic, 1)

	byID, err := r.ResolveByID(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, byID.ImageCount())
	assert.Equal(t, "cocina", byID.Topic)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate(models.ThemeConfig{Topic: "x"}))
	assert.NoError(t, Validate(models.ThemeConfig{Topic: "x", NumImages: intPtr(0)}))

	bad := []models.ThemeConfig{
		{},
		{Topic: "x", MinSourceScore: 11},
		{Topic: "x", MinGeneratorScore: -1},
		{Topic: "x", NumSearchResults: -2},
		{Topic: "x", NumImages: intPtr(31)},
		{Topic: "x", NumImages: intPtr(-1)},
		{Topic: "x", TextLength: "huge"},
		{Topic: "x", GeneratorPrompt: "{{.Topic"},
	}
	for _, c := range bad {
		assert.ErrorIs(t, Validate(c), ErrInvalidConfig, "%+v", c)
	}
}

func TestResolveKeepsStoredZeroImages(t *testing.T) {
	store := newMemoryStore()
	store.byTopic["sin fotos"] = models.ThemeConfig{Topic: "sin fotos", NumImages: intPtr(0)}
	r := NewResolver(store, defaults())

	cfg, stored, err := r.Resolve(context.Background(), "sin fotos")
	require.NoError(t, err)
	assert.True(t, stored)
	require.NotNil(t, cfg.NumImages)
	assert.Equal(t, 0, cfg.ImageCount())

	saved, err := r.Save(context.Background(), models.ThemeConfig{Topic: "cocina", NumImages: intPtr(0)})
	require.NoError(t, err)
	assert.Equal(t, 0, saved.ImageCount())
}

func TestMergeDoesNotAliasStoredImages(t *testing.T) {
	stored := &models.ThemeConfig{Topic: "x", NumImages: intPtr(3)}

	cfg := Merge(stored, "x", defaults())
	*cfg.NumImages = 9

	assert.Equal(t, 3, *stored.NumImages)
}

package repositories

import (
	"context"
	"errors"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"content-pipeline/models"
)

type ThemeConfigRepository struct {
	col *mongo.Collection
}

func NewThemeConfigRepository(db *mongo.Database) *ThemeConfigRepository {
	return &ThemeConfigRepository{col: db.Collection("theme_configs")}
}

// GetByTopic returns the stored configuration for topic, or (nil, nil) when none is stored.
func (r *ThemeConfigRepository) GetByTopic(ctx context.Context, topic string) (*models.ThemeConfig, error) {
	var c models.ThemeConfig
	err := r.col.FindOne(ctx, bson.M{"topic": topic}).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *ThemeConfigRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.ThemeConfig, error) {
	var c models.ThemeConfig
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}
	return &c, nil
}

// Upsert stores c keyed by its topic and returns the document id.
func (r *ThemeConfigRepository) Upsert(ctx context.Context, c *models.ThemeConfig) (primitive.ObjectID, error) {
	c.UpdatedAt = time.Now()
	set := bson.M{
		"min_source_score":      c.MinSourceScore,
		"num_search_results":    c.NumSearchResults,
		"num_discovery_results": c.NumDiscoveryResults,
		"min_generator_score":   c.MinGeneratorScore,
		"num_generator_sources": c.NumGeneratorSources,
		"text_length":           c.TextLength,
		"text_tone":             c.TextTone,
		"num_images":            c.NumImages,
		"analyzer_prompt":       c.AnalyzerPrompt,
		"generator_prompt":      c.GeneratorPrompt,
		"updated_at":            c.UpdatedAt,
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var stored models.ThemeConfig
	err := r.col.FindOneAndUpdate(ctx,
		bson.M{"topic": c.Topic},
		bson.M{"$set": set, "$setOnInsert": bson.M{"topic": c.Topic}},
		opts,
	).Decode(&stored)
	if err != nil {
		return primitive.NilObjectID, err
	}
	c.ID = stored.ID
	return stored.ID, nil
}

// ListTopics returns every topic that has a stored configuration, sorted.
func (r *ThemeConfigRepository) ListTopics(ctx context.Context) ([]string, error) {
	values, err := r.col.Distinct(ctx, "topic", bson.M{})
	if err != nil {
		return nil, err
	}
	topics := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok && s != "" {
			topics = append(topics, s)
		}
	}
	sort.Strings(topics)
	return topics, nil
}

package themes

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"text/template"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"content-pipeline/config"
	"content-pipeline/models"
)

var ErrInvalidConfig = errors.New("invalid theme configuration")

// Store is the theme configuration repository.
type Store interface {
	GetByTopic(ctx context.Context, topic string) (*models.ThemeConfig, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.ThemeConfig, error)
	Upsert(ctx context.Context, c *models.ThemeConfig) (primitive.ObjectID, error)
	ListTopics(ctx context.Context) ([]string, error)
}

// Resolver reads per-topic configuration through the configured defaults.
type Resolver struct {
	store    Store
	defaults config.ThemeDefaults
}

func NewResolver(store Store, defaults config.ThemeDefaults) *Resolver {
	return &Resolver{store: store, defaults: defaults}
}

func (r *Resolver) Defaults() config.ThemeDefaults { return r.defaults }

// Resolve returns the effective configuration for topic and whether one is stored.
// A missing document is not an error.
func (r *Resolver) Resolve(ctx context.Context, topic string) (models.ThemeConfig, bool, error) {
	topic = strings.TrimSpace(topic)
	stored, err := r.store.GetByTopic(ctx, topic)
	if err != nil {
		return models.ThemeConfig{}, false, fmt.Errorf("load theme config %q: %w", topic, err)
	}
	return Merge(stored, topic, r.defaults), stored != nil, nil
}

// ResolveByID returns the effective configuration stored under id.
func (r *Resolver) ResolveByID(ctx context.Context, id primitive.ObjectID) (models.ThemeConfig, error) {
	stored, err := r.store.GetByID(ctx, id)
	if err != nil {
		return models.ThemeConfig{}, err
	}
	return Merge(stored, stored.Topic, r.defaults), nil
}

// Save validates and upserts c, then returns the effective configuration.
func (r *Resolver) Save(ctx context.Context, c models.ThemeConfig) (models.ThemeConfig, error) {
	c.Topic = strings.TrimSpace(c.Topic)
	if err := Validate(c); err != nil {
		return models.ThemeConfig{}, err
	}
	if _, err := r.store.Upsert(ctx, &c); err != nil {
		return models.ThemeConfig{}, fmt.Errorf("save theme config %q: %w", c.Topic, err)
	}
	return Merge(&c, c.Topic, r.defaults), nil
}

func (r *Resolver) Topics(ctx context.Context) ([]string, error) {
	return r.store.ListTopics(ctx)
}

// Merge fills every zero-valued field of stored with the defaults, and an unset NumImages.
// stored may be nil. The result never shares memory with stored.
func Merge(stored *models.ThemeConfig, topic string, d config.ThemeDefaults) models.ThemeConfig {
	var c models.ThemeConfig
	if stored != nil {
		c = *stored
	}
	c.Topic = topic

	if c.MinSourceScore <= 0 {
		c.MinSourceScore = d.MinSourceScore
	}
	if c.NumSearchResults <= 0 {
		c.NumSearchResults = d.NumSearchResults
	}
	if c.NumDiscoveryResults <= 0 {
		c.NumDiscoveryResults = d.NumDiscoveryResults
	}
	if c.MinGeneratorScore <= 0 {
		c.MinGeneratorScore = d.MinGeneratorScore
	}
	if c.NumGeneratorSources <= 0 {
		c.NumGeneratorSources = d.NumGeneratorSources
	}
	if c.TextLength == "" {
		c.TextLength = d.TextLength
	}
	if c.TextTone == "" {
		c.TextTone = d.TextTone
	}
	n := d.NumImages
	if c.NumImages != nil {
		n = *c.NumImages
	}
	c.NumImages = &n
	return c
}

// Validate rejects values no pipeline run could use. Zero values are allowed and mean "default";
// a num_images of 0 disables images.
func Validate(c models.ThemeConfig) error {
	var problems []string
	if c.Topic == "" {
		problems = append(problems, "topic is required")
	}
	for name, v := range map[string]int{
		"min_source_score":    c.MinSourceScore,
		"min_generator_score": c.MinGeneratorScore,
	} {
		if v < 0 || v > 10 {
			problems = append(problems, name+" must be between 1 and 10")
		}
	}
	for name, v := range map[string]int{
		"num_search_results":    c.NumSearchResults,
		"num_discovery_results": c.NumDiscoveryResults,
		"num_generator_sources": c.NumGeneratorSources,
		"num_images":            c.ImageCount(),
	} {
		if v < 0 {
			problems = append(problems, name+" must not be negative")
		}
	}
	if c.ImageCount() > 30 {
		problems = append(problems, "num_images must be at most 30")
	}
	switch c.TextLength {
	case "", "short", "medium", "long":
	default:
		problems = append(problems, "text_length must be short, medium or long")
	}
	for name, tmpl := range map[string]string{
		"analyzer_prompt":  c.AnalyzerPrompt,
		"generator_prompt": c.GeneratorPrompt,
	} {
		if tmpl == "" {
			continue
		}
		if _, err := template.New(name).Parse(tmpl); err != nil {
			problems = append(problems, name+" is not a valid template")
		}
	}

	if len(problems) > 0 {
		sort.Strings(problems)
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

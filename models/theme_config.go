package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ThemeConfig holds per-topic pipeline tunables. Zero values mean "use the default",
// except NumImages, where nil means default and 0 turns images off.
// Collection: theme_configs
type ThemeConfig struct {
	ID                  primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Topic               string             `bson:"topic" json:"topic"`
	MinSourceScore      int                `bson:"min_source_score" json:"min_source_score"`
	NumSearchResults    int                `bson:"num_search_results" json:"num_search_results"`
	NumDiscoveryResults int                `bson:"num_discovery_results" json:"num_discovery_results"`
	MinGeneratorScore   int                `bson:"min_generator_score" json:"min_generator_score"`
	NumGeneratorSources int                `bson:"num_generator_sources" json:"num_generator_sources"`
	TextLength          string             `bson:"text_length" json:"text_length"`
	TextTone            string             `bson:"text_tone" json:"text_tone"`
	NumImages           *int               `bson:"num_images,omitempty" json:"num_images,omitempty"`
	AnalyzerPrompt      string             `bson:"analyzer_prompt,omitempty" json:"analyzer_prompt,omitempty"`
	GeneratorPrompt     string             `bson:"generator_prompt,omitempty" json:"generator_prompt,omitempty"`
	UpdatedAt           time.Time          `bson:"updated_at" json:"updated_at"`
}

// ImageCount is the number of images to attach, 0 when unset.
func (c ThemeConfig) ImageCount() int {
	if c.NumImages == nil {
		return 0
	}
	return *c.NumImages
}

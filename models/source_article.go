package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SourceArticle is a discovered, scored web page used as generation input.
// Collection: sources
type SourceArticle struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CreatedAt         time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt         time.Time          `bson:"updated_at" json:"updated_at"`
	URL               string             `bson:"url" json:"url"`
	Title             string             `bson:"title" json:"title"`
	RelevanceScore    int                `bson:"relevance_score" json:"relevance_score"`
	Reason            string             `bson:"reason" json:"reason"`
	Summary           string             `bson:"summary" json:"summary"`
	OriginDomain      string             `bson:"origin_domain" json:"origin_domain"`
	PublishedAt       time.Time          `bson:"published_at" json:"published_at"`
	Tags              []string           `bson:"tags" json:"tags"`
	UsedForGeneration bool               `bson:"used_for_generation" json:"used_for_generation"`
}

package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ArticleState is the editorial state of a generated article.
type ArticleState string

const (
	ArticleStateGenerated ArticleState = "generated"
	ArticleStateReviewed  ArticleState = "reviewed"
	ArticleStatePublished ArticleState = "published"
	ArticleStateArchived  ArticleState = "archived"
)

func (s ArticleState) Valid() bool {
	switch s {
	case ArticleStateGenerated, ArticleStateReviewed, ArticleStatePublished, ArticleStateArchived:
		return true
	}
	return false
}

// GeneratedArticle is a synthesized article for a topic.
// Collection: generated_articles
//
// Topic, AverageSourceScore, SourceIDsUsed and CreatedAt are provenance and never change after insert.
type GeneratedArticle struct {
	ID                 primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	CreatedAt          time.Time            `bson:"created_at" json:"created_at"`
	UpdatedAt          time.Time            `bson:"updated_at" json:"updated_at"`
	Topic              string               `bson:"topic" json:"topic"`
	Title              string               `bson:"title" json:"title"`
	MetaDescription    string               `bson:"meta_description" json:"meta_description"`
	Body               string               `bson:"body" json:"body"`
	Tags               []string             `bson:"tags" json:"tags"`
	State              ArticleState         `bson:"state" json:"state"`
	AverageSourceScore float64              `bson:"average_source_score" json:"average_source_score"`
	SourceIDsUsed      []primitive.ObjectID `bson:"source_ids_used" json:"source_ids_used"`
}

// ArticleUpdate holds the editable fields of a GeneratedArticle. Nil means unchanged.
type ArticleUpdate struct {
	Title           *string
	MetaDescription *string
	Body            *string
	Tags            []string
	State           *ArticleState
}

func (u ArticleUpdate) IsEmpty() bool {
	return u.Title == nil && u.MetaDescription == nil && u.Body == nil && u.Tags == nil && u.State == nil
}

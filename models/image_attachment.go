package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ImageAttachment is attribution metadata for one image bound to a generated article.
// Collection: article_images
type ImageAttachment struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CreatedAt     time.Time          `bson:"created_at" json:"created_at"`
	ArticleID     primitive.ObjectID `bson:"article_id" json:"article_id"`
	URL           string             `bson:"url" json:"url"`
	AltText       string             `bson:"alt_text" json:"alt_text"`
	Caption       string             `bson:"caption" json:"caption"`
	License       string             `bson:"license" json:"license"`
	Author        string             `bson:"author" json:"author"`
	AuthorURL     string             `bson:"author_url" json:"author_url"`
	SourcePageURL string             `bson:"source_page_url" json:"source_page_url"`
}

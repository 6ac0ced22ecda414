package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"content-pipeline/models"
)

type ImageRepository struct {
	col      *mongo.Collection
	articles *mongo.Collection
}

func NewImageRepository(db *mongo.Database) *ImageRepository {
	return &ImageRepository{
		col:      db.Collection("article_images"),
		articles: db.Collection("generated_articles"),
	}
}

// Insert stores image metadata. It refuses with ErrArticleNotFound unless img.ArticleID
// references an existing generated article.
func (r *ImageRepository) Insert(ctx context.Context, img *models.ImageAttachment) (primitive.ObjectID, error) {
	if img.ArticleID.IsZero() {
		return primitive.NilObjectID, ErrArticleNotFound
	}
	n, err := r.articles.CountDocuments(ctx, bson.M{"_id": img.ArticleID}, options.Count().SetLimit(1))
	if err != nil {
		return primitive.NilObjectID, err
	}
	if n == 0 {
		return primitive.NilObjectID, ErrArticleNotFound
	}

	if img.CreatedAt.IsZero() {
		img.CreatedAt = time.Now()
	}
	res, err := r.col.InsertOne(ctx, img)
	if err != nil {
		return primitive.NilObjectID, err
	}
	id, _ := res.InsertedID.(primitive.ObjectID)
	img.ID = id
	return id, nil
}

// ListByArticle returns the images of an article in insertion order.
func (r *ImageRepository) ListByArticle(ctx context.Context, articleID primitive.ObjectID) ([]models.ImageAttachment, error) {
	cur, err := r.col.Find(ctx, bson.M{"article_id": articleID}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	results := []models.ImageAttachment{}
	if err := cur.All(ctx, &results); err != nil {
		return nil, err
	}
	return results, nil
}

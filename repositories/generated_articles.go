package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"content-pipeline/models"
)

type GeneratedArticleRepository struct {
	col *mongo.Collection
}

func NewGeneratedArticleRepository(db *mongo.Database) *GeneratedArticleRepository {
	return &GeneratedArticleRepository{col: db.Collection("generated_articles")}
}

// Insert stores a new article and returns its id. State defaults to generated.
func (r *GeneratedArticleRepository) Insert(ctx context.Context, a *models.GeneratedArticle) (primitive.ObjectID, error) {
	now := time.Now()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now
	if a.State == "" {
		a.State = models.ArticleStateGenerated
	}
	if a.Tags == nil {
		a.Tags = []string{}
	}
	if a.SourceIDsUsed == nil {
		a.SourceIDsUsed = []primitive.ObjectID{}
	}

	res, err := r.col.InsertOne(ctx, a)
	if err != nil {
		return primitive.NilObjectID, err
	}
	id, ok := res.InsertedID.(primitive.ObjectID)
	if !ok || id.IsZero() {
		return primitive.NilObjectID, fmt.Errorf("unexpected inserted id %v", res.InsertedID)
	}
	a.ID = id
	return id, nil
}

func (r *GeneratedArticleRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.GeneratedArticle, error) {
	var a models.GeneratedArticle
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&a); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrArticleNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r *GeneratedArticleRepository) Exists(ctx context.Context, id primitive.ObjectID) (bool, error) {
	n, err := r.col.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Update applies the editable fields of u. Provenance fields are never touched.
func (r *GeneratedArticleRepository) Update(ctx context.Context, id primitive.ObjectID, u models.ArticleUpdate) error {
	set := bson.M{"updated_at": time.Now()}
	if u.Title != nil {
		set["title"] = *u.Title
	}
	if u.MetaDescription != nil {
		set["meta_description"] = *u.MetaDescription
	}
	if u.Body != nil {
		set["body"] = *u.Body
	}
	if u.Tags != nil {
		set["tags"] = u.Tags
	}
	if u.State != nil {
		set["state"] = *u.State
	}

	res, err := r.col.UpdateByID(ctx, id, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrArticleNotFound
	}
	return nil
}

type ListArticlesOptions struct {
	Page     int
	PageSize int
	Topic    string
	State    models.ArticleState
}

func (r *GeneratedArticleRepository) List(ctx context.Context, opt ListArticlesOptions) ([]models.GeneratedArticle, int64, error) {
	filter := bson.M{}
	if opt.Topic != "" {
		filter["topic"] = opt.Topic
	}
	if opt.State != "" {
		filter["state"] = opt.State
	}

	skip, limit := pageBounds(opt.Page, opt.PageSize)
	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	findOpts := options.Find().SetSkip(skip).SetLimit(limit).SetSort(bson.D{
		{Key: "created_at", Value: -1},
		{Key: "_id", Value: -1},
	})
	cur, err := r.col.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	var results []models.GeneratedArticle
	if err := cur.All(ctx, &results); err != nil {
		return nil, 0, err
	}
	return results, total, nil
}

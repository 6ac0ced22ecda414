package repositories

import (
	"context"
	"errors"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"content-pipeline/models"
)

type SourceRepository struct {
	col *mongo.Collection
}

func NewSourceRepository(db *mongo.Database) *SourceRepository {
	return &SourceRepository{col: db.Collection("sources")}
}

// ExistsByURL reports whether a source with exactly this url is stored.
func (r *SourceRepository) ExistsByURL(ctx context.Context, url string) (bool, error) {
	err := r.col.FindOne(ctx, bson.M{"url": url}, options.FindOne().SetProjection(bson.M{"_id": 1})).Err()
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// InsertIfAbsent stores s unless a source with the same url exists.
// It returns the id of the stored document either way, and whether this call created it.
func (r *SourceRepository) InsertIfAbsent(ctx context.Context, s *models.SourceArticle) (primitive.ObjectID, bool, error) {
	now := time.Now()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now
	if s.Tags == nil {
		s.Tags = []string{}
	}

	filter := bson.M{"url": s.URL}
	update := bson.M{
		"$setOnInsert": bson.M{
			"created_at":          s.CreatedAt,
			"updated_at":          s.UpdatedAt,
			"url":                 s.URL,
			"title":               s.Title,
			"relevance_score":     s.RelevanceScore,
			"reason":              s.Reason,
			"summary":             s.Summary,
			"origin_domain":       s.OriginDomain,
			"published_at":        s.PublishedAt,
			"tags":                s.Tags,
			"used_for_generation": false,
		},
	}
	res, err := r.col.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil && !mongo.IsDuplicateKeyError(err) {
		return primitive.NilObjectID, false, err
	}
	if err == nil && res.UpsertedID != nil {
		if id, ok := res.UpsertedID.(primitive.ObjectID); ok {
			s.ID = id
			return id, true, nil
		}
	}

	// already present (or lost an upsert race on the unique index)
	var existing struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err := r.col.FindOne(ctx, filter, options.FindOne().SetProjection(bson.M{"_id": 1})).Decode(&existing); err != nil {
		return primitive.NilObjectID, false, err
	}
	s.ID = existing.ID
	return existing.ID, false, nil
}

// FindTopUnused returns up to limit unused sources with relevance_score >= minScore,
// ordered by score desc then publication date desc.
func (r *SourceRepository) FindTopUnused(ctx context.Context, minScore int, limit int) ([]models.SourceArticle, error) {
	if limit <= 0 {
		return nil, nil
	}
	filter := bson.M{
		"relevance_score":     bson.M{"$gte": minScore},
		"used_for_generation": false,
	}
	findOpts := options.Find().SetLimit(int64(limit)).SetSort(bson.D{
		{Key: "relevance_score", Value: -1},
		{Key: "published_at", Value: -1},
		{Key: "_id", Value: 1},
	})
	cur, err := r.col.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var results []models.SourceArticle
	if err := cur.All(ctx, &results); err != nil {
		return nil, err
	}
	return results, nil
}

// MarkUsed flips used_for_generation false->true. Marking an already used source is a no-op;
// changed reports whether this call performed the transition.
func (r *SourceRepository) MarkUsed(ctx context.Context, id primitive.ObjectID) (bool, error) {
	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": id, "used_for_generation": false},
		bson.M{"$set": bson.M{"used_for_generation": true, "updated_at": time.Now()}},
	)
	if err != nil {
		return false, err
	}
	if res.ModifiedCount > 0 {
		return true, nil
	}
	n, err := r.col.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, ErrSourceNotFound
	}
	return false, nil
}

func (r *SourceRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.SourceArticle, error) {
	var s models.SourceArticle
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&s); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrSourceNotFound
		}
		return nil, err
	}
	return &s, nil
}

type ListSourcesOptions struct {
	Page     int
	PageSize int
	Used     *bool
	MinScore int
	Tag      string
}

func (r *SourceRepository) List(ctx context.Context, opt ListSourcesOptions) ([]models.SourceArticle, int64, error) {
	filter := bson.M{}
	if opt.Used != nil {
		filter["used_for_generation"] = *opt.Used
	}
	if opt.MinScore > 0 {
		filter["relevance_score"] = bson.M{"$gte": opt.MinScore}
	}
	if opt.Tag != "" {
		filter["tags"] = primitive.Regex{Pattern: "^" + regexp.QuoteMeta(opt.Tag) + "$", Options: "i"}
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

	var results []models.SourceArticle
	for cur.Next(ctx) {
		var s models.SourceArticle
		if err := cur.Decode(&s); err != nil {
			return nil, 0, err
		}
		results = append(results, s)
	}
	if err := cur.Err(); err != nil {
		return nil, 0, err
	}
	return results, total, nil
}

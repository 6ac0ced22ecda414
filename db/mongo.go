package db

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"content-pipeline/config"
)

var (
	clientOnce sync.Once
	client     *mongo.Client
	db         *mongo.Database
)

// Init initializes the global Mongo client and database using config values.
// Every operation issued through the client is bounded by cfg.Timeout.
func Init(ctx context.Context, cfg config.MongoConfig) error {
	var initErr error
	clientOnce.Do(func() {
		opts := options.Client().ApplyURI(cfg.URI).SetTimeout(cfg.Timeout)

		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		cl, err := mongo.Connect(ctx, opts)
		if err != nil {
			initErr = err
			return
		}
		// Ping to verify connection
		if err := cl.Ping(ctx, readpref.Primary()); err != nil {
			initErr = err
			return
		}
		client = cl
		db = client.Database(cfg.Database)

		if err := EnsureIndexes(ctx, db); err != nil {
			initErr = err
			return
		}
	})
	return initErr
}

func Client() *mongo.Client     { return client }
func Database() *mongo.Database { return db }

// Disconnect closes the global client if it was initialized.
func Disconnect(ctx context.Context) error {
	if client == nil {
		return nil
	}
	return client.Disconnect(ctx)
}

func EnsureIndexes(ctx context.Context, d *mongo.Database) error {
	indexes := map[string][]mongo.IndexModel{
		// sources: one document per url, selection by (score, recency) among unused
		"sources": {
			{
				Keys:    bson.D{{Key: "url", Value: 1}},
				Options: options.Index().SetName("uniq_url").SetUnique(true),
			},
			{
				Keys: bson.D{
					{Key: "used_for_generation", Value: 1},
					{Key: "relevance_score", Value: -1},
					{Key: "published_at", Value: -1},
				},
				Options: options.Index().SetName("idx_unused_score_published"),
			},
		},
		"generated_articles": {
			{
				Keys:    bson.D{{Key: "topic", Value: 1}, {Key: "created_at", Value: -1}},
				Options: options.Index().SetName("idx_topic_created_at"),
			},
			{
				Keys:    bson.D{{Key: "state", Value: 1}},
				Options: options.Index().SetName("idx_state"),
			},
		},
		"article_images": {
			{
				Keys:    bson.D{{Key: "article_id", Value: 1}},
				Options: options.Index().SetName("idx_article_id"),
			},
		},
		// generation_tasks: FIFO dequeue by requested_at among pending
		"generation_tasks": {
			{
				Keys:    bson.D{{Key: "state", Value: 1}, {Key: "requested_at", Value: 1}},
				Options: options.Index().SetName("idx_state_requested_at"),
			},
		},
		"theme_configs": {
			{
				Keys:    bson.D{{Key: "topic", Value: 1}},
				Options: options.Index().SetName("uniq_topic").SetUnique(true),
			},
		},
		"llm_logs": {
			{
				Keys:    bson.D{{Key: "requested_at", Value: -1}},
				Options: options.Index().SetName("idx_requested_at_desc"),
			},
		},
	}

	for collection, models := range indexes {
		if _, err := d.Collection(collection).Indexes().CreateMany(ctx, models); err != nil {
			return err
		}
	}
	return nil
}

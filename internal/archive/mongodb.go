package archive

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"xdigest/pkg/config"
	"xdigest/pkg/report"
)

// MongoDBStore archives tweets in a MongoDB collection, one document per tweet id
type MongoDBStore struct {
	client     *mongo.Client
	collection *mongo.Collection
	now        func() time.Time
}

// NewMongoDBStore connects to MongoDB and verifies the connection
func NewMongoDBStore(ctx context.Context, cfg config.ArchiveConfig) (*MongoDBStore, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.MongoDBURI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	coll := client.Database(cfg.Database).Collection(cfg.Collection)
	_, err = coll.Indexes().CreateOne(connectCtx, mongo.IndexModel{
		Keys: bson.D{{Key: "created_at", Value: -1}},
	})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to create created_at index: %w", err)
	}

	return &MongoDBStore{client: client, collection: coll, now: time.Now}, nil
}

func (m *MongoDBStore) Name() string { return "mongodb" }

// Write upserts every record of r in one unordered bulk write
func (m *MongoDBStore) Write(ctx context.Context, r *report.Report) error {
	models := upsertModels(Documents(r, m.now()))
	if len(models) == 0 {
		return nil
	}

	res, err := m.collection.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
	if err != nil {
		return fmt.Errorf("failed to upsert tweets: %w", err)
	}
	if got := res.UpsertedCount + res.MatchedCount; got != int64(len(models)) {
		return fmt.Errorf("upserted %d of %d tweets", got, len(models))
	}
	return nil
}

func upsertModels(docs []Document) []mongo.WriteModel {
	models := make([]mongo.WriteModel, 0, len(docs))
	for _, doc := range docs {
		models = append(models, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": doc.ID}).
			SetReplacement(doc).
			SetUpsert(true))
	}
	return models
}

// Close disconnects the client
func (m *MongoDBStore) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

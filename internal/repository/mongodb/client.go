// Package mongodb provides a MongoDB-backed SectionStore with one collection per section kind.
package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"taxdesk/internal/config"
	"taxdesk/internal/domain"
)

// Connect opens a client and verifies the server is reachable.
func Connect(ctx context.Context, cfg *config.MongoConfig) (*mongo.Client, error) {
	connectCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	opts := options.Client().ApplyURI(cfg.URI)
	if cfg.MaxPoolSize > 0 {
		opts.SetMaxPoolSize(cfg.MaxPoolSize)
	}
	client, err := mongo.Connect(connectCtx, opts)
	if err != nil {
		return nil, fmt.Errorf("connecting to mongo: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("pinging mongo: %w", err)
	}
	return client, nil
}

// EnsureIndexes creates the lookup index of every section collection. Singleton
// collections get a unique index so concurrent upserts cannot create two records.
func EnsureIndexes(ctx context.Context, db *mongo.Database, descs []domain.SectionDescriptor) error {
	for _, desc := range descs {
		model := mongo.IndexModel{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "taxYear", Value: 1}},
			Options: options.Index().SetName("user_tax_year").SetUnique(desc.IsSingleton()),
		}
		if _, err := db.Collection(desc.Collection).Indexes().CreateOne(ctx, model); err != nil {
			return fmt.Errorf("mongo.EnsureIndexes %s: %w", desc.Collection, err)
		}
	}
	return nil
}

package repository

import (
	"context"
	"fmt"

	"imagevault/config"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const uploadsCollection = "uploads"

// Connect opens the Mongo client with a bounded connection pool and verifies
// the connection before the service accepts requests.
func Connect(ctx context.Context, cfg config.MongoConfig) (*mongo.Client, error) {
	opts := options.Client().
		ApplyURI(cfg.URI).
		SetMinPoolSize(cfg.MinPoolSize).
		SetMaxPoolSize(cfg.MaxPoolSize).
		SetMaxConnIdleTime(cfg.MaxConnIdle).
		SetConnectTimeout(cfg.ConnectTimeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return client, nil
}

// UploadCollection returns the uploads collection handle.
func UploadCollection(client *mongo.Client, database string) *mongo.Collection {
	return client.Database(database).Collection(uploadsCollection)
}

// EnsureUploadIndexes creates the indexes listings depend on.
func EnsureUploadIndexes(ctx context.Context, coll *mongo.Collection) error {
	_, err := coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "ownerId", Value: 1}, {Key: "uploadedAt", Value: -1}},
			Options: options.Index().SetName("ownerId_uploadedAt"),
		},
		{
			Keys:    bson.D{{Key: "isPublic", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index().SetName("public_status"),
		},
	})
	return err
}

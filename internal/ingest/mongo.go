package ingest

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MongoStore persists rows to a MongoDB collection with a unique
// (partitionKey, rowKey) index.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoStore connects to MongoDB and ensures the uniqueness index
// backing idempotent inserts.
func NewMongoStore(ctx context.Context, uri, database, collection string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	coll := client.Database(database).Collection(collection)
	_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "partitionKey", Value: 1},
			{Key: "rowKey", Value: 1},
		},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("create row key index: %w", err)
	}

	return &MongoStore{client: client, coll: coll}, nil
}

// Insert writes one row. A duplicate key means the row was already
// delivered and persisted; that is success, not failure.
func (s *MongoStore) Insert(ctx context.Context, row Row) error {
	_, err := s.coll.InsertOne(ctx, row)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil
		}
		return fmt.Errorf("insert row %s/%s: %w", row.PartitionKey, row.RowKey, err)
	}
	return nil
}

// Close disconnects from MongoDB.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

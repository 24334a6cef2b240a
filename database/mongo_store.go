package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type blobDocument struct {
	Key       string    `bson:"_id"`
	Data      []byte    `bson:"data"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// MongoStore keeps each blob as one document of a collection, keyed by _id.
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
}

func DBInit(ctx context.Context, connString, databaseName, collectionName string) (*MongoStore, error) {
	clientOptions := options.Client().ApplyURI(connString)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("cannot connect to the db: %v", err)
	}

	err = client.Ping(ctx, nil)
	if err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("db is not available: %v", err)
	}

	return &MongoStore{
		client:     client,
		collection: client.Database(databaseName).Collection(collectionName),
	}, nil
}

func (s *MongoStore) Get(ctx context.Context, key string) ([]byte, error) {
	var doc blobDocument
	err := s.collection.FindOne(ctx, bson.D{{Key: "_id", Value: key}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrBlobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("server side problem occured while reading blob %v: %w", key, err)
	}
	return doc.Data, nil
}

func (s *MongoStore) Put(ctx context.Context, key string, blob []byte) error {
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "data", Value: blob},
		{Key: "updated_at", Value: time.Now().UTC()},
	}}}
	_, err := s.collection.UpdateOne(ctx, bson.D{{Key: "_id", Value: key}}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("server side problem occured while writing blob %v: %w", key, err)
	}
	return nil
}

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

package db

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ChatsCollection holds one document per chat aggregate.
const ChatsCollection = "chats"

// ConnectMongo connects to the document store and verifies the connection.
func ConnectMongo(ctx context.Context, uri, database string) (*mongo.Client, *mongo.Database, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("ping mongo: %w", err)
	}

	mdb := client.Database(database)
	if err := ensureIndexes(ctx, mdb.Collection(ChatsCollection)); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("create indexes: %w", err)
	}
	return client, mdb, nil
}

func ensureIndexes(ctx context.Context, coll *mongo.Collection) error {
	_, err := coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "participants.user", Value: 1}}},
		{Keys: bson.D{{Key: "isActive", Value: 1}, {Key: "lastActivity", Value: -1}}},
		{Keys: bson.D{{Key: "entityType", Value: 1}, {Key: "entityId", Value: 1}}},
	})
	return err
}

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	// mongoDatabase is the database scenes live in.
	mongoDatabase = "gravitas"

	// mongoCollection is the scene collection name.
	mongoCollection = "scenes"

	// mongoConnectTimeout bounds the initial connect and ping.
	mongoConnectTimeout = 5 * time.Second
)

// MongoStore persists scenes in a MongoDB collection. Scene documents use
// the scene ID as _id, so Put is an idempotent upsert.
type MongoStore struct {
	client *mongo.Client
	scenes *mongo.Collection
}

// NewMongoStore connects to MongoDB at uri and verifies the connection
// with a ping before returning.
func NewMongoStore(ctx context.Context, uri string) (*MongoStore, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}
	return &MongoStore{
		client: client,
		scenes: client.Database(mongoDatabase).Collection(mongoCollection),
	}, nil
}

// Put stores or replaces a scene by ID.
func (s *MongoStore) Put(ctx context.Context, scene *Scene) error {
	if scene.Name == "" {
		return ErrEmptyName
	}
	cp := *scene
	cp.UpdatedAt = time.Now().UTC()

	opts := options.Replace().SetUpsert(true)
	if _, err := s.scenes.ReplaceOne(ctx, bson.M{"_id": cp.ID}, cp, opts); err != nil {
		return fmt.Errorf("store scene %s: %w", cp.ID, err)
	}
	return nil
}

// Get retrieves a scene by ID.
func (s *MongoStore) Get(ctx context.Context, id string) (*Scene, error) {
	var scene Scene
	err := s.scenes.FindOne(ctx, bson.M{"_id": id}).Decode(&scene)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load scene %s: %w", id, err)
	}
	return &scene, nil
}

// List returns all scenes sorted by name, ties broken by ID.
func (s *MongoStore) List(ctx context.Context) ([]*Scene, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.scenes.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list scenes: %w", err)
	}
	defer cur.Close(ctx)

	var out []*Scene
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode scenes: %w", err)
	}
	return out, nil
}

// Delete removes a scene.
func (s *MongoStore) Delete(ctx context.Context, id string) error {
	res, err := s.scenes.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete scene %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Close disconnects from MongoDB.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

var _ Store = (*MongoStore)(nil)

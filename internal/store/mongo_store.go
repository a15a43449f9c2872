package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/podcastr/api/internal/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const episodesCollection = "episodes"

// MongoStore keeps episodes in a MongoDB collection keyed by episode id
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// OpenMongo connects and pings the server
func OpenMongo(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	return &MongoStore{
		client:     client,
		collection: client.Database(database).Collection(episodesCollection),
	}, nil
}

func (s *MongoStore) CreateEpisode(ctx context.Context, episode *model.Episode) error {
	if _, err := s.collection.InsertOne(ctx, episode); err != nil {
		return fmt.Errorf("insert episode: %w", err)
	}
	return nil
}

func (s *MongoStore) GetEpisode(ctx context.Context, id string) (*model.Episode, error) {
	var episode model.Episode
	err := s.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&episode)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get episode: %w", err)
	}
	return &episode, nil
}

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

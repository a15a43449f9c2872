package store

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/podcastr/api/internal/config"
	"github.com/podcastr/api/internal/model"
)

// ErrNotFound is returned when no episode has the requested id
var ErrNotFound = errors.New("episode not found")

// EpisodeStore persists published episodes
type EpisodeStore interface {
	// CreateEpisode inserts one record. It either stores every field or nothing.
	CreateEpisode(ctx context.Context, episode *model.Episode) error
	GetEpisode(ctx context.Context, id string) (*model.Episode, error)
	Close() error
}

// Open connects the backend selected by cfg.Driver
func Open(ctx context.Context, cfg *config.DatabaseConfig) (EpisodeStore, error) {
	switch cfg.Driver {
	case "mysql":
		if cfg.DSN == "" {
			return nil, fmt.Errorf("database.dsn is required for mysql")
		}
		log.Printf("[Store] Using MySQL episode store")
		return OpenGorm(cfg.DSN)
	case "mongo", "mongodb":
		if cfg.MongoURI == "" {
			return nil, fmt.Errorf("database.mongo_uri is required for mongo")
		}
		log.Printf("[Store] Using MongoDB episode store (db=%s)", cfg.MongoDatabase)
		return OpenMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
	case "", "sqlite":
		log.Printf("[Store] Using SQLite episode store at %s", cfg.SQLitePath)
		return OpenSQLite(ctx, cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

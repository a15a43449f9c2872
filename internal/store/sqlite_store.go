package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/podcastr/api/internal/model"
	_ "modernc.org/sqlite"
)

const episodesSchema = `
CREATE TABLE IF NOT EXISTS episodes (
    id TEXT PRIMARY KEY,
    author_id TEXT NOT NULL DEFAULT '',
    podcast_title TEXT NOT NULL,
    podcast_description TEXT NOT NULL,
    audio_storage_id TEXT NOT NULL,
    audio_url TEXT NOT NULL,
    image_storage_id TEXT NOT NULL,
    image_url TEXT NOT NULL,
    voice_type TEXT NOT NULL,
    voice_prompt TEXT NOT NULL DEFAULT '',
    image_prompt TEXT NOT NULL DEFAULT '',
    audio_duration REAL NOT NULL DEFAULT 0,
    views INTEGER NOT NULL DEFAULT 0,
    created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_episodes_author ON episodes(author_id);
`

// SQLiteStore keeps episodes in a local SQLite file
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens or creates the database at path and applies the schema
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	if _, err := db.ExecContext(ctx, episodesSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) CreateEpisode(ctx context.Context, e *model.Episode) error {
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO episodes (
            id, author_id, podcast_title, podcast_description,
            audio_storage_id, audio_url, image_storage_id, image_url,
            voice_type, voice_prompt, image_prompt, audio_duration, views, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID,
		e.AuthorID,
		e.Title,
		e.Description,
		e.AudioStorageID,
		e.AudioURL,
		e.ImageStorageID,
		e.ImageURL,
		string(e.VoiceType),
		e.VoicePrompt,
		e.ImagePrompt,
		e.AudioDuration,
		e.Views,
		e.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert episode: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetEpisode(ctx context.Context, id string) (*model.Episode, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT id, author_id, podcast_title, podcast_description,
            audio_storage_id, audio_url, image_storage_id, image_url,
            voice_type, voice_prompt, image_prompt, audio_duration, views, created_at
        FROM episodes WHERE id = ?`,
		id,
	)

	var (
		e         model.Episode
		voice     string
		createdAt string
	)
	err := row.Scan(
		&e.ID, &e.AuthorID, &e.Title, &e.Description,
		&e.AudioStorageID, &e.AudioURL, &e.ImageStorageID, &e.ImageURL,
		&voice, &e.VoicePrompt, &e.ImagePrompt, &e.AudioDuration, &e.Views, &createdAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get episode: %w", err)
	}

	e.VoiceType = model.VoiceType(voice)
	if e.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	return &e, nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

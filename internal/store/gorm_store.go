package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/podcastr/api/internal/model"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// GormStore keeps episodes in MySQL
type GormStore struct {
	db *gorm.DB
}

// OpenGorm connects to MySQL and migrates the episodes table
func OpenGorm(dsn string) (*GormStore, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql db: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&model.Episode{}); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("migrate episodes: %w", err)
	}

	return &GormStore{db: db}, nil
}

func (s *GormStore) CreateEpisode(ctx context.Context, episode *model.Episode) error {
	if err := s.db.WithContext(ctx).Create(episode).Error; err != nil {
		return fmt.Errorf("insert episode: %w", err)
	}
	return nil
}

func (s *GormStore) GetEpisode(ctx context.Context, id string) (*model.Episode, error) {
	var episode model.Episode
	err := s.db.WithContext(ctx).First(&episode, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get episode: %w", err)
	}
	return &episode, nil
}

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

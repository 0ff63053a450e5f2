package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"videohub/config"
	"videohub/constant"
	"videohub/entities"
)

var (
	ErrDuplicateKey = errors.New("duplicate key")
	ErrNotFound     = errors.New("record not found")
)

type VideoRepository interface {
	Insert(ctx context.Context, video *entities.Video) error
	Delete(ctx context.Context, id string) (bool, error)
	FindByID(ctx context.Context, id string) (*entities.Video, error)
	Count(ctx context.Context) (int64, error)
	ListPaged(ctx context.Context, skip, limit int) ([]entities.Video, error)
}

type repo struct {
	db *gorm.DB
}

// Open connects to the configured database, migrates the schema and seeds
// the video counter at 0 if it does not exist yet.
func Open(cfg config.Database) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&entities.Video{}, &entities.Counter{}); err != nil {
		return nil, err
	}

	seed := entities.Counter{Name: constant.VideoCounter, Count: 0}
	if err := db.Where(entities.Counter{Name: constant.VideoCounter}).
		FirstOrCreate(&seed).Error; err != nil {
		return nil, err
	}

	return db, nil
}

func NewRepo(db *gorm.DB) VideoRepository {
	return &repo{db: db}
}

func (r *repo) Insert(ctx context.Context, video *entities.Video) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(video).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("%w: video %s", ErrDuplicateKey, video.ID)
			}
			return err
		}

		return tx.Model(&entities.Counter{}).
			Where("name = ?", constant.VideoCounter).
			Update("count", gorm.Expr("count + 1")).Error
	})
}

func (r *repo) Delete(ctx context.Context, id string) (bool, error) {
	removed := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&entities.Video{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		removed = true

		return tx.Model(&entities.Counter{}).
			Where("name = ?", constant.VideoCounter).
			Update("count", gorm.Expr("count - 1")).Error
	})
	return removed, err
}

func (r *repo) FindByID(ctx context.Context, id string) (*entities.Video, error) {
	video := &entities.Video{}
	err := r.db.WithContext(ctx).First(video, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: video %s", ErrNotFound, id)
		}
		return nil, err
	}
	return video, nil
}

func (r *repo) Count(ctx context.Context) (int64, error) {
	counter := &entities.Counter{}
	err := r.db.WithContext(ctx).
		First(counter, "name = ?", constant.VideoCounter).Error
	if err != nil {
		return 0, err
	}
	return counter.Count, nil
}

func (r *repo) ListPaged(ctx context.Context, skip, limit int) ([]entities.Video, error) {
	var videos []entities.Video
	err := r.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Offset(skip).
		Limit(limit).
		Find(&videos).Error
	if err != nil {
		return nil, err
	}
	return videos, nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog"
	"videohub/config"
	"videohub/repository"
)

// DeleteService removes a video in two phases: the metadata row first,
// authoritatively, then the backing files as advisory cleanup. A file that
// cannot be removed is logged and left behind; the row deletion is never
// reverted.
type DeleteService struct {
	repo       repository.VideoRepository
	uploadDir  string
	mediaDir   string
	retryDelay time.Duration
}

func NewDeleteService(repo repository.VideoRepository, cfg config.Storage) *DeleteService {
	return &DeleteService{
		repo:       repo,
		uploadDir:  cfg.UploadDir,
		mediaDir:   cfg.MediaDir,
		retryDelay: 500 * time.Millisecond,
	}
}

func (s *DeleteService) Delete(ctx context.Context, id string) error {
	video, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: video %s", ErrNotFound, id)
		}
		return err
	}

	removed, err := s.repo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete video %s: %w", id, err)
	}
	if !removed {
		// A concurrent delete won the race.
		return fmt.Errorf("%w: video %s", ErrNotFound, id)
	}

	s.removeWithRetry(ctx, filepath.Join(s.mediaDir, video.Filename))
	s.removeRawLeftovers(ctx, id)

	zerolog.Ctx(ctx).Info().Str("id", id).Msg("video deleted")
	return nil
}

// removeWithRetry deletes path, retrying once after a short delay. A file
// open for reading can hold an exclusive lock on some platforms; the retry
// gives an in-flight stream a chance to finish.
func (s *DeleteService) removeWithRetry(ctx context.Context, path string) {
	operation := func() (struct{}, error) {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return struct{}{}, err
		}
		return struct{}{}, nil
	}

	_, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoff.NewConstantBackOff(s.retryDelay)),
		backoff.WithMaxTries(2),
	)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("path", path).
			Msg("could not remove file, leaving it orphaned")
	}
}

func (s *DeleteService) removeRawLeftovers(ctx context.Context, id string) {
	matches, err := filepath.Glob(filepath.Join(s.uploadDir, id+"*"))
	if err != nil {
		return
	}
	for _, path := range matches {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			zerolog.Ctx(ctx).Warn().Err(err).Str("path", path).Msg("failed to remove raw file")
		}
	}
}

package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"videohub/config"
	"videohub/entities"
	"videohub/pkg/worker"
	"videohub/repository"
)

type UploadInput struct {
	Content     io.Reader
	ContentType string
	Filename    string
	Title       string
}

// UploadService runs the upload pipeline: validate, persist raw bytes,
// transcode, probe duration, register metadata. Any failure unwinds the
// files written so far, so a failed upload leaves neither an orphaned
// serving file nor a partial metadata row.
type UploadService struct {
	repo      repository.VideoRepository
	processor MediaProcessor
	pool      *worker.Pool
	uploadDir string
	mediaDir  string
	transcode bool
}

func NewUploadService(repo repository.VideoRepository, processor MediaProcessor, pool *worker.Pool, cfg *config.Config) *UploadService {
	return &UploadService{
		repo:      repo,
		processor: processor,
		pool:      pool,
		uploadDir: cfg.Storage.UploadDir,
		mediaDir:  cfg.Storage.MediaDir,
		transcode: cfg.Transcode.Enabled,
	}
}

func (s *UploadService) Upload(ctx context.Context, in UploadInput) (*entities.Video, error) {
	if !strings.HasPrefix(in.ContentType, "video/") {
		return nil, fmt.Errorf("%w: content type %q", ErrInvalidContentType, in.ContentType)
	}

	id := uuid.New().String()
	ext := filepath.Ext(in.Filename)
	rawPath := filepath.Join(s.uploadDir, id+ext)

	if err := s.saveRaw(rawPath, in.Content); err != nil {
		return nil, fmt.Errorf("save upload: %w", err)
	}

	var servingName string
	if s.transcode {
		servingName = id + ".mp4"
		servingPath := filepath.Join(s.mediaDir, servingName)

		// ffmpeg is CPU-bound; run it on the worker pool, never on the
		// request goroutine.
		err := s.pool.Submit(ctx, func(jobCtx context.Context) error {
			return s.processor.Transcode(jobCtx, rawPath, servingPath)
		})
		if err != nil {
			s.removeQuietly(ctx, servingPath)
			s.removeQuietly(ctx, rawPath)
			return nil, err
		}

		s.removeQuietly(ctx, rawPath)
	} else {
		// Transcoding disabled: trust the upload as already playable and
		// move it straight into the serving directory.
		if ext == "" {
			ext = ".mp4"
		}
		servingName = id + ext
		servingPath := filepath.Join(s.mediaDir, servingName)
		if err := moveFile(rawPath, servingPath); err != nil {
			s.removeQuietly(ctx, rawPath)
			return nil, fmt.Errorf("store upload: %w", err)
		}
	}

	servingPath := filepath.Join(s.mediaDir, servingName)
	duration := s.processor.ProbeDuration(ctx, servingPath)

	video := &entities.Video{
		ID:       id,
		Title:    in.Title,
		Filename: servingName,
		Original: in.Filename,
		Duration: duration,
		URL:      "/videos/" + servingName,
	}

	if err := s.repo.Insert(ctx, video); err != nil {
		s.removeQuietly(ctx, servingPath)
		return nil, fmt.Errorf("register video %s: %w", id, err)
	}

	zerolog.Ctx(ctx).Info().
		Str("id", id).
		Str("filename", servingName).
		Str("duration", duration).
		Msg("video uploaded")

	return video, nil
}

// saveRaw writes the incoming stream fully to path. A short or failed
// write, including a client disconnect mid-transfer, removes the partial
// file before returning.
func (s *UploadService) saveRaw(path string, content io.Reader) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	if _, err := io.Copy(f, content); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return err
	}
	return nil
}

func (s *UploadService) removeQuietly(ctx context.Context, path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		zerolog.Ctx(ctx).Warn().Err(err).Str("path", path).Msg("failed to remove file")
	}
}

// moveFile renames src to dst, falling back to copy-and-remove when the
// directories live on different filesystems.
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return err
	}
	return os.Remove(src)
}

package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"videohub/config"
	"videohub/entities"
	"videohub/repository"
)

type deleteFixture struct {
	svc     *DeleteService
	repo    repository.VideoRepository
	storage config.Storage
}

func newDeleteFixture(t *testing.T) *deleteFixture {
	t.Helper()

	base := t.TempDir()
	storage := config.Storage{
		UploadDir: filepath.Join(base, "videos"),
		MediaDir:  filepath.Join(base, "static"),
	}
	require.NoError(t, os.MkdirAll(storage.UploadDir, 0o755))
	require.NoError(t, os.MkdirAll(storage.MediaDir, 0o755))

	db, err := repository.Open(config.Database{
		Driver: "sqlite",
		DSN:    filepath.Join(base, "test.db"),
	})
	require.NoError(t, err)
	repo := repository.NewRepo(db)

	return &deleteFixture{
		svc:     NewDeleteService(repo, storage),
		repo:    repo,
		storage: storage,
	}
}

func (fx *deleteFixture) seed(t *testing.T, id string) *entities.Video {
	t.Helper()
	video := &entities.Video{
		ID:       id,
		Title:    "seeded",
		Filename: id + ".mp4",
		Original: id + ".mov",
		Duration: "1:00",
		URL:      "/videos/" + id + ".mp4",
	}
	require.NoError(t, fx.repo.Insert(context.Background(), video))
	require.NoError(t, os.WriteFile(filepath.Join(fx.storage.MediaDir, video.Filename), []byte("data"), 0o644))
	return video
}

func TestDeleteUnknownID(t *testing.T) {
	fx := newDeleteFixture(t)

	err := fx.svc.Delete(context.Background(), "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteRemovesRowAndFiles(t *testing.T) {
	fx := newDeleteFixture(t)
	ctx := context.Background()

	video := fx.seed(t, "vid-1")
	require.NoError(t, os.WriteFile(filepath.Join(fx.storage.UploadDir, "vid-1.mov"), []byte("raw"), 0o644))

	require.NoError(t, fx.svc.Delete(ctx, video.ID))

	_, err := os.Stat(filepath.Join(fx.storage.MediaDir, video.Filename))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(fx.storage.UploadDir, "vid-1.mov"))
	assert.True(t, os.IsNotExist(err))

	count, err := fx.repo.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 0, count)
}

func TestDeleteTwice(t *testing.T) {
	fx := newDeleteFixture(t)
	ctx := context.Background()

	video := fx.seed(t, "vid-1")
	fx.seed(t, "vid-2")

	require.NoError(t, fx.svc.Delete(ctx, video.ID))
	require.ErrorIs(t, fx.svc.Delete(ctx, video.ID), ErrNotFound)

	// Exactly one decrement.
	count, err := fx.repo.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestDeleteSucceedsWhenFileRemovalFails(t *testing.T) {
	fx := newDeleteFixture(t)
	ctx := context.Background()

	video := fx.seed(t, "vid-1")

	// Replace the serving file with a non-empty directory so os.Remove
	// keeps failing even after the retry.
	path := filepath.Join(fx.storage.MediaDir, video.Filename)
	require.NoError(t, os.Remove(path))
	require.NoError(t, os.MkdirAll(filepath.Join(path, "child"), 0o755))

	// Row removal is authoritative; the stuck file must not fail the
	// operation.
	require.NoError(t, fx.svc.Delete(ctx, video.ID))

	count, err := fx.repo.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 0, count)

	_, err = fx.repo.FindByID(ctx, video.ID)
	require.ErrorIs(t, err, repository.ErrNotFound)
}

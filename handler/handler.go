package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"videohub/dto"
	"videohub/entities"
	"videohub/repository"
	"videohub/service"
	"videohub/web"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

type Handler struct {
	repo    repository.VideoRepository
	uploads *service.UploadService
	deletes *service.DeleteService
	streams *service.StreamService
}

func New(repo repository.VideoRepository, uploads *service.UploadService, deletes *service.DeleteService, streams *service.StreamService) *Handler {
	return &Handler{
		repo:    repo,
		uploads: uploads,
		deletes: deletes,
		streams: streams,
	}
}

func (h *Handler) Upload(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		abortError(c, http.StatusBadRequest, "missing video file")
		return
	}
	defer file.Close()

	video, err := h.uploads.Upload(c.Request.Context(), service.UploadInput{
		Content:     file,
		ContentType: header.Header.Get("Content-Type"),
		Filename:    header.Filename,
		Title:       c.PostForm("title"),
	})
	if err != nil {
		if errors.Is(err, service.ErrInvalidContentType) {
			abortError(c, http.StatusBadRequest, "please upload a video file")
			return
		}
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg("upload failed")
		abortError(c, http.StatusInternalServerError, "upload failed")
		return
	}

	c.JSON(http.StatusOK, video)
}

func (h *Handler) List(c *gin.Context) {
	page, err := queryInt(c, "page", 1)
	if err != nil || page < 1 {
		abortError(c, http.StatusBadRequest, "page must be a positive integer")
		return
	}
	pageSize, err := queryInt(c, "pageSize", defaultPageSize)
	if err != nil || pageSize < 1 || pageSize > maxPageSize {
		abortError(c, http.StatusBadRequest, "pageSize must be between 1 and 100")
		return
	}

	ctx := c.Request.Context()
	total, err := h.repo.Count(ctx)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to count videos")
		abortError(c, http.StatusInternalServerError, "failed to list videos")
		return
	}

	videos, err := h.repo.ListPaged(ctx, (page-1)*pageSize, pageSize)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to list videos")
		abortError(c, http.StatusInternalServerError, "failed to list videos")
		return
	}
	if videos == nil {
		videos = []entities.Video{}
	}

	// Listings must never be cached: a deleted video has to disappear on
	// the next refresh.
	c.Header("Cache-Control", "no-store, must-revalidate")
	c.Header("Pragma", "no-cache")
	c.Header("Expires", "0")

	totalPages := (total + int64(pageSize) - 1) / int64(pageSize)
	c.JSON(http.StatusOK, dto.VideoListResponse{
		Videos:     videos,
		Total:      total,
		Page:       page,
		TotalPages: totalPages,
	})
}

func (h *Handler) Delete(c *gin.Context) {
	err := h.deletes.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			abortError(c, http.StatusNotFound, "video not found")
			return
		}
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg("delete failed")
		abortError(c, http.StatusInternalServerError, "delete failed")
		return
	}

	c.JSON(http.StatusOK, dto.DeleteResponse{OK: true})
}

func (h *Handler) Stream(c *gin.Context) {
	ctx := c.Request.Context()
	stream, info, err := h.streams.OpenStream(ctx, c.Param("filename"), c.GetHeader("Range"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			abortError(c, http.StatusNotFound, "file not found")
		case errors.Is(err, service.ErrRangeNotSatisfiable):
			abortError(c, http.StatusRequestedRangeNotSatisfiable, "range not satisfiable")
		default:
			zerolog.Ctx(ctx).Error().Err(err).Msg("failed to open stream")
			abortError(c, http.StatusInternalServerError, "failed to open stream")
		}
		return
	}
	defer stream.Close()

	c.Header("Accept-Ranges", "bytes")
	c.Header("Content-Length", strconv.FormatInt(info.ContentLength(), 10))
	c.Header("Content-Type", "video/mp4")
	// The file behind this URL may be deleted and replaced under the same
	// slot; streamed content must not be cached.
	c.Header("Cache-Control", "no-cache")

	status := http.StatusOK
	if info.Partial {
		status = http.StatusPartialContent
		c.Header("Content-Range", info.ContentRange())
	}
	c.Status(status)

	if err := h.streams.Copy(ctx, c.Writer, stream); err != nil {
		// Headers and earlier chunks are already on the wire; all we can
		// do is log and close the connection.
		zerolog.Ctx(ctx).Warn().Err(err).Str("filename", c.Param("filename")).
			Msg("stream aborted")
	}
}

func (h *Handler) Home(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", web.Index)
}

func abortError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, dto.ErrorResponse{Error: msg})
}

func queryInt(c *gin.Context, name string, fallback int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}

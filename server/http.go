package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"videohub/config"
	"videohub/constant"
	"videohub/handler"
	"videohub/pkg/worker"
	"videohub/repository"
	"videohub/service"
)

func RunHttp(cfg *config.Config) {
	ctx, cancel := signal.NotifyContext(setupLogger(cfg), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	zerolog.Ctx(ctx).Info().Str("env", cfg.App.Environment).Bool("isProduction", cfg.App.Environment == constant.EnvironmentProduction.String()).Send()
	if cfg.App.Environment == constant.EnvironmentProduction.String() {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := ensureDirs(cfg.Storage); err != nil {
		zerolog.Ctx(ctx).Fatal().Err(err).Msg("failed to create storage directories")
	}

	db, err := repository.Open(cfg.Database)
	if err != nil {
		zerolog.Ctx(ctx).Fatal().Err(err).Msg("failed to open database")
	}

	pool := worker.NewPool(cfg.Server.Workers)
	pool.Start(ctx)

	repo := repository.NewRepo(db)
	processor := service.NewFFmpegProcessor(cfg.Transcode)
	uploads := service.NewUploadService(repo, processor, pool, cfg)
	deletes := service.NewDeleteService(repo, cfg.Storage)
	streams := service.NewStreamService(cfg.Storage)

	h := handler.New(repo, uploads, deletes, streams)

	r := gin.Default()
	r.Use(cors())
	r.Use(requestLogger(ctx))
	addRoutes(r, h)

	srv := http.Server{
		Handler:           r,
		Addr:              fmt.Sprintf(":%s", cfg.Server.HttpPort),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zerolog.Ctx(ctx).Info().Str("addr", srv.Addr).Msg("start http server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zerolog.Ctx(ctx).Error().Str("env", cfg.App.Environment).Msg(err.Error())
		}
	}()

	<-ctx.Done()
	zerolog.Ctx(ctx).Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zerolog.Ctx(ctx).Error().Str("env", cfg.App.Environment).Msg(err.Error())
	}
	pool.Wait()

	zerolog.Ctx(ctx).Info().Str("env", cfg.App.Environment).Msg("server shutdown")
}

func addRoutes(r *gin.Engine, h *handler.Handler) {
	r.GET("/", h.Home)
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	})

	r.POST("/upload", h.Upload)
	r.GET("/videos", h.List)
	r.GET("/videos/:filename", h.Stream)
	r.DELETE("/videos/:id", h.Delete)
}

// ensureDirs creates the raw upload and serving directories, idempotently.
func ensureDirs(cfg config.Storage) error {
	for _, dir := range []string{cfg.UploadDir, cfg.MediaDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return nil
}

func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Range")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// requestLogger attaches the application logger to every request context so
// services can use zerolog.Ctx down the call chain.
func requestLogger(appCtx context.Context) gin.HandlerFunc {
	logger := zerolog.Ctx(appCtx)
	return func(c *gin.Context) {
		c.Request = c.Request.WithContext(logger.WithContext(c.Request.Context()))
		c.Next()
	}
}

func setupLogger(cfg *config.Config) context.Context {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if cfg.App.Environment == constant.EnvironmentDevelop.String() {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	ctx := logger.WithContext(context.Background())

	return ctx
}

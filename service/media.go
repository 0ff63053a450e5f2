package service

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"

	"github.com/rs/zerolog"
	"videohub/config"
	"videohub/constant"
)

// MediaProcessor abstracts the external encoder so the upload pipeline can be
// tested without real media files.
type MediaProcessor interface {
	// Transcode converts src into a playable mp4 at dst.
	Transcode(ctx context.Context, src, dst string) error
	// ProbeDuration returns the media duration as "m:ss", or
	// constant.DurationUnknown when probing fails. Duration is best-effort
	// metadata and never an error.
	ProbeDuration(ctx context.Context, path string) string
}

type ffmpegProcessor struct {
	ffmpegBin  string
	ffprobeBin string
}

func NewFFmpegProcessor(cfg config.Transcode) MediaProcessor {
	return &ffmpegProcessor{
		ffmpegBin:  cfg.FFmpegBin,
		ffprobeBin: cfg.FFprobeBin,
	}
}

func (p *ffmpegProcessor) Transcode(ctx context.Context, src, dst string) error {
	args := []string{
		"-y",
		"-i", src,
		"-c:v", "libx264",
		"-preset", "fast",
		"-crf", "23",
		"-c:a", "aac",
		"-movflags", "+faststart",
		dst,
	}

	cmd := exec.CommandContext(ctx, p.ffmpegBin, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		zerolog.Ctx(ctx).Error().
			Str("src", src).
			Str("dst", dst).
			Str("output", tail(output, 2048)).
			Msg("ffmpeg execution failed")
		return fmt.Errorf("%w: %v", ErrTranscodeFailed, err)
	}

	return nil
}

func (p *ffmpegProcessor) ProbeDuration(ctx context.Context, path string) string {
	cmd := exec.CommandContext(ctx, p.ffprobeBin,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "json",
		path,
	)
	out, err := cmd.Output()
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("path", path).Msg("ffprobe failed")
		return constant.DurationUnknown
	}

	var probe struct {
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
	}
	if err := json.Unmarshal(out, &probe); err != nil {
		return constant.DurationUnknown
	}

	seconds, err := strconv.ParseFloat(probe.Format.Duration, 64)
	if err != nil {
		return constant.DurationUnknown
	}

	return FormatDuration(seconds)
}

// FormatDuration renders a duration in seconds as "m:ss".
func FormatDuration(seconds float64) string {
	total := int(seconds)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

func tail(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[len(b)-n:])
}

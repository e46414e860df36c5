package subtitles

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	langpkg "opendub/internal/language"
	"opendub/internal/logging"
	"opendub/internal/media/ffmpeg"
)

// Track is one subtitle file to embed.
type Track struct {
	Path     string // SRT file
	Language string // ISO 639-1 or 639-3 code
}

// MuxRequest describes the inputs for subtitle muxing.
type MuxRequest struct {
	VideoPath string
	Tracks    []Track
}

// MuxResult reports the outcome of subtitle muxing.
type MuxResult struct {
	OutputPath string
	Languages  []string // ISO 639-3 tags written to the container
}

// Muxer embeds SRT subtitles into MP4 containers using ffmpeg.
type Muxer struct {
	binary string
	logger *slog.Logger
	run    ffmpeg.CommandRunner
}

// NewMuxer constructs a subtitle muxer.
func NewMuxer(binary string, logger *slog.Logger) *Muxer {
	if strings.TrimSpace(binary) == "" {
		binary = "ffmpeg"
	}
	return &Muxer{
		binary: binary,
		logger: logging.NewComponentLogger(logger, "muxer"),
		run:    ffmpeg.DefaultCommandRunner,
	}
}

// WithCommandRunner allows injecting a custom command runner for tests.
func (m *Muxer) WithCommandRunner(r ffmpeg.CommandRunner) *Muxer {
	if m != nil && r != nil {
		m.run = r
	}
	return m
}

// MuxSubtitles embeds SRT tracks into the video in place. A temporary file is
// written next to the video and renamed over it on success.
func (m *Muxer) MuxSubtitles(ctx context.Context, req MuxRequest) (MuxResult, error) {
	if m == nil {
		return MuxResult{}, fmt.Errorf("muxer not initialized")
	}
	if strings.TrimSpace(req.VideoPath) == "" {
		return MuxResult{}, fmt.Errorf("video path is required")
	}
	if len(req.Tracks) == 0 {
		return MuxResult{}, fmt.Errorf("at least one subtitle track is required")
	}
	if _, err := os.Stat(req.VideoPath); err != nil {
		return MuxResult{}, fmt.Errorf("source video not found: %w", err)
	}
	for _, track := range req.Tracks {
		if _, err := os.Stat(track.Path); err != nil {
			return MuxResult{}, fmt.Errorf("subtitle file not found %q: %w", track.Path, err)
		}
	}

	dir := filepath.Dir(req.VideoPath)
	base := filepath.Base(req.VideoPath)
	tmpPath := filepath.Join(dir, ".mux-"+base)

	args, languages := buildArgs(req, tmpPath)
	m.logger.Debug("executing ffmpeg subtitle mux",
		logging.String("video_path", req.VideoPath),
		logging.Int("track_count", len(req.Tracks)),
		logging.String("languages", strings.Join(languages, ",")),
	)

	if err := m.run(ctx, m.binary, args...); err != nil {
		_ = os.Remove(tmpPath)
		return MuxResult{}, fmt.Errorf("ffmpeg subtitle mux failed: %w", err)
	}
	if _, err := os.Stat(tmpPath); err != nil {
		return MuxResult{}, fmt.Errorf("ffmpeg did not produce output file: %w", err)
	}
	if err := os.Rename(tmpPath, req.VideoPath); err != nil {
		_ = os.Remove(tmpPath)
		return MuxResult{}, fmt.Errorf("failed to replace original video: %w", err)
	}

	m.logger.Info("subtitles embedded",
		logging.String(logging.FieldEventType, "subtitle_mux_complete"),
		logging.String("video_path", req.VideoPath),
		logging.Int("tracks_added", len(req.Tracks)),
	)
	return MuxResult{OutputPath: req.VideoPath, Languages: languages}, nil
}

func buildArgs(req MuxRequest, outputPath string) ([]string, []string) {
	args := []string{"-hide_banner", "-loglevel", "error", "-y", "-i", req.VideoPath}
	for _, track := range req.Tracks {
		args = append(args, "-i", track.Path)
	}
	args = append(args, "-map", "0")

	languages := make([]string, 0, len(req.Tracks))
	for idx, track := range req.Tracks {
		lang3 := langpkg.ToISO3(track.Language)
		languages = append(languages, lang3)
		args = append(args,
			"-map", strconv.Itoa(idx+1),
			"-metadata:s:s:"+strconv.Itoa(idx), "language="+lang3,
			"-metadata:s:s:"+strconv.Itoa(idx), "title="+langpkg.DisplayName(track.Language),
		)
	}
	args = append(args, "-c:v", "copy", "-c:a", "copy", "-c:s", "mov_text", outputPath)
	return args, languages
}

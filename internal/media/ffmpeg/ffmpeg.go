package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"opendub/internal/logging"
	"opendub/internal/media/ffprobe"
)

// CommandRunner executes an external command, returning an error that
// includes the command output on failure.
type CommandRunner func(ctx context.Context, name string, args ...string) error

// Tool runs the ffmpeg operations the dubbing pipeline needs.
type Tool struct {
	binary string
	prober *ffprobe.Prober
	logger *slog.Logger
	run    CommandRunner
}

// New constructs a Tool invoking binary. Durations are measured with prober.
func New(binary string, prober *ffprobe.Prober, logger *slog.Logger) *Tool {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	if prober == nil {
		prober = ffprobe.NewProber("")
	}
	return &Tool{
		binary: binary,
		prober: prober,
		logger: logging.NewComponentLogger(logger, "ffmpeg"),
		run:    DefaultCommandRunner,
	}
}

// WithCommandRunner allows injecting a custom command runner for tests.
func (t *Tool) WithCommandRunner(run CommandRunner) *Tool {
	if t != nil && run != nil {
		t.run = run
	}
	return t
}

// Binary returns the ffmpeg executable in use.
func (t *Tool) Binary() string { return t.binary }

// Duration returns the length of a media file in seconds.
func (t *Tool) Duration(ctx context.Context, path string) (float64, error) {
	return t.prober.Duration(ctx, path)
}

// Inspect returns the ffprobe description of path.
func (t *Tool) Inspect(ctx context.Context, path string) (ffprobe.Result, error) {
	return t.prober.Inspect(ctx, path)
}

// SplitAudioVideo extracts the first audio stream as mp3 and the first video
// stream without audio into outDir. Returns the video and audio paths.
func (t *Tool) SplitAudioVideo(ctx context.Context, videoFile, outDir string) (string, string, error) {
	stem := stemOf(videoFile)
	audioFile := filepath.Join(outDir, stem+"_audio.mp3")
	videoOnly := filepath.Join(outDir, stem+"_video.mp4")

	if err := t.exec(ctx, "-i", videoFile, "-map", "0:a:0", "-b:a", "128k", audioFile); err != nil {
		return "", "", fmt.Errorf("extract audio: %w", err)
	}
	if err := t.exec(ctx, "-i", videoFile, "-map", "0:v:0", "-an", "-c:v", "copy", videoOnly); err != nil {
		return "", "", fmt.Errorf("extract video: %w", err)
	}
	t.logger.Debug("split audio and video",
		logging.String("video_file", videoOnly),
		logging.String("audio_file", audioFile),
	)
	return videoOnly, audioFile, nil
}

// CombineAudioVideo muxes a video stream with a new audio track into outputFile.
func (t *Tool) CombineAudioVideo(ctx context.Context, videoFile, audioFile, outputFile string) error {
	return t.exec(ctx,
		"-i", videoFile,
		"-i", audioFile,
		"-map", "0:v:0", "-map", "1:a:0",
		"-c:v", "copy", "-c:a", "aac",
		"-shortest",
		outputFile,
	)
}

// Cut extracts [start, end) seconds of src into dst.
func (t *Tool) Cut(ctx context.Context, src, dst string, start, end float64) error {
	if end <= start {
		return fmt.Errorf("cut %s: end %.3f must be after start %.3f", filepath.Base(src), end, start)
	}
	return t.exec(ctx,
		"-i", src,
		"-ss", formatSeconds(start),
		"-to", formatSeconds(end),
		"-vn",
		dst,
	)
}

// ExtractHead writes the first seconds of src as 16 kHz mono WAV.
func (t *Tool) ExtractHead(ctx context.Context, src, dst string, seconds float64) error {
	return t.exec(ctx,
		"-i", src,
		"-t", formatSeconds(seconds),
		"-vn", "-ac", "1", "-ar", "16000", "-c:a", "pcm_s16le",
		dst,
	)
}

// ToPCM converts src into a 16-bit PCM WAV file with the given layout.
func (t *Tool) ToPCM(ctx context.Context, src, dst string, sampleRate, channels int) error {
	return t.exec(ctx,
		"-i", src,
		"-vn",
		"-ac", strconv.Itoa(channels),
		"-ar", strconv.Itoa(sampleRate),
		"-c:a", "pcm_s16le",
		dst,
	)
}

// Convert re-encodes src into dst, choosing the codec from dst's extension.
func (t *Tool) Convert(ctx context.Context, src, dst string) error {
	return t.exec(ctx, "-i", src, "-vn", dst)
}

// RemoveTrailingSilence strips silence appended after the last speech in path.
func (t *Tool) RemoveTrailingSilence(ctx context.Context, path string) error {
	return t.replaceInPlace(ctx, path, func(tmp string) []string {
		return []string{
			"-i", path,
			"-af", "silenceremove=stop_periods=-1:stop_duration=0.1:stop_threshold=-50dB",
			tmp,
		}
	})
}

// AdjustSpeed time-stretches path by speed while preserving pitch.
func (t *Tool) AdjustSpeed(ctx context.Context, path string, speed float64) error {
	if speed < 0.5 || speed > 100 {
		return fmt.Errorf("adjust speed: factor %.2f outside atempo range", speed)
	}
	return t.replaceInPlace(ctx, path, func(tmp string) []string {
		return []string{
			"-i", path,
			"-filter:a", "atempo=" + strconv.FormatFloat(speed, 'f', -1, 64),
			tmp,
		}
	})
}

// MixWithBackground overlays vocals, boosted by gainDB, on background into dst.
// The result keeps the background's length.
func (t *Tool) MixWithBackground(ctx context.Context, background, vocals, dst string, gainDB float64) error {
	filter := fmt.Sprintf(
		"[1:a]volume=%sdB[v];[0:a][v]amix=inputs=2:duration=first:normalize=0[out]",
		strconv.FormatFloat(gainDB, 'f', -1, 64),
	)
	return t.exec(ctx,
		"-i", background,
		"-i", vocals,
		"-filter_complex", filter,
		"-map", "[out]",
		dst,
	)
}

func (t *Tool) replaceInPlace(ctx context.Context, path string, build func(tmp string) []string) error {
	dir := filepath.Dir(path)
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	tmp := filepath.Join(dir, "."+strings.TrimSuffix(base, ext)+".tmp"+ext)

	if err := t.exec(ctx, build(tmp)...); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if _, err := os.Stat(tmp); err != nil {
		return fmt.Errorf("ffmpeg did not produce output file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace %s: %w", base, err)
	}
	return nil
}

func (t *Tool) exec(ctx context.Context, args ...string) error {
	full := append([]string{"-hide_banner", "-loglevel", "error", "-y"}, args...)
	t.logger.Debug("executing ffmpeg", logging.String("args", strings.Join(full, " ")))
	if err := t.run(ctx, t.binary, full...); err != nil {
		return fmt.Errorf("ffmpeg: %w", err)
	}
	return nil
}

// DefaultCommandRunner executes name with args and folds its combined output
// into the returned error.
func DefaultCommandRunner(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}

func stemOf(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}

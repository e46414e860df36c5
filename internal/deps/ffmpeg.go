package deps

import (
	"fmt"
	"strings"

	"opendub/internal/services"
)

// MediaRequirements lists ffmpeg and ffprobe, which every run needs.
func MediaRequirements(ffmpegBinary, ffprobeBinary string) []Requirement {
	return []Requirement{
		{Name: "FFmpeg", Command: ffmpegBinary, Purpose: "splitting, cutting, speed changes and muxing"},
		{Name: "FFprobe", Command: ffprobeBinary, Purpose: "media durations"},
	}
}

// PipelineRequirements adds the uvx launcher used for WhisperX and Demucs
// to the media tools.
func PipelineRequirements(ffmpegBinary, ffprobeBinary, uvxBinary string) []Requirement {
	return append(MediaRequirements(ffmpegBinary, ffprobeBinary), Requirement{
		Name:    "uvx",
		Command: uvxBinary,
		Purpose: "WhisperX diarization and Demucs separation",
	})
}

// RequireFFmpeg fails with services.ErrNoFFmpeg unless both media tools
// resolve on PATH.
func RequireFFmpeg(ffmpegBinary, ffprobeBinary string) error {
	missing := Missing(Lookup(MediaRequirements(ffmpegBinary, ffprobeBinary)))
	if len(missing) == 0 {
		return nil
	}
	names := make([]string, 0, len(missing))
	for _, m := range missing {
		names = append(names, m.Command)
	}
	return services.Wrap(services.ErrNoFFmpeg, "preflight", "ffmpeg",
		fmt.Sprintf("missing %s; install ffmpeg and make sure it is on PATH", strings.Join(names, ", ")), nil)
}

package dubbing

import (
	"context"

	"opendub/internal/history"
	"opendub/internal/notifications"
	"opendub/internal/separation"
	"opendub/internal/services/whisperx"
	"opendub/internal/stt"
	"opendub/internal/subtitles"
	"opendub/internal/translation"
	"opendub/internal/tts"
)

// Media is the ffmpeg surface the pipeline uses.
type Media interface {
	SplitAudioVideo(ctx context.Context, videoFile, outDir string) (string, string, error)
	Cut(ctx context.Context, src, dst string, start, end float64) error
	ToPCM(ctx context.Context, src, dst string, sampleRate, channels int) error
	Convert(ctx context.Context, src, dst string) error
	MixWithBackground(ctx context.Context, background, vocals, dst string, gainDB float64) error
	CombineAudioVideo(ctx context.Context, videoFile, audioFile, outputFile string) error
	Duration(ctx context.Context, path string) (float64, error)
}

// Separator isolates vocals from background.
type Separator interface {
	Separate(ctx context.Context, audioFile, outDir string) (separation.Result, error)
}

// Diarizer segments audio into speaker-labelled spans.
type Diarizer interface {
	Diarize(ctx context.Context, source, outputDir, language string) (whisperx.Result, error)
}

// SubtitleMuxer embeds subtitle tracks into a video.
type SubtitleMuxer interface {
	MuxSubtitles(ctx context.Context, req subtitles.MuxRequest) (subtitles.MuxResult, error)
}

// Components are the collaborators a Dubber drives. History and Notifier are
// optional.
type Components struct {
	Media      Media
	Separator  Separator
	Diarizer   Diarizer
	Muxer      SubtitleMuxer
	STT        *stt.Service
	Translator *translation.Service
	TTS        *tts.Synthesizer
	History    *history.Store
	Notifier   notifications.Service
}

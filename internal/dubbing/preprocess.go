package dubbing

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"opendub/internal/fileutil"
	"opendub/internal/logging"
	"opendub/internal/services"
	"opendub/internal/textutil"
	"opendub/internal/utterance"
)

// DefaultSpeakerID labels segments the diarizer left unattributed.
const DefaultSpeakerID = "SPEAKER_00"

// RenameInputFile moves path to a sibling whose base name holds only
// lowercase letters and digits, keeping the extension. Tools further down
// the pipeline choke on spaces and shell metacharacters.
func RenameInputFile(path string, logger *slog.Logger) (string, error) {
	dir := filepath.Dir(path)
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(filepath.Base(path), ext)
	clean := textutil.SanitizeBaseName(base)
	if clean == "" {
		return "", services.Wrap(services.ErrInvalidFileFormat, StagePreprocessing, "rename input",
			fmt.Sprintf("%q has no usable characters in its name", filepath.Base(path)), nil)
	}
	if clean == base {
		return path, nil
	}
	renamed := filepath.Join(dir, clean+strings.ToLower(ext))
	if err := fileutil.MoveFile(path, renamed); err != nil {
		return "", services.Wrap(services.ErrValidation, StagePreprocessing, "rename input", "could not rename the input file", err)
	}
	if logger != nil {
		logging.WarnWithContext(logger, "input file renamed", "input_renamed",
			logging.String("from", path),
			logging.String("to", renamed),
			logging.String(logging.FieldImpact, "the original file name no longer exists on disk"),
		)
	}
	return renamed, nil
}

func (d *Dubber) preprocess(ctx context.Context) error {
	logger := logging.WithContext(ctx, d.logger)
	video, audio, err := d.comp.Media.SplitAudioVideo(ctx, d.opts.InputFile, d.opts.OutputDir)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, StagePreprocessing, "split", "could not split audio and video", err)
	}
	stems, err := d.comp.Separator.Separate(ctx, audio, d.opts.OutputDir)
	if err != nil {
		return err
	}
	d.artifacts = utterance.Artifacts{
		VideoFile:      video,
		AudioFile:      audio,
		VocalsFile:     stems.Vocals,
		BackgroundFile: stems.Background,
	}

	diarized, err := d.comp.Diarizer.Diarize(ctx, audio, d.opts.OutputDir, d.opts.SourceLanguage)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, StagePreprocessing, "diarize", "speaker diarization failed", err)
	}
	us := make([]utterance.Utterance, 0, len(diarized.Segments))
	for _, seg := range diarized.Segments {
		if seg.End <= seg.Start {
			continue
		}
		speaker := seg.Speaker
		if speaker == "" {
			speaker = DefaultSpeakerID
		}
		us = append(us, utterance.Utterance{
			Start:      seg.Start,
			End:        seg.End,
			SpeakerID:  speaker,
			ForDubbing: true,
		})
	}
	if len(us) == 0 {
		return services.Wrap(services.ErrValidation, StagePreprocessing, "diarize", "no speech found in the input", nil)
	}

	for i := range us {
		if err := ctx.Err(); err != nil {
			return err
		}
		dst := ChunkPath(d.opts.OutputDir, us[i])
		if err := d.comp.Media.Cut(ctx, audio, dst, us[i].Start, us[i].End); err != nil {
			return services.Wrap(services.ErrExternalTool, StagePreprocessing, "cut", "could not cut utterance audio", err)
		}
		us[i].Path = dst
	}
	d.utterances = us
	logger.Info("preprocessing complete",
		logging.String(logging.FieldEventType, "preprocessing_complete"),
		logging.Int("segments", len(us)),
		logging.String("video_file", video),
		logging.String("vocals_file", stems.Vocals),
	)
	return nil
}

// ChunkPath names the source clip cut for u.
func ChunkPath(dir string, u utterance.Utterance) string {
	return filepath.Join(dir, fmt.Sprintf("chunk_%s_%s.mp3", textutil.FormatSeconds(u.Start), textutil.FormatSeconds(u.End)))
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

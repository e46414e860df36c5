package dubbing

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"opendub/internal/logging"
	"opendub/internal/media/audio"
	"opendub/internal/services"
	"opendub/internal/subtitles"
)

// Vocal track layout used when assembling dubbed clips.
const (
	VocalsSampleRate = 44100
	VocalsChannels   = 1
)

// DubbedVocalsFileName is the assembled dubbed voice track.
const DubbedVocalsFileName = "dubbed_vocals.mp3"

// DubbedAudioFileName returns the mixed audio name for a target language.
func DubbedAudioFileName(language string) string {
	return fmt.Sprintf("dubbed_audio_%s.mp3", language)
}

// DubbedVideoFileName returns the final video name for a target language.
func DubbedVideoFileName(language string) string {
	return fmt.Sprintf("dubbed_video_%s.mp4", language)
}

func (d *Dubber) postprocess(ctx context.Context, result *Result) error {
	logger := logging.WithContext(ctx, d.logger)
	vocals, err := d.assembleVocals(ctx)
	if err != nil {
		return err
	}

	audioOut := filepath.Join(d.opts.OutputDir, DubbedAudioFileName(d.opts.TargetLanguage))
	if err := d.comp.Media.MixWithBackground(ctx, d.artifacts.BackgroundFile, vocals, audioOut, d.opts.VocalsGainDB); err != nil {
		return services.Wrap(services.ErrExternalTool, StagePostprocess, "mix", "could not mix dubbed vocals with background", err)
	}
	videoOut := filepath.Join(d.opts.OutputDir, DubbedVideoFileName(d.opts.TargetLanguage))
	if err := d.comp.Media.CombineAudioVideo(ctx, d.artifacts.VideoFile, audioOut, videoOut); err != nil {
		return services.Wrap(services.ErrExternalTool, StagePostprocess, "combine", "could not combine audio and video", err)
	}
	result.AudioFile = audioOut
	result.VideoFile = videoOut

	if err := d.subtitles(ctx, videoOut, result); err != nil {
		return err
	}
	logger.Info("dubbed video written",
		logging.String(logging.FieldEventType, "postprocess_complete"),
		logging.String("video_file", videoOut),
		logging.String("audio_file", audioOut),
		logging.Int("subtitle_tracks", len(result.Subtitles)),
	)
	return nil
}

// assembleVocals places every dubbed clip at its utterance start on a silent
// track as long as the background and encodes the result.
func (d *Dubber) assembleVocals(ctx context.Context) (string, error) {
	length, err := d.comp.Media.Duration(ctx, d.artifacts.BackgroundFile)
	if err != nil {
		return "", services.Wrap(services.ErrExternalTool, StagePostprocess, "probe", "could not measure the background track", err)
	}
	work, err := os.MkdirTemp(d.opts.OutputDir, ".vocals-")
	if err != nil {
		return "", fmt.Errorf("create vocals workdir: %w", err)
	}
	defer os.RemoveAll(work)

	track := audio.NewTrack(VocalsSampleRate, VocalsChannels, length)
	for i, u := range d.utterances {
		if u.DubbedPath == "" {
			continue
		}
		pcm := filepath.Join(work, fmt.Sprintf("clip_%04d.wav", i))
		if err := d.comp.Media.ToPCM(ctx, u.DubbedPath, pcm, VocalsSampleRate, VocalsChannels); err != nil {
			return "", services.Wrap(services.ErrExternalTool, StagePostprocess, "decode", "could not decode "+filepath.Base(u.DubbedPath), err)
		}
		clip, err := audio.ReadWAV(pcm)
		if err != nil {
			return "", services.Wrap(services.ErrExternalTool, StagePostprocess, "decode", "could not read "+filepath.Base(pcm), err)
		}
		if err := track.Overlay(clip, u.Start); err != nil {
			return "", fmt.Errorf("overlay utterance %d: %w", u.ID, err)
		}
	}

	wav := filepath.Join(work, "dubbed_vocals.wav")
	if err := track.Save(wav); err != nil {
		return "", fmt.Errorf("write vocal track: %w", err)
	}
	out := filepath.Join(d.opts.OutputDir, DubbedVocalsFileName)
	if err := d.comp.Media.Convert(ctx, wav, out); err != nil {
		return "", services.Wrap(services.ErrExternalTool, StagePostprocess, "encode", "could not encode the vocal track", err)
	}
	return out, nil
}

func (d *Dubber) subtitles(ctx context.Context, video string, result *Result) error {
	var tracks []subtitles.Track
	if d.opts.OriginalSubtitles {
		path, err := subtitles.Write(d.opts.OutputDir, subtitles.FileName(d.opts.SourceLanguage), d.utterances, subtitles.Original)
		if err != nil {
			return err
		}
		tracks = append(tracks, subtitles.Track{Path: path, Language: d.opts.SourceLanguage})
	}
	if d.opts.DubbedSubtitles {
		path, err := subtitles.Write(d.opts.OutputDir, subtitles.FileName(d.opts.TargetLanguage), d.utterances, subtitles.Dubbed)
		if err != nil {
			return err
		}
		tracks = append(tracks, subtitles.Track{Path: path, Language: d.opts.TargetLanguage})
	}
	if len(tracks) == 0 {
		return nil
	}
	for _, t := range tracks {
		result.Subtitles = append(result.Subtitles, t.Path)
	}
	if d.comp.Muxer == nil {
		return nil
	}
	if _, err := d.comp.Muxer.MuxSubtitles(ctx, subtitles.MuxRequest{VideoPath: video, Tracks: tracks}); err != nil {
		return services.Wrap(services.ErrExternalTool, StagePostprocess, "subtitles", "could not embed subtitles", err)
	}
	return nil
}

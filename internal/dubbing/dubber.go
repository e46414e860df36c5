package dubbing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"opendub/internal/history"
	"opendub/internal/logging"
	"opendub/internal/services"
	"opendub/internal/stageexec"
	"opendub/internal/stt"
	"opendub/internal/tts"
	"opendub/internal/utterance"
)

// Stage names used for timing, logging and history.
const (
	StagePreprocessing = "preprocessing"
	StageSTT           = "stt"
	StageTranslation   = "translation"
	StageTTS           = "tts"
	StagePostprocess   = "postprocessing"
)

// DefaultVocalsGainDB lifts the dubbed voices above the background.
const DefaultVocalsGainDB = 5.0

// Options describes one run.
type Options struct {
	InputFile      string
	OutputDir      string
	SourceLanguage string
	TargetLanguage string
	TargetRegion   string

	OriginalSubtitles      bool
	DubbedSubtitles        bool
	CleanIntermediateFiles bool
	VocalsGainDB           float64

	// Progress, when set, receives per-utterance progress for the TTS stage.
	Progress func(stage string, done, total int)
}

// Result describes the outputs of a finished run.
type Result struct {
	RunID          string
	Mode           history.Mode
	SourceLanguage string
	AudioFile      string
	VideoFile      string
	Subtitles      []string
	Utterances     int
	Modified       int
	Timings        []stageexec.Timing
}

// Dubber runs the dubbing pipeline for one input and target language.
type Dubber struct {
	opts   Options
	comp   Components
	store  *utterance.Store
	logger *slog.Logger

	utterances []utterance.Utterance
	artifacts  utterance.Artifacts
}

// New constructs a Dubber.
func New(opts Options, comp Components, logger *slog.Logger) (*Dubber, error) {
	if strings.TrimSpace(opts.OutputDir) == "" {
		return nil, services.Wrap(services.ErrValidation, "dubbing", "init", "output directory is required", nil)
	}
	if strings.TrimSpace(opts.TargetLanguage) == "" {
		return nil, services.Wrap(services.ErrValidation, "dubbing", "init", "target language is required", nil)
	}
	if comp.Media == nil || comp.TTS == nil {
		return nil, services.Wrap(services.ErrConfiguration, "dubbing", "init", "media tool and synthesizer are required", nil)
	}
	if opts.VocalsGainDB == 0 {
		opts.VocalsGainDB = DefaultVocalsGainDB
	}
	logger = logging.NewComponentLogger(logger, "dubber")
	return &Dubber{
		opts:   opts,
		comp:   comp,
		store:  utterance.NewStore(opts.OutputDir, opts.TargetLanguage, logger),
		logger: logger,
	}, nil
}

// Store exposes the utterance store bound to the output directory.
func (d *Dubber) Store() *utterance.Store { return d.store }

// Dub runs the full pipeline.
func (d *Dubber) Dub(ctx context.Context) (Result, error) {
	if d.comp.Separator == nil || d.comp.Diarizer == nil || d.comp.STT == nil || d.comp.Translator == nil {
		return Result{}, services.Wrap(services.ErrConfiguration, "dubbing", "init",
			"separator, diarizer, speech-to-text and translator are required for a full run", nil)
	}
	return d.run(ctx, history.ModeDub, d.dub)
}

// Update re-renders the utterances changed since the last saved run. Edits,
// when given, are applied before modified utterances are selected.
func (d *Dubber) Update(ctx context.Context, edits []utterance.Edit) (Result, error) {
	return d.run(ctx, history.ModeUpdate, func(ctx context.Context, rec *stageexec.Recorder, result *Result) error {
		return d.update(ctx, rec, result, edits)
	})
}

func (d *Dubber) run(ctx context.Context, mode history.Mode, body func(context.Context, *stageexec.Recorder, *Result) error) (Result, error) {
	lock, err := LockOutputDir(d.opts.OutputDir)
	if err != nil {
		return Result{}, err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			d.logger.Warn("failed to release output lock", logging.Error(err))
		}
	}()

	result := Result{RunID: uuid.NewString(), Mode: mode}
	ctx = services.WithRunID(ctx, result.RunID)
	ctx = services.WithTargetLanguage(ctx, d.opts.TargetLanguage)
	logger := logging.WithContext(ctx, d.logger)

	d.beginHistory(ctx, &result)
	logger.Info("dubbing run started",
		logging.String(logging.FieldEventType, "run_start"),
		logging.String("mode", string(mode)),
		logging.String("input_file", d.opts.InputFile),
		logging.String("output_dir", d.opts.OutputDir),
		logging.String("tts_engine", d.comp.TTS.Engine().Name()),
	)

	recorder := stageexec.NewRecorder(logger)
	runErr := body(ctx, recorder, &result)
	result.Timings = recorder.Timings()
	recorder.Summary()
	d.finishHistory(ctx, result, runErr)
	d.notify(ctx, result, recorder.Total(), runErr)

	if runErr != nil {
		return result, runErr
	}
	logger.Info("dubbing run finished",
		logging.String(logging.FieldEventType, "run_complete"),
		logging.String("video_file", result.VideoFile),
		logging.Int("utterances", result.Utterances),
		logging.Int("modified", result.Modified),
		logging.Duration("total", recorder.Total()),
	)
	return result, nil
}

func (d *Dubber) dub(ctx context.Context, rec *stageexec.Recorder, result *Result) error {
	input, err := RenameInputFile(d.opts.InputFile, d.logger)
	if err != nil {
		return err
	}
	d.opts.InputFile = input

	if d.opts.SourceLanguage == "" {
		detected, err := d.comp.STT.DetectLanguage(ctx, input)
		if err != nil {
			return services.Wrap(services.ErrExternalTool, "dubbing", "detect language", "could not detect the source language", err)
		}
		d.opts.SourceLanguage = detected
	}
	result.SourceLanguage = d.opts.SourceLanguage

	if err := d.CheckLanguages(ctx, true); err != nil {
		return err
	}

	if err := rec.Run(ctx, StagePreprocessing, d.preprocess); err != nil {
		return err
	}
	if err := rec.Run(ctx, StageSTT, d.speechToText); err != nil {
		return err
	}
	if err := rec.Run(ctx, StageTranslation, d.translate); err != nil {
		return err
	}
	if err := rec.Run(ctx, StageTTS, func(ctx context.Context) error {
		if err := d.configureVoices(ctx); err != nil {
			return err
		}
		return d.synthesize(ctx, nil)
	}); err != nil {
		return err
	}
	result.Modified = len(d.utterances)

	if err := rec.Run(ctx, StagePostprocess, func(ctx context.Context) error {
		d.save(ctx)
		if err := d.postprocess(ctx, result); err != nil {
			return err
		}
		return d.clean(ctx)
	}); err != nil {
		return err
	}
	result.Utterances = len(d.utterances)
	return nil
}

func (d *Dubber) update(ctx context.Context, rec *stageexec.Recorder, result *Result, edits []utterance.Edit) error {
	logger := logging.WithContext(ctx, d.logger)
	doc, err := d.store.Load(ctx)
	if err != nil {
		return services.Wrap(services.ErrUpdateMissingFiles, "update", "load",
			fmt.Sprintf("cannot find a previous run in %s", d.opts.OutputDir), err)
	}
	d.artifacts = doc.Artifacts
	d.utterances = doc.Utterances
	d.opts.SourceLanguage = doc.Metadata.SourceLanguage
	d.opts.OriginalSubtitles = d.opts.OriginalSubtitles || doc.Metadata.OriginalSubtitles
	d.opts.DubbedSubtitles = d.opts.DubbedSubtitles || doc.Metadata.DubbedSubtitles
	result.SourceLanguage = d.opts.SourceLanguage

	if len(edits) > 0 {
		edited, ignored, err := utterance.ApplyEdits(d.utterances, edits)
		if err != nil {
			return services.Wrap(services.ErrValidation, "update", "apply edits", "edit directives rejected", err)
		}
		if len(ignored) > 0 {
			logging.WarnWithContext(logger, "edits reference unknown utterances", "edits_ignored",
				logging.Any("ids", ignored),
				logging.String(logging.FieldErrorHint, "check the ids against the saved utterance metadata"),
				logging.String(logging.FieldImpact, "those edits were skipped"),
			)
		}
		d.utterances = edited
	}

	if missing := missingFiles(d.utterances); len(missing) > 0 {
		return services.Wrap(services.ErrUpdateMissingFiles, "update", "verify files",
			fmt.Sprintf("%d utterance files are missing, first: %s", len(missing), missing[0]), nil)
	}

	if err := d.CheckLanguages(ctx, false); err != nil {
		return err
	}

	modified := utterance.GetModified(d.utterances)
	result.Modified = len(modified)
	logger.Info("modified utterances selected",
		logging.String(logging.FieldEventType, "update_selection"),
		logging.Int("modified", len(modified)),
		logging.Int("total", len(d.utterances)),
	)

	if err := rec.Run(ctx, StageTTS, func(ctx context.Context) error {
		if len(modified) == 0 {
			return nil
		}
		known := tts.KnownVoices(d.utterances, utterance.IDs(modified))
		assignment, err := tts.ConfigureVoices(ctx, d.comp.TTS.Engine(), modified, known, d.opts.TargetLanguage, d.opts.TargetRegion, logging.WithContext(ctx, d.logger))
		if err != nil {
			return d.ttsLanguageError(err)
		}
		modified = tts.UpdateUtteranceMetadata(modified, assignment, d.store)
		d.utterances = utterance.MergeByID(d.utterances, modified)
		return d.synthesize(ctx, utterance.IDs(modified))
	}); err != nil {
		return err
	}

	if err := rec.Run(ctx, StagePostprocess, func(ctx context.Context) error {
		if err := d.postprocess(ctx, result); err != nil {
			return err
		}
		d.save(ctx)
		return nil
	}); err != nil {
		return err
	}
	result.Utterances = len(d.utterances)
	return nil
}

func (d *Dubber) speechToText(ctx context.Context) error {
	logger := logging.WithContext(ctx, d.logger)
	us, err := d.comp.STT.TranscribeUtterances(ctx, d.utterances, d.opts.SourceLanguage)
	if err != nil {
		return err
	}
	info, err := d.comp.STT.PredictGender(ctx, us)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, StageSTT, "gender", "speaker gender classification failed", err)
	}
	if us, err = stt.AddSpeakerInfo(us, info); err != nil {
		return err
	}
	before := len(us)
	d.utterances = utterance.FilterEmpty(us)
	logger.Info("transcription complete",
		logging.String(logging.FieldEventType, "stt_complete"),
		logging.Int("utterances", len(d.utterances)),
		logging.Int("dropped_empty", before-len(d.utterances)),
	)
	if path, err := stt.DumpTranscriptions(d.opts.OutputDir, d.utterances); err != nil {
		logging.WarnWithContext(logger, "could not write transcription dump", "transcription_dump_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "transcription.txt is missing from the output"),
		)
	} else {
		logger.Debug("transcriptions written", logging.String("path", path))
	}
	return nil
}

func (d *Dubber) translate(ctx context.Context) error {
	us, err := d.comp.Translator.TranslateUtterances(ctx, d.utterances, d.opts.SourceLanguage, d.opts.TargetLanguage)
	if err != nil {
		return err
	}
	d.utterances = us
	return nil
}

func (d *Dubber) configureVoices(ctx context.Context) error {
	assignment, err := tts.ConfigureVoices(ctx, d.comp.TTS.Engine(), d.utterances, nil, d.opts.TargetLanguage, d.opts.TargetRegion, logging.WithContext(ctx, d.logger))
	if err != nil {
		return d.ttsLanguageError(err)
	}
	d.utterances = tts.UpdateUtteranceMetadata(d.utterances, assignment, nil)
	return nil
}

func (d *Dubber) synthesize(ctx context.Context, modified map[int]struct{}) error {
	us, err := d.comp.TTS.DubUtterances(ctx, d.utterances, tts.DubOptions{
		OutputDir: d.opts.OutputDir,
		Language:  d.opts.TargetLanguage,
		AudioFile: d.artifacts.AudioFile,
		Modified:  modified,
		Progress:  d.progress(StageTTS),
	})
	if err != nil {
		return services.Wrap(services.ErrExternalTool, StageTTS, d.comp.TTS.Engine().Name(), "speech synthesis failed", err)
	}
	d.utterances = us
	return nil
}

func (d *Dubber) progress(stage string) func(done, total int) {
	if d.opts.Progress == nil {
		return nil
	}
	return func(done, total int) { d.opts.Progress(stage, done, total) }
}

// save persists the utterances. Failures are logged; the run continues
// because the rendered outputs do not depend on the metadata file.
func (d *Dubber) save(ctx context.Context) {
	metadata := utterance.Metadata{
		SourceLanguage:    d.opts.SourceLanguage,
		OriginalSubtitles: d.opts.OriginalSubtitles,
		DubbedSubtitles:   d.opts.DubbedSubtitles,
	}
	hashed, err := d.store.Save(ctx, d.utterances, d.artifacts, metadata)
	d.utterances = hashed
	if err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, d.logger), "could not save utterance metadata", "metadata_save_failed",
			logging.String("path", d.store.Path()),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check free space and permissions in the output directory"),
			logging.String(logging.FieldImpact, "a later update run will not see this run's changes"),
		)
	}
}

func (d *Dubber) ttsLanguageError(err error) error {
	if errors.Is(err, tts.ErrNoRegionVoices) {
		return services.Wrap(services.ErrInvalidLanguageTTS, StageTTS, "voices",
			fmt.Sprintf("no %s voices for region %q", d.opts.TargetLanguage, d.opts.TargetRegion), err)
	}
	return services.Wrap(services.ErrExternalTool, StageTTS, "voices", "could not list voices", err)
}

func missingFiles(utterances []utterance.Utterance) []string {
	paths, dubbed := utterance.FilePaths(utterances)
	var missing []string
	for _, p := range append(paths, dubbed...) {
		if !fileExists(p) {
			missing = append(missing, filepath.Clean(p))
		}
	}
	return missing
}

package dubbing

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"opendub/internal/logging"
	"opendub/internal/utterance"
)

// clean removes per-utterance clips and intermediate mixes when the run asks
// for it. The final video, the stems and the metadata stay so a later update
// can still rebuild the output.
func (d *Dubber) clean(ctx context.Context) error {
	if !d.opts.CleanIntermediateFiles {
		return nil
	}
	logger := logging.WithContext(ctx, d.logger)
	paths, dubbed := utterance.FilePaths(d.utterances)
	targets := append(paths, dubbed...)
	targets = append(targets,
		filepath.Join(d.opts.OutputDir, DubbedAudioFileName(d.opts.TargetLanguage)),
		filepath.Join(d.opts.OutputDir, DubbedVocalsFileName),
	)
	removed := 0
	for _, path := range targets {
		err := os.Remove(path)
		switch {
		case err == nil:
			removed++
		case errors.Is(err, os.ErrNotExist):
		default:
			logging.WarnWithContext(logger, "could not remove intermediate file", "clean_failed",
				logging.String("path", path),
				logging.Error(err),
				logging.String(logging.FieldImpact, "the file is left in the output directory"),
			)
		}
	}
	logger.Info("intermediate files removed",
		logging.String(logging.FieldEventType, "clean_complete"),
		logging.Int("removed", removed),
	)
	return nil
}

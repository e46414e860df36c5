package dubbing

import (
	"context"
	"fmt"

	langpkg "opendub/internal/language"
	"opendub/internal/services"
	"opendub/internal/tts"
)

// CheckLanguages verifies that the configured engines can handle the run's
// languages. The speech-to-text and translation checks only apply to full
// runs since an update never transcribes or translates.
func (d *Dubber) CheckLanguages(ctx context.Context, full bool) error {
	source, target := d.opts.SourceLanguage, d.opts.TargetLanguage
	if full {
		if !d.comp.STT.SupportsLanguage(source) {
			return services.Wrap(services.ErrInvalidLanguageSTT, "languages", d.comp.STT.Backend().Name(),
				fmt.Sprintf("source language %q is not supported", source), nil)
		}
		ok, err := d.comp.Translator.SupportsPair(ctx, source, target)
		if err != nil {
			return services.Wrap(services.ErrNoTranslationServer, "languages", d.comp.Translator.Engine().Name(),
				"could not list translation pairs", err)
		}
		if !ok {
			return services.Wrap(services.ErrInvalidLanguageTranslation, "languages", d.comp.Translator.Engine().Name(),
				fmt.Sprintf("cannot translate %s to %s", source, target), nil)
		}
	}

	engine := d.comp.TTS.Engine()
	supported, err := engine.Languages(ctx)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "languages", engine.Name(), "could not list voice languages", err)
	}
	if !langpkg.Contains(supported, target) {
		return services.Wrap(services.ErrInvalidLanguageTTS, "languages", engine.Name(),
			fmt.Sprintf("target language %q has no voices", target), nil)
	}
	if d.opts.TargetRegion != "" {
		voices, err := engine.Voices(ctx, target)
		if err != nil {
			return services.Wrap(services.ErrExternalTool, "languages", engine.Name(), "could not list voices", err)
		}
		if _, err := tts.RegionVoices(voices, d.opts.TargetRegion); err != nil {
			return d.ttsLanguageError(err)
		}
	}
	return nil
}

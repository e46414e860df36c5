package preflight

import (
	"context"
	"strings"

	"opendub/internal/config"
	"opendub/internal/fileutil"
)

// CheckSTTFromConfig evaluates the speech-to-text configuration.
func CheckSTTFromConfig(cfg *config.Config) Result {
	name := "Speech-to-text (" + cfg.STT.Engine + ")"
	if strings.TrimSpace(cfg.STT.HuggingFaceToken) == "" {
		return Result{Name: name, Detail: "Missing Hugging Face token (diarization)"}
	}
	if cfg.STT.Engine == "openai" && cfg.OpenAI.APIKey == "" {
		return Result{Name: name, Detail: "Missing OpenAI API key"}
	}
	return Result{Name: name, Passed: true, Detail: "Configured"}
}

// CheckTranslatorFromConfig evaluates the translator configuration and
// connectivity.
func CheckTranslatorFromConfig(ctx context.Context, cfg *config.Config) Result {
	name := "Translator (" + cfg.Translation.Engine + ")"
	switch cfg.Translation.Engine {
	case "apertium":
		check := CheckHTTPServer(ctx, name, cfg.Translation.ApertiumServer, "/listPairs")
		return check
	default:
		return CheckOpenAI(ctx, name, cfg.OpenAI)
	}
}

// CheckTTSFromConfig evaluates the text-to-speech configuration and
// connectivity.
func CheckTTSFromConfig(ctx context.Context, cfg *config.Config) Result {
	name := "Text-to-speech (" + cfg.TTS.Engine + ")"
	switch cfg.TTS.Engine {
	case "api":
		return CheckHTTPServer(ctx, name, cfg.TTS.APIServer, "/voices")
	case "cli":
		if cfg.TTS.CLIConfig == "" {
			return Result{Name: name, Detail: "Missing cli_config"}
		}
		if !fileutil.Exists(cfg.TTS.CLIConfig) {
			return Result{Name: name, Detail: cfg.TTS.CLIConfig + " not found"}
		}
		return Result{Name: name, Passed: true, Detail: cfg.TTS.CLIConfig}
	default:
		if cfg.OpenAI.APIKey == "" {
			return Result{Name: name, Detail: "Missing OpenAI API key"}
		}
		return Result{Name: name, Passed: true, Detail: "Configured"}
	}
}

package preflight

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"opendub/internal/config"
	"opendub/internal/deps"
	"opendub/internal/fileutil"
	"opendub/internal/services"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
// Engine checks only run for the engines the config selects.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result
	for _, status := range CheckSystemDeps(cfg) {
		result := Result{Name: status.Name, Passed: status.Available, Detail: status.Path}
		if !status.Available {
			result.Detail = status.Detail
			if status.Optional {
				result.Detail += " (optional)"
			}
		}
		results = append(results, result)
	}

	results = append(results, CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir))
	results = append(results, CheckDirectoryAccess("State directory", cfg.Paths.StateDir))

	results = append(results, CheckSTTFromConfig(cfg))
	results = append(results, CheckTranslatorFromConfig(ctx, cfg))
	results = append(results, CheckTTSFromConfig(ctx, cfg))
	return results
}

// Validate checks the input file and configuration before a run and returns
// the first blocking problem tagged with its exit marker. Language support
// is validated later against the constructed engines.
func Validate(cfg *config.Config, inputFile string, update bool) error {
	if !update {
		if err := ValidateInput(inputFile); err != nil {
			return err
		}
	}
	if err := deps.RequireFFmpeg(cfg.FFmpegBinary(), cfg.FFprobeBinary()); err != nil {
		return err
	}
	if !update && strings.TrimSpace(cfg.STT.HuggingFaceToken) == "" {
		return services.Wrap(services.ErrMissingHFToken, "preflight", "diarization",
			"set stt.hf_token or HF_TOKEN; speaker diarization needs a Hugging Face token", nil)
	}
	if usesOpenAI(cfg, update) && strings.TrimSpace(cfg.OpenAI.APIKey) == "" {
		return services.Wrap(services.ErrNoOpenAIKey, "preflight", "openai",
			"set openai.api_key or OPENAI_API_KEY", nil)
	}
	if !update && cfg.Translation.Engine == "apertium" && cfg.Translation.ApertiumServer == "" {
		return services.Wrap(services.ErrNoTranslationServer, "preflight", "apertium",
			"set translation.apertium_server or OPENDUB_APERTIUM_SERVER", nil)
	}
	switch cfg.TTS.Engine {
	case "api":
		if cfg.TTS.APIServer == "" {
			return services.Wrap(services.ErrNoTTSServer, "preflight", "tts api",
				"set tts.api_server or OPENDUB_TTS_API_SERVER", nil)
		}
	case "cli":
		if cfg.TTS.CLIConfig == "" || !fileutil.Exists(cfg.TTS.CLIConfig) {
			return services.Wrap(services.ErrNoCLIConfig, "preflight", "tts cli",
				fmt.Sprintf("tts.cli_config %q does not name a readable file", cfg.TTS.CLIConfig), nil)
		}
	}
	return nil
}

// ValidateInput accepts only existing .mp4 files.
func ValidateInput(path string) error {
	if !strings.EqualFold(filepath.Ext(path), ".mp4") {
		return services.Wrap(services.ErrInvalidFileFormat, "preflight", "input",
			fmt.Sprintf("%q is not an .mp4 file", filepath.Base(path)), nil)
	}
	if !fileutil.Exists(path) {
		return services.Wrap(services.ErrInvalidFileFormat, "preflight", "input",
			fmt.Sprintf("input file %s does not exist", path), nil)
	}
	return nil
}

// usesOpenAI reports whether any selected engine needs OpenAI credentials.
// Updates never transcribe or translate.
func usesOpenAI(cfg *config.Config, update bool) bool {
	if cfg.TTS.Engine == "openai" {
		return true
	}
	if update {
		return false
	}
	return cfg.STT.Engine == "openai" || cfg.Translation.Engine == "openai"
}

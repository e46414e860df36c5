package dubbing

import (
	"fmt"
	"log/slog"
	"time"

	"opendub/internal/config"
	"opendub/internal/history"
	"opendub/internal/logging"
	"opendub/internal/media/ffmpeg"
	"opendub/internal/media/ffprobe"
	"opendub/internal/notifications"
	"opendub/internal/separation"
	"opendub/internal/services"
	"opendub/internal/services/llm"
	"opendub/internal/services/whisperx"
	"opendub/internal/stt"
	"opendub/internal/subtitles"
	"opendub/internal/translation"
	"opendub/internal/tts"
)

// BuildComponents wires the collaborators selected by cfg. The returned
// close function releases the history database.
func BuildComponents(cfg *config.Config, logger *slog.Logger) (Components, func() error, error) {
	tool := ffmpeg.New(cfg.FFmpegBinary(), ffprobe.NewProber(cfg.FFprobeBinary()), logger)
	workDir := cfg.Paths.StateDir

	wx := whisperx.NewService(whisperx.Config{
		Model:       cfg.STT.Model,
		CUDAEnabled: cfg.CUDAEnabled(),
		CPUThreads:  cfg.STT.CPUThreads,
		HFToken:     cfg.STT.HuggingFaceToken,
		UVXBinary:   cfg.UVXBinary(),
	})

	backend, err := NewSTTBackend(cfg, wx, workDir)
	if err != nil {
		return Components{}, nil, err
	}
	sttService := stt.NewService(backend, stt.NewPitchClassifier(tool, workDir, logger), tool, stt.Options{
		MinDuration: cfg.STT.MinDurationSeconds,
		Workers:     cfg.Dubbing.Workers,
		WorkDir:     workDir,
	}, logger)

	engine, err := NewTranslationEngine(cfg)
	if err != nil {
		return Components{}, nil, err
	}
	translator := translation.NewService(engine, translation.Options{
		Attempts:   cfg.Translation.Attempts,
		RetryDelay: time.Duration(cfg.Translation.RetryDelaySeconds) * time.Second,
		Workers:    cfg.Dubbing.Workers,

		RequestsPerMinute: cfg.Translation.RequestsPerMinute,
	}, logger)

	voices, err := NewTTSEngine(cfg, tool)
	if err != nil {
		return Components{}, nil, err
	}

	device := "cpu"
	if cfg.CUDAEnabled() {
		device = "cuda"
	}
	comp := Components{
		Media: tool,
		Separator: separation.New(separation.Config{
			Launcher: cfg.UVXBinary(),
			Command:  cfg.Separation.Command,
			Model:    cfg.Separation.Model,
			Device:   device,
		}, logger),
		Diarizer:   wx,
		Muxer:      subtitles.NewMuxer(cfg.FFmpegBinary(), logger),
		STT:        sttService,
		Translator: translator,
		TTS:        tts.NewSynthesizer(voices, tool, cfg.Dubbing.MaxSpeed, logger),
		Notifier:   notifications.NewService(cfg),
	}

	closeFn := func() error { return nil }
	store, err := history.Open(cfg.HistoryPath())
	if err != nil {
		logging.WarnWithContext(logger, "run history unavailable", "history_open_failed",
			logging.String("path", cfg.HistoryPath()),
			logging.Error(err),
			logging.String(logging.FieldImpact, "runs are not recorded"),
		)
	} else {
		comp.History = store
		closeFn = store.Close
	}
	return comp, closeFn, nil
}

// NewSTTBackend selects the transcription backend.
func NewSTTBackend(cfg *config.Config, wx *whisperx.Service, workDir string) (stt.Backend, error) {
	switch cfg.STT.Engine {
	case "", "whisperx":
		return stt.NewWhisperX(wx, workDir), nil
	case "openai":
		return stt.NewOpenAI(stt.OpenAIConfig{
			APIKey:  cfg.OpenAI.APIKey,
			BaseURL: cfg.OpenAI.BaseURL,
			Model:   cfg.OpenAI.STTModel,
		}), nil
	default:
		return nil, services.Wrap(services.ErrConfiguration, "config", "stt", fmt.Sprintf("unknown engine %q", cfg.STT.Engine), nil)
	}
}

// NewTranslationEngine selects the translator.
func NewTranslationEngine(cfg *config.Config) (translation.Engine, error) {
	switch cfg.Translation.Engine {
	case "", "openai":
		return translation.NewLLMFromConfig(llm.Config{
			APIKey:         cfg.OpenAI.APIKey,
			BaseURL:        cfg.OpenAI.BaseURL,
			Model:          cfg.OpenAI.ChatModel,
			Temperature:    cfg.OpenAI.Temperature,
			TimeoutSeconds: cfg.OpenAI.TimeoutSeconds,
		}), nil
	case "apertium":
		return translation.NewApertium(cfg.Translation.ApertiumServer, openAITimeout(cfg)), nil
	default:
		return nil, services.Wrap(services.ErrConfiguration, "config", "translation", fmt.Sprintf("unknown engine %q", cfg.Translation.Engine), nil)
	}
}

// NewTTSEngine selects the speech synthesis engine.
func NewTTSEngine(cfg *config.Config, converter tts.Converter) (tts.Engine, error) {
	switch cfg.TTS.Engine {
	case "", "openai":
		return tts.NewOpenAI(tts.OpenAIConfig{
			APIKey:  cfg.OpenAI.APIKey,
			BaseURL: cfg.OpenAI.BaseURL,
			Model:   cfg.OpenAI.TTSModel,
		}), nil
	case "api":
		return tts.NewAPI(cfg.TTS.APIServer, converter, 0), nil
	case "cli":
		cliCfg, err := tts.LoadCLIConfig(cfg.TTS.CLIConfig)
		if err != nil {
			return nil, services.Wrap(services.ErrNoCLIConfig, "config", "tts", "could not load the cli voice configuration", err)
		}
		return tts.NewCLI(cliCfg, converter, ffmpeg.DefaultCommandRunner), nil
	default:
		return nil, services.Wrap(services.ErrConfiguration, "config", "tts", fmt.Sprintf("unknown engine %q", cfg.TTS.Engine), nil)
	}
}

func openAITimeout(cfg *config.Config) time.Duration {
	if cfg.OpenAI.TimeoutSeconds > 0 {
		return time.Duration(cfg.OpenAI.TimeoutSeconds) * time.Second
	}
	return 0
}

package config

const (
	defaultOutputDir          = "output"
	defaultStateDir           = "~/.local/share/opendub"
	defaultLogDir             = "~/.local/share/opendub/logs"
	defaultMaxSpeed           = 1.3
	defaultVocalsGainDB       = 5.0
	defaultWorkers            = 1
	defaultSTTEngine          = "whisperx"
	defaultWhisperXModel      = "large-v3"
	defaultDevice             = "cpu"
	defaultMinDurationSeconds = 0.5
	defaultTranslationEngine  = "openai"
	defaultTranslateAttempts  = 3
	defaultTranslateDelay     = 5
	defaultOpenAIBaseURL      = "https://api.openai.com/v1"
	defaultOpenAIChatModel    = "gpt-4o-mini"
	defaultOpenAITemperature  = 0.3
	defaultOpenAITTSModel     = "tts-1"
	defaultOpenAISTTModel     = "whisper-1"
	defaultOpenAITimeout      = 60
	defaultTTSEngine          = "openai"
	defaultSeparationCommand  = "demucs"
	defaultSeparationModel    = "htdemucs"
	defaultFFmpegBinary       = "ffmpeg"
	defaultFFprobeBinary      = "ffprobe"
	defaultUVXBinary          = "uvx"
	defaultNtfyTimeout        = 10
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir: defaultOutputDir,
			StateDir:  defaultStateDir,
			LogDir:    defaultLogDir,
		},
		Dubbing: Dubbing{
			MaxSpeed:     defaultMaxSpeed,
			VocalsGainDB: defaultVocalsGainDB,
			Workers:      defaultWorkers,
		},
		STT: STT{
			Engine:             defaultSTTEngine,
			Model:              defaultWhisperXModel,
			Device:             defaultDevice,
			MinDurationSeconds: defaultMinDurationSeconds,
		},
		Translation: Translation{
			Engine:            defaultTranslationEngine,
			Attempts:          defaultTranslateAttempts,
			RetryDelaySeconds: defaultTranslateDelay,
		},
		OpenAI: OpenAI{
			BaseURL:        defaultOpenAIBaseURL,
			ChatModel:      defaultOpenAIChatModel,
			Temperature:    defaultOpenAITemperature,
			TTSModel:       defaultOpenAITTSModel,
			STTModel:       defaultOpenAISTTModel,
			TimeoutSeconds: defaultOpenAITimeout,
		},
		TTS: TTS{
			Engine: defaultTTSEngine,
		},
		Separation: Separation{
			Command: defaultSeparationCommand,
			Model:   defaultSeparationModel,
		},
		Tools: Tools{
			FFmpeg:  defaultFFmpegBinary,
			FFprobe: defaultFFprobeBinary,
			UVX:     defaultUVXBinary,
		},
		Notifications: Notifications{
			RequestTimeoutSeconds: defaultNtfyTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}

package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	OutputDir string `toml:"output_dir"`
	StateDir  string `toml:"state_dir"`
	LogDir    string `toml:"log_dir"`
}

// Dubbing contains the run-level settings persisted alongside utterances.
type Dubbing struct {
	SourceLanguage         string  `toml:"source_language"`
	TargetLanguage         string  `toml:"target_language"`
	TargetRegion           string  `toml:"target_language_region"`
	OriginalSubtitles      bool    `toml:"original_subtitles"`
	DubbedSubtitles        bool    `toml:"dubbed_subtitles"`
	CleanIntermediateFiles bool    `toml:"clean_intermediate_files"`
	MaxSpeed               float64 `toml:"max_speed"`
	VocalsGainDB           float64 `toml:"vocals_gain_db"`
	Workers                int     `toml:"workers"`
}

// STT contains speech-to-text and diarization settings.
type STT struct {
	Engine             string  `toml:"engine"`
	Model              string  `toml:"model"`
	Device             string  `toml:"device"`
	CPUThreads         int     `toml:"cpu_threads"`
	HuggingFaceToken   string  `toml:"hf_token"`
	MinDurationSeconds float64 `toml:"min_duration_seconds"`
}

// Translation contains translator selection and retry policy.
type Translation struct {
	Engine            string `toml:"engine"`
	ApertiumServer    string `toml:"apertium_server"`
	Attempts          int    `toml:"attempts"`
	RetryDelaySeconds int    `toml:"retry_delay_seconds"`
	RequestsPerMinute int    `toml:"requests_per_minute"`
}

// OpenAI contains connection settings shared by the OpenAI-backed engines.
type OpenAI struct {
	APIKey         string  `toml:"api_key"`
	BaseURL        string  `toml:"base_url"`
	ChatModel      string  `toml:"chat_model"`
	Temperature    float64 `toml:"temperature"`
	TTSModel       string  `toml:"tts_model"`
	STTModel       string  `toml:"stt_model"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
}

// TTS contains text-to-speech engine selection.
type TTS struct {
	Engine    string `toml:"engine"`
	APIServer string `toml:"api_server"`
	CLIConfig string `toml:"cli_config"`
}

// Separation contains vocal isolation settings.
type Separation struct {
	Command string `toml:"command"`
	Model   string `toml:"model"`
}

// Tools names the external binaries invoked by the pipeline.
type Tools struct {
	FFmpeg  string `toml:"ffmpeg"`
	FFprobe string `toml:"ffprobe"`
	UVX     string `toml:"uvx"`
}

// Notifications contains ntfy settings for run notifications.
type Notifications struct {
	NtfyTopic             string `toml:"ntfy_topic"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for opendub.
//
// Configuration sections by subsystem:
//   - Paths: output, state and log directories
//   - Dubbing: languages, subtitles and speed-fit limits
//   - STT: transcription/diarization engine and Hugging Face token
//   - Translation: translator engine and retry policy
//   - OpenAI: credentials and models for OpenAI-backed engines
//   - TTS: synthesis engine and its server or command configuration
//   - Separation: Demucs invocation
//   - Tools: ffmpeg/ffprobe/uvx binaries
//   - Notifications: ntfy topic for run outcomes
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Dubbing       Dubbing       `toml:"dubbing"`
	STT           STT           `toml:"stt"`
	Translation   Translation   `toml:"translation"`
	OpenAI        OpenAI        `toml:"openai"`
	TTS           TTS           `toml:"tts"`
	Separation    Separation    `toml:"separation"`
	Tools         Tools         `toml:"tools"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/opendub/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

// Finalize re-normalizes and validates a config after command-line overrides
// have been applied on top of a loaded file.
func (c *Config) Finalize() error {
	if err := c.normalize(); err != nil {
		return err
	}
	return c.Validate()
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("opendub.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the output, state and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.OutputDir, c.Paths.StateDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// HistoryPath returns the location of the run history database.
func (c *Config) HistoryPath() string {
	return filepath.Join(c.Paths.StateDir, "history.db")
}

// LogPath returns the log file written next to console output.
func (c *Config) LogPath() string {
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return ""
	}
	return filepath.Join(c.Paths.LogDir, "opendub.log")
}

// FFmpegBinary returns the ffmpeg executable name.
func (c *Config) FFmpegBinary() string {
	if v := strings.TrimSpace(c.Tools.FFmpeg); v != "" {
		return v
	}
	return defaultFFmpegBinary
}

// FFprobeBinary returns the ffprobe executable name used for media inspection.
func (c *Config) FFprobeBinary() string {
	if v := strings.TrimSpace(c.Tools.FFprobe); v != "" {
		return v
	}
	return defaultFFprobeBinary
}

// UVXBinary returns the uvx launcher used to run WhisperX.
func (c *Config) UVXBinary() string {
	if v := strings.TrimSpace(c.Tools.UVX); v != "" {
		return v
	}
	return defaultUVXBinary
}

// CUDAEnabled reports whether GPU inference was requested.
func (c *Config) CUDAEnabled() bool {
	return strings.EqualFold(c.STT.Device, "cuda")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

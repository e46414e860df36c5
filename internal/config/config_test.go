package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"opendub/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("HF_TOKEN", "")
	t.Setenv("HUGGING_FACE_HUB_TOKEN", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Fatalf("expected no config file, got %s", resolved)
	}
	if want := filepath.Join(home, ".local", "share", "opendub"); cfg.Paths.StateDir != want {
		t.Fatalf("unexpected state dir: got %q want %q", cfg.Paths.StateDir, want)
	}
	if !filepath.IsAbs(cfg.Paths.OutputDir) {
		t.Fatalf("expected absolute output dir, got %q", cfg.Paths.OutputDir)
	}
	if cfg.HistoryPath() != filepath.Join(cfg.Paths.StateDir, "history.db") {
		t.Fatalf("unexpected history path %q", cfg.HistoryPath())
	}
	if cfg.Dubbing.MaxSpeed != 1.3 {
		t.Fatalf("expected default max speed 1.3, got %v", cfg.Dubbing.MaxSpeed)
	}
	if cfg.Translation.Attempts != 3 || cfg.Translation.RetryDelaySeconds != 5 {
		t.Fatalf("unexpected retry defaults: %+v", cfg.Translation)
	}
}

func TestLoadReadsFileAndEnvFallbacks(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("HF_TOKEN", "hf-from-env")
	t.Setenv("OPENAI_API_KEY", "sk-from-env")
	t.Setenv("OPENDUB_TTS_API_SERVER", "")
	t.Setenv("OPENDUB_NTFY_TOPIC", " https://ntfy.sh/dubs ")

	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[dubbing]
target_language = " CAT "
target_language_region = "ES"

[tts]
engine = "API"
api_server = "http://localhost:8000/"

[logging]
format = "JSON"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected config %s to be used, got %s (exists=%v)", path, resolved, exists)
	}
	if cfg.Dubbing.TargetLanguage != "cat" {
		t.Fatalf("expected normalized target language, got %q", cfg.Dubbing.TargetLanguage)
	}
	if cfg.TTS.Engine != "api" || cfg.TTS.APIServer != "http://localhost:8000" {
		t.Fatalf("unexpected tts config: %+v", cfg.TTS)
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("expected json log format, got %q", cfg.Logging.Format)
	}
	if cfg.STT.HuggingFaceToken != "hf-from-env" {
		t.Fatalf("expected HF token from env, got %q", cfg.STT.HuggingFaceToken)
	}
	if cfg.OpenAI.APIKey != "sk-from-env" {
		t.Fatalf("expected OpenAI key from env, got %q", cfg.OpenAI.APIKey)
	}
	if cfg.Notifications.NtfyTopic != "https://ntfy.sh/dubs" || cfg.Notifications.RequestTimeoutSeconds != 10 {
		t.Fatalf("unexpected notifications config: %+v", cfg.Notifications)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{name: "tts engine", content: "[tts]\nengine = \"coqui\"\n", want: "tts.engine"},
		{name: "translator", content: "[translation]\nengine = \"nllb\"\n", want: "translation.engine"},
		{name: "device", content: "[stt]\ndevice = \"tpu\"\n", want: "stt.device"},
		{name: "max speed", content: "[dubbing]\nmax_speed = 0.8\n", want: "dubbing.max_speed"},
		{name: "ntfy timeout", content: "[notifications]\nrequest_timeout_seconds = -1\n", want: "notifications.request_timeout_seconds"},
		{name: "log level", content: "[logging]\nlevel = \"trace\"\n", want: "logging.level"},
		{name: "unknown key", content: "[paths]\nlibrary_dir = \"x\"\n", want: "parse config"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte(tc.content), 0o644); err != nil {
				t.Fatalf("write config: %v", err)
			}
			_, _, _, err := config.Load(path)
			if err == nil {
				t.Fatalf("expected error containing %q", tc.want)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error containing %q, got %v", tc.want, err)
			}
		})
	}
}

func TestCreateSampleProducesLoadableConfig(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	var decoded config.Config
	if err := toml.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("sample is not valid TOML: %v", err)
	}
	if decoded.Dubbing.TargetLanguage != "spa" {
		t.Fatalf("expected sample target language spa, got %q", decoded.Dubbing.TargetLanguage)
	}

	if _, _, _, err := config.Load(path); err != nil {
		t.Fatalf("sample config failed validation: %v", err)
	}
}

func TestFinalizeAppliesOverrides(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cfg := config.Default()
	cfg.TTS.Engine = " CLI "
	cfg.Paths.OutputDir = "~/dubs"
	if err := cfg.Finalize(); err != nil {
		t.Fatalf("Finalize returned error: %v", err)
	}
	if cfg.TTS.Engine != "cli" {
		t.Fatalf("expected cli engine, got %q", cfg.TTS.Engine)
	}
	if !strings.HasSuffix(cfg.Paths.OutputDir, "dubs") || !filepath.IsAbs(cfg.Paths.OutputDir) {
		t.Fatalf("unexpected output dir %q", cfg.Paths.OutputDir)
	}
}

package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"opendub/internal/config"
)

// ConfigOption adjusts the config built by NewConfig.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig returns a config rooted in a fresh temp directory, targeting
// Catalan with placeholder credentials, then applies opts.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.OutputDir = filepath.Join(base, "output")
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Dubbing.TargetLanguage = "cat"
	cfgVal.OpenAI.APIKey = "test"
	cfgVal.STT.HuggingFaceToken = "hf_test"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithTargetLanguage sets the dubbing target language.
func WithTargetLanguage(lang string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Dubbing.TargetLanguage = lang
	}
}

// WithTTSEngine selects the synthesis engine.
func WithTTSEngine(engine string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.TTS.Engine = engine
	}
}

// WithoutCredentials clears the OpenAI key and Hugging Face token.
func WithoutCredentials() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.OpenAI.APIKey = ""
		b.cfg.STT.HuggingFaceToken = ""
	}
}

// WithStubbedBinaries puts no-op executables for names (ffmpeg, ffprobe and
// uvx when empty) first on PATH for the rest of the test.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{b.cfg.FFmpegBinary(), b.cfg.FFprobeBinary(), b.cfg.UVXBinary()}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		for _, name := range names {
			WriteScript(b.t, filepath.Join(binDir, name), "exit 0")
		}
		b.t.Setenv("PATH", binDir+string(os.PathListSeparator)+os.Getenv("PATH"))
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.OutputDir)
}

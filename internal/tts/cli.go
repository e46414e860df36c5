package tts

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"

	langpkg "opendub/internal/language"
	"opendub/internal/utterance"
)

// CommandRunner executes an external command.
type CommandRunner func(ctx context.Context, name string, args ...string) error

// CLIConfig describes a command-line synthesizer.
//
//	[[voices]]
//	name = "ca-pau"
//	gender = "male"
//	region = "ES"
//	language = "cat"
//
//	[command]
//	template = "piper --model {voice} --output_file {output} --text {text}"
//	output_format = "wav"
type CLIConfig struct {
	Voices  []CLIVoice `toml:"voices"`
	Command CLICommand `toml:"command"`
}

// CLIVoice is one voice offered by the command.
type CLIVoice struct {
	Name     string `toml:"name"`
	Gender   string `toml:"gender"`
	Region   string `toml:"region"`
	Language string `toml:"language"`
}

// CLICommand is the invocation template. Placeholders {text}, {voice},
// {output} and {speed} are replaced inside each whitespace-separated
// argument.
type CLICommand struct {
	Template     string `toml:"template"`
	OutputFormat string `toml:"output_format"`
}

// LoadCLIConfig reads and validates a CLI synthesizer description.
func LoadCLIConfig(path string) (CLIConfig, error) {
	var cfg CLIConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read tts cli config: %w", err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse tts cli config: %w", err)
	}
	if len(strings.Fields(cfg.Command.Template)) == 0 {
		return cfg, fmt.Errorf("tts cli config %s: command.template is required", path)
	}
	if !strings.Contains(cfg.Command.Template, "{output}") {
		return cfg, fmt.Errorf("tts cli config %s: command.template must reference {output}", path)
	}
	if len(cfg.Voices) == 0 {
		return cfg, fmt.Errorf("tts cli config %s: at least one voice is required", path)
	}
	cfg.Command.OutputFormat = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(cfg.Command.OutputFormat)), ".")
	if cfg.Command.OutputFormat == "" {
		cfg.Command.OutputFormat = "mp3"
	}
	return cfg, nil
}

// CLI synthesizes by running a configured command.
type CLI struct {
	cfg       CLIConfig
	converter Converter
	run       CommandRunner
}

// NewCLI constructs the engine; run executes the rendered command.
func NewCLI(cfg CLIConfig, converter Converter, run CommandRunner) *CLI {
	return &CLI{cfg: cfg, converter: converter, run: run}
}

// Name identifies the engine in logs.
func (c *CLI) Name() string { return "cli" }

// SupportsSpeed reports whether the template takes a {speed} argument.
func (c *CLI) SupportsSpeed() bool {
	return strings.Contains(c.cfg.Command.Template, "{speed}")
}

// Languages lists the distinct languages of the configured voices.
func (c *CLI) Languages(context.Context) ([]string, error) {
	var out []string
	for _, v := range c.cfg.Voices {
		code := langpkg.ToISO3(v.Language)
		if !langpkg.Contains(out, code) {
			out = append(out, code)
		}
	}
	return out, nil
}

// Voices lists the configured voices for language.
func (c *CLI) Voices(_ context.Context, language string) ([]Voice, error) {
	var out []Voice
	for _, v := range c.cfg.Voices {
		if !langpkg.Equal(v.Language, language) {
			continue
		}
		out = append(out, Voice{Name: v.Name, Gender: utterance.NormalizeGender(v.Gender), Region: v.Region})
	}
	return out, nil
}

// Synthesize runs the command, converting its output to MP3 when the
// command produces another format.
func (c *CLI) Synthesize(ctx context.Context, req Request) error {
	if err := os.MkdirAll(filepath.Dir(req.Output), 0o755); err != nil {
		return fmt.Errorf("ensure output dir: %w", err)
	}
	target := req.Output
	convert := c.cfg.Command.OutputFormat != "mp3"
	if convert {
		target = strings.TrimSuffix(req.Output, filepath.Ext(req.Output)) + ".raw." + c.cfg.Command.OutputFormat
		defer os.Remove(target)
	}

	args := c.RenderArgs(req, target)
	if err := c.run(ctx, args[0], args[1:]...); err != nil {
		return fmt.Errorf("tts cli: %w", err)
	}
	if convert {
		if err := c.converter.Convert(ctx, target, req.Output); err != nil {
			return fmt.Errorf("tts cli: convert output: %w", err)
		}
	}
	return nil
}

// RenderArgs substitutes the request into the command template.
func (c *CLI) RenderArgs(req Request, output string) []string {
	speed := req.Speed
	if speed <= 0 {
		speed = DefaultSpeed
	}
	replacer := strings.NewReplacer(
		"{text}", req.Text,
		"{voice}", req.Voice,
		"{output}", output,
		"{speed}", strconv.FormatFloat(speed, 'f', -1, 64),
	)
	fields := strings.Fields(c.cfg.Command.Template)
	args := make([]string, len(fields))
	for i, f := range fields {
		args[i] = replacer.Replace(f)
	}
	return args
}

package whisperx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	langpkg "opendub/internal/language"
)

// ErrMissingToken is returned when diarization is requested without a
// Hugging Face token.
var ErrMissingToken = errors.New("whisperx diarization requires a hugging face token")

// Service provides WhisperX transcription capabilities.
type Service struct {
	cfg           Config
	commandRunner func(ctx context.Context, name string, args ...string) error
}

// NewService creates a WhisperX service with the given configuration.
func NewService(cfg Config) *Service {
	if strings.TrimSpace(cfg.UVXBinary) == "" {
		cfg.UVXBinary = UVXCommand
	}
	return &Service{cfg: cfg}
}

// WithCommandRunner sets a custom command runner (for testing).
func (s *Service) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) *Service {
	s.commandRunner = runner
	return s
}

// Model returns the configured model name for logging.
func (s *Service) Model() string {
	if s.cfg.Model != "" {
		return s.cfg.Model
	}
	return DefaultModel
}

// CUDAEnabled returns whether CUDA is enabled.
func (s *Service) CUDAEnabled() bool {
	return s.cfg.CUDAEnabled
}

// run executes a command, using the custom runner if set.
func (s *Service) run(ctx context.Context, name string, args ...string) error {
	if s.commandRunner != nil {
		return s.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec

	// Torch 2.6 changed torch.load default to weights_only=true, breaking WhisperX/pyannote.
	if os.Getenv("TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD") == "" {
		cmd.Env = append(os.Environ(), "TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD=1")
	}

	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}

// Request describes one WhisperX invocation.
type Request struct {
	Source    string
	OutputDir string
	// Language is an ISO 639 code; empty lets WhisperX detect it.
	Language string
	Diarize  bool
	// MinSpeakers and MaxSpeakers bound diarization; zero leaves them unset.
	MinSpeakers int
	MaxSpeakers int
}

// Result contains the parsed WhisperX output.
type Result struct {
	Language string
	Segments []Segment
	JSONPath string
}

// Text joins the non-empty segment texts with single spaces.
func (r Result) Text() string {
	parts := make([]string, 0, len(r.Segments))
	for _, seg := range r.Segments {
		if text := strings.TrimSpace(seg.Text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}

// Run executes WhisperX for req and parses the JSON it writes.
func (s *Service) Run(ctx context.Context, req Request) (Result, error) {
	var result Result
	if req.Source == "" {
		return result, fmt.Errorf("whisperx: source path required")
	}
	if req.Diarize && strings.TrimSpace(s.cfg.HFToken) == "" {
		return result, ErrMissingToken
	}
	if req.OutputDir == "" {
		req.OutputDir = filepath.Dir(req.Source)
	}
	if err := os.MkdirAll(req.OutputDir, 0o755); err != nil {
		return result, fmt.Errorf("whisperx: ensure output dir: %w", err)
	}

	if err := s.run(ctx, s.cfg.UVXBinary, s.buildArgs(req)...); err != nil {
		return result, fmt.Errorf("whisperx: %w", err)
	}

	baseName := strings.TrimSuffix(filepath.Base(req.Source), filepath.Ext(req.Source))
	jsonPath := filepath.Join(req.OutputDir, baseName+".json")
	payload, err := loadPayload(jsonPath)
	if err != nil {
		return result, err
	}
	result.JSONPath = jsonPath
	result.Segments = payload.Segments
	result.Language = payload.Language
	if result.Language == "" {
		result.Language = langpkg.ToISO2(req.Language)
	}
	return result, nil
}

// Transcribe returns the text spoken in source.
func (s *Service) Transcribe(ctx context.Context, source, outputDir, language string) (Result, error) {
	return s.Run(ctx, Request{Source: source, OutputDir: outputDir, Language: language})
}

// Diarize segments source into speaker-labelled segments.
func (s *Service) Diarize(ctx context.Context, source, outputDir, language string) (Result, error) {
	return s.Run(ctx, Request{Source: source, OutputDir: outputDir, Language: language, Diarize: true})
}

// DetectLanguage returns the ISO 639-1 code WhisperX detects in source.
func (s *Service) DetectLanguage(ctx context.Context, source, outputDir string) (string, error) {
	result, err := s.Run(ctx, Request{Source: source, OutputDir: outputDir})
	if err != nil {
		return "", err
	}
	if result.Language == "" {
		return "", fmt.Errorf("whisperx: no language reported for %s", filepath.Base(source))
	}
	return result.Language, nil
}

// buildArgs constructs the uvx command arguments for WhisperX.
func (s *Service) buildArgs(req Request) []string {
	args := make([]string, 0, 32)

	if s.cfg.CUDAEnabled {
		args = append(args,
			"--index-url", CUDAIndexURL,
			"--extra-index-url", PypiIndexURL,
		)
	} else {
		args = append(args, "--index-url", PypiIndexURL)
	}

	args = append(args,
		"whisperx",
		req.Source,
		"--model", s.Model(),
		"--batch_size", BatchSize,
		"--output_dir", req.OutputDir,
		"--output_format", OutputFormat,
		"--segment_resolution", SegmentResolution,
		"--beam_size", BeamSize,
		"--temperature", Temperature,
	)

	if req.Diarize {
		args = append(args, "--diarize", "--hf_token", s.cfg.HFToken)
		if req.MinSpeakers > 0 {
			args = append(args, "--min_speakers", strconv.Itoa(req.MinSpeakers))
		}
		if req.MaxSpeakers > 0 {
			args = append(args, "--max_speakers", strconv.Itoa(req.MaxSpeakers))
		}
	}

	if lang := langpkg.ToISO2(req.Language); lang != "" {
		args = append(args, "--language", lang)
	}

	if s.cfg.CUDAEnabled {
		args = append(args, "--device", CUDADevice)
	} else {
		args = append(args, "--device", CPUDevice, "--compute_type", CPUComputeType)
		if s.cfg.CPUThreads > 0 {
			args = append(args, "--threads", strconv.Itoa(s.cfg.CPUThreads))
		}
	}

	return args
}

// Word represents a single word with timing from WhisperX output.
type Word struct {
	Word    string  `json:"word"`
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Speaker string  `json:"speaker,omitempty"`
}

// Segment represents a transcribed segment from WhisperX JSON output.
type Segment struct {
	Text    string  `json:"text"`
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Speaker string  `json:"speaker,omitempty"`
	Words   []Word  `json:"words"`
}

type payload struct {
	Segments []Segment `json:"segments"`
	Language string    `json:"language"`
}

// LoadSegments loads segments from a WhisperX JSON file.
func LoadSegments(jsonPath string) ([]Segment, error) {
	p, err := loadPayload(jsonPath)
	if err != nil {
		return nil, err
	}
	return p.Segments, nil
}

func loadPayload(jsonPath string) (payload, error) {
	var p payload
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return p, fmt.Errorf("read whisperx json: %w", err)
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("parse whisperx json: %w", err)
	}
	return p, nil
}

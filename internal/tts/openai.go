package tts

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sashabaranov/go-openai"

	langpkg "opendub/internal/language"
	"opendub/internal/utterance"
)

// OpenAIConfig configures the hosted speech engine.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

var openAIVoices = []Voice{
	{Name: string(openai.VoiceAlloy), Gender: utterance.GenderMale},
	{Name: string(openai.VoiceEcho), Gender: utterance.GenderMale},
	{Name: string(openai.VoiceFable), Gender: utterance.GenderMale},
	{Name: string(openai.VoiceOnyx), Gender: utterance.GenderMale},
	{Name: string(openai.VoiceNova), Gender: utterance.GenderFemale},
	{Name: string(openai.VoiceShimmer), Gender: utterance.GenderFemale},
}

// OpenAI synthesizes through the OpenAI speech API. The voices are
// multilingual, so every Whisper language shares the same list.
type OpenAI struct {
	client *openai.Client
	model  string
}

// NewOpenAI constructs the hosted engine.
func NewOpenAI(cfg OpenAIConfig) *OpenAI {
	aiConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		aiConfig.BaseURL = cfg.BaseURL
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = string(openai.TTSModel1)
	}
	return &OpenAI{client: openai.NewClientWithConfig(aiConfig), model: model}
}

// Name identifies the engine in logs.
func (o *OpenAI) Name() string { return "openai" }

// SupportsSpeed is false; clips are stretched with ffmpeg afterwards.
func (o *OpenAI) SupportsSpeed() bool { return false }

// Languages lists the Whisper language set.
func (o *OpenAI) Languages(context.Context) ([]string, error) {
	return langpkg.WhisperLanguages(), nil
}

// Voices returns the fixed voice list for any supported language.
func (o *OpenAI) Voices(_ context.Context, language string) ([]Voice, error) {
	if !langpkg.Contains(langpkg.WhisperLanguages(), language) {
		return nil, fmt.Errorf("openai speech: language %q not supported", language)
	}
	out := make([]Voice, len(openAIVoices))
	copy(out, openAIVoices)
	return out, nil
}

// Synthesize writes req.Text as MP3 to req.Output.
func (o *OpenAI) Synthesize(ctx context.Context, req Request) error {
	resp, err := o.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(o.model),
		Input:          req.Text,
		Voice:          openai.SpeechVoice(req.Voice),
		ResponseFormat: openai.SpeechResponseFormatMp3,
	})
	if err != nil {
		return fmt.Errorf("openai speech: %w", err)
	}
	defer resp.Close()
	return writeStream(req.Output, resp)
}

// writeStream copies r to path through a sibling temp file.
func writeStream(path string, r io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure output dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".speech-*"+filepath.Ext(path))
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write speech: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close speech: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename speech: %w", err)
	}
	return nil
}

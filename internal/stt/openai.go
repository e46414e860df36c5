package stt

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	langpkg "opendub/internal/language"
)

// OpenAIConfig configures the hosted transcription backend.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// OpenAI transcribes through the OpenAI audio API.
type OpenAI struct {
	client *openai.Client
	model  string
}

// NewOpenAI constructs the hosted backend.
func NewOpenAI(cfg OpenAIConfig) *OpenAI {
	aiConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		aiConfig.BaseURL = cfg.BaseURL
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = openai.Whisper1
	}
	return &OpenAI{client: openai.NewClientWithConfig(aiConfig), model: model}
}

// Name identifies the backend in logs.
func (o *OpenAI) Name() string { return "openai" }

// Languages lists the Whisper language set.
func (o *OpenAI) Languages() []string { return langpkg.WhisperLanguages() }

// Transcribe uploads path and returns its transcription.
func (o *OpenAI) Transcribe(ctx context.Context, path, language string) (string, error) {
	resp, err := o.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    o.model,
		FilePath: path,
		Format:   openai.AudioResponseFormatVerboseJSON,
		Language: language,
	})
	if err != nil {
		return "", fmt.Errorf("openai transcription: %w", err)
	}
	return resp.Text, nil
}

// DetectLanguage transcribes path without a language hint and returns the
// language the service reports.
func (o *OpenAI) DetectLanguage(ctx context.Context, path string) (string, error) {
	resp, err := o.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    o.model,
		FilePath: path,
		Format:   openai.AudioResponseFormatVerboseJSON,
	})
	if err != nil {
		return "", fmt.Errorf("openai transcription: %w", err)
	}
	code := langpkg.ToISO3(resp.Language)
	if code == "und" {
		return "", fmt.Errorf("openai transcription: unrecognized language %q", resp.Language)
	}
	return code, nil
}

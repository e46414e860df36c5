package translation

import (
	"context"
	"fmt"

	langpkg "opendub/internal/language"
	"opendub/internal/services/llm"
)

const systemPrompt = "You are a professional translator."

const promptTemplate = "Translate the following text from %s to %s. " +
	"Maintain the original meaning, tone, and style. " +
	"Only return the translated text without explanations or notes.\n\n" +
	"Text to translate: %s"

// llmLanguages are offered as every ordered pair of distinct entries.
var llmLanguages = []string{
	"eng", "spa", "fra", "deu", "ita", "por", "rus", "jpn", "zho", "ara",
	"hin", "ben", "cat", "nld", "kor", "tur", "vie", "tha", "ind", "swe",
	"nor", "fin", "dan", "pol", "ukr", "heb", "ell", "hun", "ces", "ron",
}

// Completer issues a chat completion.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// LLM translates through an OpenAI-compatible chat model.
type LLM struct {
	client Completer
}

// NewLLM wraps a chat client.
func NewLLM(client Completer) *LLM {
	return &LLM{client: client}
}

// NewLLMFromConfig builds the engine on top of the shared chat client.
func NewLLMFromConfig(cfg llm.Config) *LLM {
	return NewLLM(llm.NewClient(cfg))
}

// Name identifies the engine in logs.
func (e *LLM) Name() string { return "openai" }

// Prompt renders the user prompt for a translation request.
func Prompt(text, source, target string) string {
	return fmt.Sprintf(promptTemplate, langpkg.DisplayName(source), langpkg.DisplayName(target), text)
}

// Translate asks the model for a translation of text.
func (e *LLM) Translate(ctx context.Context, text, source, target string) (string, error) {
	return e.client.Complete(ctx, systemPrompt, Prompt(text, source, target))
}

// Pairs returns every ordered pair of the supported languages.
func (e *LLM) Pairs(context.Context) ([]Pair, error) {
	pairs := make([]Pair, 0, len(llmLanguages)*(len(llmLanguages)-1))
	for _, src := range llmLanguages {
		for _, dst := range llmLanguages {
			if src != dst {
				pairs = append(pairs, Pair{Source: src, Target: dst})
			}
		}
	}
	return pairs, nil
}

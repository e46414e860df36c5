package services

import "context"

type contextKey string

const (
	runIDKey          contextKey = "run_id"
	stageKey          contextKey = "stage"
	targetLanguageKey contextKey = "target_language"
	utteranceIDKey    contextKey = "utterance_id"
)

// WithRunID annotates context with the dubbing run identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext extracts the run identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(runIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithStage annotates context with the pipeline stage name.
func WithStage(ctx context.Context, stage string) context.Context {
	if stage == "" {
		return ctx
	}
	return context.WithValue(ctx, stageKey, stage)
}

// StageFromContext returns the stage name if present.
func StageFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(stageKey)
	if str, ok := v.(string); ok && str != "" {
		return str, true
	}
	return "", false
}

// WithTargetLanguage annotates context with the dubbing target language.
func WithTargetLanguage(ctx context.Context, lang string) context.Context {
	if lang == "" {
		return ctx
	}
	return context.WithValue(ctx, targetLanguageKey, lang)
}

// TargetLanguageFromContext returns the target language if present.
func TargetLanguageFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(targetLanguageKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithUtteranceID annotates context with the utterance being processed.
func WithUtteranceID(ctx context.Context, id int) context.Context {
	return context.WithValue(ctx, utteranceIDKey, id)
}

// UtteranceIDFromContext extracts the utterance identifier if present.
func UtteranceIDFromContext(ctx context.Context) (int, bool) {
	v, ok := ctx.Value(utteranceIDKey).(int)
	return v, ok
}

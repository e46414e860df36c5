package services_test

import (
	"context"
	"testing"

	"opendub/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithRunID(ctx, "run-1")
	ctx = services.WithStage(ctx, "tts")
	ctx = services.WithTargetLanguage(ctx, "cat")
	ctx = services.WithUtteranceID(ctx, 7)

	if id, ok := services.RunIDFromContext(ctx); !ok || id != "run-1" {
		t.Fatalf("unexpected run id: %v %v", id, ok)
	}
	if stage, ok := services.StageFromContext(ctx); !ok || stage != "tts" {
		t.Fatalf("unexpected stage: %v %v", stage, ok)
	}
	if lang, ok := services.TargetLanguageFromContext(ctx); !ok || lang != "cat" {
		t.Fatalf("unexpected language: %v %v", lang, ok)
	}
	if id, ok := services.UtteranceIDFromContext(ctx); !ok || id != 7 {
		t.Fatalf("unexpected utterance id: %v %v", id, ok)
	}
}

func TestStageBlankPreservesContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithStage(ctx, "")
	if _, ok := services.StageFromContext(ctx); ok {
		t.Fatal("expected no stage value")
	}
}

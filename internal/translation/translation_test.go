package translation

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"opendub/internal/logging"
	"opendub/internal/services"
	"opendub/internal/utterance"
)

type scriptedEngine struct {
	mu       sync.Mutex
	failures int
	calls    int
	pairs    []Pair
}

func (e *scriptedEngine) Name() string { return "scripted" }

func (e *scriptedEngine) Translate(_ context.Context, text, source, target string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	if e.failures > 0 {
		e.failures--
		return "", errors.New("upstream unavailable")
	}
	return " [" + source + ">" + target + "] " + text + " ", nil
}

func (e *scriptedEngine) Pairs(context.Context) ([]Pair, error) { return e.pairs, nil }

func TestTranslateUtterancesPreservesOrderAndSkipsEmpty(t *testing.T) {
	engine := &scriptedEngine{}
	svc := NewService(engine, Options{Workers: 4}, logging.NewNop())
	input := []utterance.Utterance{{Text: "one"}, {Text: ""}, {Text: "three"}, {Text: "  "}}

	out, err := svc.TranslateUtterances(context.Background(), input, "eng", "cat")
	if err != nil {
		t.Fatalf("TranslateUtterances returned error: %v", err)
	}
	want := []string{"[eng>cat] one", "", "[eng>cat] three", ""}
	for i, u := range out {
		if u.TranslatedText != want[i] {
			t.Fatalf("slot %d: got %q want %q", i, u.TranslatedText, want[i])
		}
	}
	if engine.calls != 2 {
		t.Fatalf("expected 2 engine calls, got %d", engine.calls)
	}
	if input[0].TranslatedText != "" {
		t.Fatal("input mutated")
	}
}

func TestTranslateRetriesThenSucceeds(t *testing.T) {
	engine := &scriptedEngine{failures: 2}
	svc := NewService(engine, Options{Attempts: 3, RetryDelay: 0}, nil)
	got, err := svc.Translate(context.Background(), "hi", "eng", "spa")
	if err != nil {
		t.Fatalf("Translate returned error: %v", err)
	}
	if got != "[eng>spa] hi" || engine.calls != 3 {
		t.Fatalf("unexpected result %q after %d calls", got, engine.calls)
	}
}

func TestTranslateExhaustionIsTransient(t *testing.T) {
	engine := &scriptedEngine{failures: 5}
	svc := NewService(engine, Options{Attempts: 3}, nil)
	_, err := svc.TranslateUtterances(context.Background(), []utterance.Utterance{{Text: "x"}}, "eng", "spa")
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient error, got %v", err)
	}
	if engine.calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", engine.calls)
	}
}

func TestTranslateHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	engine := &scriptedEngine{failures: 5}
	svc := NewService(engine, Options{Attempts: 3}, nil)
	cancel()
	if _, err := svc.Translate(ctx, "x", "eng", "spa"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestTranslateRateLimit(t *testing.T) {
	engine := &scriptedEngine{}
	svc := NewService(engine, Options{RequestsPerMinute: 1}, nil)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if _, err := svc.Translate(ctx, "first", "eng", "spa"); err != nil {
		t.Fatalf("first call should use the burst: %v", err)
	}
	if _, err := svc.Translate(ctx, "second", "eng", "spa"); err == nil {
		t.Fatal("expected the second call to exceed the deadline while waiting for the limiter")
	}
	if engine.calls != 1 {
		t.Fatalf("expected 1 engine call, got %d", engine.calls)
	}
}

func TestSupportsPair(t *testing.T) {
	svc := NewService(&scriptedEngine{pairs: []Pair{{Source: "eng", Target: "cat"}}}, Options{}, nil)
	ok, err := svc.SupportsPair(context.Background(), "en", "ca")
	if err != nil || !ok {
		t.Fatalf("expected en>ca to be supported (%v)", err)
	}
	ok, _ = svc.SupportsPair(context.Background(), "cat", "eng")
	if ok {
		t.Fatal("reverse pair should not be supported")
	}
}

type recordingCompleter struct{ system, user string }

func (r *recordingCompleter) Complete(_ context.Context, system, user string) (string, error) {
	r.system, r.user = system, user
	return "Hola", nil
}

func TestLLMEngine(t *testing.T) {
	rec := &recordingCompleter{}
	engine := NewLLM(rec)
	got, err := engine.Translate(context.Background(), "Hello", "eng", "spa")
	if err != nil || got != "Hola" {
		t.Fatalf("unexpected result %q (%v)", got, err)
	}
	if rec.system != "You are a professional translator." {
		t.Fatalf("unexpected system prompt %q", rec.system)
	}
	if !strings.HasPrefix(rec.user, "Translate the following text from English to Spanish.") ||
		!strings.HasSuffix(rec.user, "Text to translate: Hello") {
		t.Fatalf("unexpected prompt %q", rec.user)
	}
	pairs, _ := engine.Pairs(context.Background())
	if len(pairs) != 30*29 {
		t.Fatalf("expected %d pairs, got %d", 30*29, len(pairs))
	}
}

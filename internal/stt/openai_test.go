package stt

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func newTranscriptionServer(t *testing.T, language, text string, gotLanguage *string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/audio/transcriptions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		if gotLanguage != nil {
			*gotLanguage = r.FormValue("language")
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"task":     "transcribe",
			"language": language,
			"duration": 1.5,
			"text":     text,
		})
	}))
}

func writeClip(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chunk_1.0_2.5.mp3")
	if err := os.WriteFile(path, []byte("fake mp3"), 0o644); err != nil {
		t.Fatalf("write clip: %v", err)
	}
	return path
}

func TestOpenAITranscribe(t *testing.T) {
	var gotLanguage string
	server := newTranscriptionServer(t, "english", "hello there", &gotLanguage)
	defer server.Close()

	backend := NewOpenAI(OpenAIConfig{APIKey: "k", BaseURL: server.URL + "/v1"})
	text, err := backend.Transcribe(context.Background(), writeClip(t), "en")
	if err != nil {
		t.Fatalf("Transcribe returned error: %v", err)
	}
	if text != "hello there" || gotLanguage != "en" {
		t.Fatalf("unexpected result %q (language %q)", text, gotLanguage)
	}
}

func TestOpenAIDetectLanguage(t *testing.T) {
	server := newTranscriptionServer(t, "catalan", "bon dia", nil)
	defer server.Close()

	backend := NewOpenAI(OpenAIConfig{APIKey: "k", BaseURL: server.URL + "/v1"})
	lang, err := backend.DetectLanguage(context.Background(), writeClip(t))
	if err != nil {
		t.Fatalf("DetectLanguage returned error: %v", err)
	}
	if lang != "cat" {
		t.Fatalf("expected cat, got %q", lang)
	}
}

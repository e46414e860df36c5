package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"opendub/internal/history"
	"opendub/internal/logging"
	"opendub/internal/services"
	"opendub/internal/testsupport"
	"opendub/internal/utterance"
)

func TestDubRejectsNonMP4Input(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithStubbedBinaries())
	input := filepath.Join(t.TempDir(), "talk.avi")
	testsupport.WriteFile(t, input, 8)

	_, _, err := runCLI(t, []string{"dub", "-i", input, "-t", "cat"}, env.configPath)
	if code := services.ExitCode(err); code != 103 {
		t.Fatalf("exit code = %d, want 103 (err=%v)", code, err)
	}
}

func TestDubUpdateWithoutBaseline(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithStubbedBinaries())
	out := filepath.Join(t.TempDir(), "empty")

	_, _, err := runCLI(t, []string{"dub", "--update", "-o", out, "-t", "cat"}, env.configPath)
	if code := services.ExitCode(err); code != 111 {
		t.Fatalf("exit code = %d, want 111 (err=%v)", code, err)
	}
}

func TestDubEditsRequireUpdate(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithStubbedBinaries())
	input := filepath.Join(t.TempDir(), "talk.mp4")
	testsupport.WriteFile(t, input, 8)

	_, _, err := runCLI(t, []string{"dub", "-i", input, "-t", "cat", "--edits", "edits.json"}, env.configPath)
	if err == nil {
		t.Fatal("expected --edits without --update to fail")
	}
}

func TestUtterancesCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	store := utterance.NewStore(env.cfg.Paths.OutputDir, "cat", logging.NewNop())
	_, err := store.Save(context.Background(), []utterance.Utterance{
		{Start: 0, End: 1.5, SpeakerID: "SPEAKER_00", Text: "Hello", TranslatedText: "Hola", AssignedVoice: "anna", ForDubbing: true},
		{Start: 2, End: 3, SpeakerID: "SPEAKER_01", Text: "Bye", TranslatedText: "Adeu", AssignedVoice: "pau", ForDubbing: true},
	}, utterance.Artifacts{}, utterance.Metadata{SourceLanguage: "eng"})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	out, _, err := runCLI(t, []string{"utterances", "-t", "cat"}, env.configPath)
	if err != nil {
		t.Fatalf("utterances: %v", err)
	}
	requireContains(t, out, "Hola")
	requireContains(t, out, "2 utterances, 0 modified")

	out, _, err = runCLI(t, []string{"utterances", "-t", "cat", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("utterances --json: %v", err)
	}
	var decoded []utterance.Utterance
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("decode json: %v\n%s", err, out)
	}
	if len(decoded) != 2 || decoded[0].AssignedVoice != "anna" || decoded[1].ID != 2 {
		t.Fatalf("unexpected utterances: %+v", decoded)
	}

	if _, _, err := runCLI(t, []string{"utterances", "-t", "fra"}, env.configPath); services.ExitCode(err) != 111 {
		t.Fatalf("expected exit 111 for a missing run, got %v", err)
	}
}

func TestVoicesCommandFiltersRegion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/voices" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode([]map[string]string{
			{"id": "cat-es-anna", "gender": "female", "region": "ES", "language": "ca"},
			{"id": "cat-ad-pau", "gender": "male", "region": "AD", "language": "ca"},
			{"id": "eng-us-joe", "gender": "male", "region": "US", "language": "en"},
		})
	}))
	defer srv.Close()

	env := setupCLITestEnv(t)
	env.cfg.TTS.Engine = "api"
	env.cfg.TTS.APIServer = srv.URL
	writeTestConfig(t, env.configPath, env.cfg)

	out, _, err := runCLI(t, []string{"voices", "-t", "cat", "--region", "ES"}, env.configPath)
	if err != nil {
		t.Fatalf("voices: %v", err)
	}
	requireContains(t, out, "cat-es-anna")
	requireContains(t, out, "1 Catalan voices from api")

	_, _, err = runCLI(t, []string{"voices", "-t", "cat", "--region", "FR"}, env.configPath)
	if code := services.ExitCode(err); code != 102 {
		t.Fatalf("exit code = %d, want 102", code)
	}
}

func TestHistoryCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	store := testsupport.MustOpenHistory(t, env.cfg)
	run, err := store.Begin(context.Background(), history.Run{
		Mode:           history.ModeDub,
		OutputDir:      env.cfg.Paths.OutputDir,
		TargetLanguage: "cat",
	})
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := store.Finish(context.Background(), run.ID, history.Outcome{Utterances: 12, Modified: 12}); err != nil {
		t.Fatalf("Finish: %v", err)
	}

	out, _, err := runCLI(t, []string{"history"}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, run.ID[:8])
	requireContains(t, out, "completed")

	out, _, err = runCLI(t, []string{"history", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("history --json: %v", err)
	}
	var runs []history.Run
	if err := json.Unmarshal([]byte(out), &runs); err != nil {
		t.Fatalf("decode json: %v", err)
	}
	if len(runs) != 1 || runs[0].Utterances != 12 {
		t.Fatalf("unexpected runs: %+v", runs)
	}
}

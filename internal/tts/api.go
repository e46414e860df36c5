package tts

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	langpkg "opendub/internal/language"
	"opendub/internal/utterance"
)

// Converter transcodes an audio file into the format implied by dst.
type Converter interface {
	Convert(ctx context.Context, src, dst string) error
}

// API talks to a TTS HTTP server exposing /voices and /speak.
type API struct {
	server     string
	httpClient *http.Client
	converter  Converter

	mu     sync.Mutex
	voices []apiVoice
}

type apiVoice struct {
	ID       string `json:"id"`
	Gender   string `json:"gender"`
	Region   string `json:"region"`
	Language string `json:"language"`
}

// NewAPI constructs an engine for the server at base URL server. Responses
// from /speak are transcoded to MP3 with converter.
func NewAPI(server string, converter Converter, timeout time.Duration) *API {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &API{
		server:     strings.TrimRight(strings.TrimSpace(server), "/"),
		httpClient: &http.Client{Timeout: timeout},
		converter:  converter,
	}
}

// Name identifies the engine in logs.
func (a *API) Name() string { return "api" }

// SupportsSpeed is false; the server has no rate parameter.
func (a *API) SupportsSpeed() bool { return false }

func (a *API) loadVoices(ctx context.Context) ([]apiVoice, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.voices != nil {
		return a.voices, nil
	}
	resp, err := a.get(ctx, "/voices", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	var voices []apiVoice
	if err := json.NewDecoder(resp.Body).Decode(&voices); err != nil {
		return nil, fmt.Errorf("tts api: decode voices: %w", err)
	}
	a.voices = voices
	return voices, nil
}

// Languages lists the distinct languages of the server's voices.
func (a *API) Languages(ctx context.Context) ([]string, error) {
	voices, err := a.loadVoices(ctx)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, v := range voices {
		code := langpkg.ToISO3(v.Language)
		if !langpkg.Contains(out, code) {
			out = append(out, code)
		}
	}
	return out, nil
}

// Voices lists the server's voices for language.
func (a *API) Voices(ctx context.Context, language string) ([]Voice, error) {
	voices, err := a.loadVoices(ctx)
	if err != nil {
		return nil, err
	}
	var out []Voice
	for _, v := range voices {
		if !langpkg.Equal(v.Language, language) {
			continue
		}
		out = append(out, Voice{
			Name:   v.ID,
			Gender: utterance.NormalizeGender(v.Gender),
			Region: v.Region,
		})
	}
	return out, nil
}

// Synthesize requests /speak and converts the returned audio to req.Output.
func (a *API) Synthesize(ctx context.Context, req Request) error {
	query := url.Values{}
	query.Set("voice", req.Voice)
	query.Set("text", req.Text)
	resp, err := a.get(ctx, "/speak", query)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := os.MkdirAll(filepath.Dir(req.Output), 0o755); err != nil {
		return fmt.Errorf("ensure output dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(req.Output), ".speak-*.wav")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)
	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return fmt.Errorf("tts api: read speech: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("tts api: close speech: %w", err)
	}
	if err := a.converter.Convert(ctx, tmpName, req.Output); err != nil {
		return fmt.Errorf("tts api: convert speech: %w", err)
	}
	return nil
}

func (a *API) get(ctx context.Context, path string, query url.Values) (*http.Response, error) {
	endpoint := a.server + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("tts api: build request: %w", err)
	}
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tts api: %s: %w", path, err)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		return nil, fmt.Errorf("tts api: %s: status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return resp, nil
}

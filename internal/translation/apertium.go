package translation

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	langpkg "opendub/internal/language"
)

// Apertium talks to an Apertium APy server.
type Apertium struct {
	server     string
	httpClient *http.Client
}

// NewApertium constructs an engine for the APy instance at server.
func NewApertium(server string, timeout time.Duration) *Apertium {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Apertium{
		server:     strings.TrimRight(strings.TrimSpace(server), "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Name identifies the engine in logs.
func (a *Apertium) Name() string { return "apertium" }

type apertiumTranslateResponse struct {
	ResponseData struct {
		TranslatedText string `json:"translatedText"`
	} `json:"responseData"`
	ResponseDetails string `json:"responseDetails"`
	ResponseStatus  int    `json:"responseStatus"`
}

type apertiumPairsResponse struct {
	ResponseData []struct {
		SourceLanguage string `json:"sourceLanguage"`
		TargetLanguage string `json:"targetLanguage"`
	} `json:"responseData"`
	ResponseStatus int `json:"responseStatus"`
}

// Translate calls /translate for the pair.
func (a *Apertium) Translate(ctx context.Context, text, source, target string) (string, error) {
	query := url.Values{}
	query.Set("langpair", langpkg.ToISO3(source)+"|"+langpkg.ToISO3(target))
	query.Set("markUnknown", "no")
	query.Set("q", text)

	var resp apertiumTranslateResponse
	if err := a.get(ctx, "/translate", query, &resp); err != nil {
		return "", err
	}
	if resp.ResponseStatus != 0 && resp.ResponseStatus != http.StatusOK {
		return "", fmt.Errorf("apertium translate: status %d: %s", resp.ResponseStatus, resp.ResponseDetails)
	}
	return resp.ResponseData.TranslatedText, nil
}

// Pairs calls /listPairs.
func (a *Apertium) Pairs(ctx context.Context) ([]Pair, error) {
	var resp apertiumPairsResponse
	if err := a.get(ctx, "/listPairs", nil, &resp); err != nil {
		return nil, err
	}
	pairs := make([]Pair, 0, len(resp.ResponseData))
	for _, p := range resp.ResponseData {
		pairs = append(pairs, Pair{
			Source: langpkg.ToISO3(p.SourceLanguage),
			Target: langpkg.ToISO3(p.TargetLanguage),
		})
	}
	return pairs, nil
}

func (a *Apertium) get(ctx context.Context, path string, query url.Values, target any) error {
	if a.server == "" {
		return fmt.Errorf("apertium: server not configured")
	}
	endpoint := a.server + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("apertium %s: new request: %w", path, err)
	}
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("apertium %s: %w", path, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("apertium %s: read body: %w", path, err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("apertium %s: http %d: %s", path, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.Unmarshal(body, target); err != nil {
		return fmt.Errorf("apertium %s: decode response: %w", path, err)
	}
	return nil
}

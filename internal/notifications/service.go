package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"opendub/internal/config"
	langpkg "opendub/internal/language"
)

const userAgent = "opendub/0.1.0"

// RunSummary describes a finished run for notification purposes.
type RunSummary struct {
	Mode           string
	InputFile      string
	TargetLanguage string
	OutputFile     string
	Utterances     int
	Modified       int
	Duration       time.Duration
}

// Service defines the notification surface used by the dubbing pipeline.
type Service interface {
	NotifyRunCompleted(ctx context.Context, summary RunSummary) error
	NotifyRunFailed(ctx context.Context, summary RunSummary, err error) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) NotifyRunCompleted(ctx context.Context, summary RunSummary) error {
	var message string
	if summary.Mode == "update" {
		message = fmt.Sprintf("Updated %s: %d of %d utterances re-dubbed in %s",
			label(summary), summary.Modified, summary.Utterances, formatDuration(summary.Duration))
	} else {
		message = fmt.Sprintf("Dubbed %s into %s: %d utterances in %s",
			label(summary), langpkg.DisplayName(summary.TargetLanguage), summary.Utterances, formatDuration(summary.Duration))
	}
	if summary.OutputFile != "" {
		message += "\n" + summary.OutputFile
	}
	return n.send(ctx, payload{
		title:   "opendub - Dub Complete",
		message: message,
		tags:    []string{"opendub", summary.Mode, "completed"},
	})
}

func (n *ntfyService) NotifyRunFailed(ctx context.Context, summary RunSummary, err error) error {
	var builder strings.Builder
	builder.WriteString("Dubbing ")
	builder.WriteString(label(summary))
	builder.WriteString(" failed: ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown error")
	}
	return n.send(ctx, payload{
		title:    "opendub - Error",
		message:  builder.String(),
		tags:     []string{"opendub", "error", "alert"},
		priority: "high",
	})
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.send(ctx, payload{
		title:    "opendub - Test",
		message:  "Notification system test",
		tags:     []string{"opendub", "test"},
		priority: "low",
	})
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func label(summary RunSummary) string {
	if summary.InputFile != "" {
		return filepath.Base(summary.InputFile)
	}
	if summary.OutputFile != "" {
		return filepath.Base(filepath.Dir(summary.OutputFile))
	}
	return "run"
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	if d <= 0 {
		return "0s"
	}
	return d.String()
}

type noopService struct{}

func (noopService) NotifyRunCompleted(context.Context, RunSummary) error     { return nil }
func (noopService) NotifyRunFailed(context.Context, RunSummary, error) error { return nil }
func (noopService) TestNotification(context.Context) error                  { return nil }

package subtitles

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"opendub/internal/fileutil"
	"opendub/internal/utterance"
)

// Variant selects which utterance text a subtitle file carries.
type Variant int

const (
	// Original carries the transcribed source-language text.
	Original Variant = iota
	// Dubbed carries the translated text.
	Dubbed
)

// FileName returns the SRT name for a language, for example "cat.srt".
func FileName(language string) string {
	return strings.ToLower(strings.TrimSpace(language)) + ".srt"
}

// FormatTimestamp renders seconds as HH:MM:SS,mmm, truncating sub-millisecond
// precision.
func FormatTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int64(math.Floor(seconds*1000 + 1e-6))
	ms := total % 1000
	s := total / 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", s/3600, (s/60)%60, s%60, ms)
}

// Render builds the SRT document for utterances. Cues are numbered from 1 in
// slice order.
func Render(utterances []utterance.Utterance, variant Variant) string {
	var b strings.Builder
	for i, u := range utterances {
		text := u.Text
		if variant == Dubbed {
			text = u.TranslatedText
		}
		fmt.Fprintf(&b, "%d\n%s --> %s\n%s\n\n", i+1, FormatTimestamp(u.Start), FormatTimestamp(u.End), text)
	}
	return b.String()
}

// Write renders utterances into dir/name and returns the file path.
func Write(dir, name string, utterances []utterance.Utterance, variant Variant) (string, error) {
	path := filepath.Join(dir, name)
	if err := fileutil.WriteFileAtomic(path, []byte(Render(utterances, variant)), 0o644); err != nil {
		return "", fmt.Errorf("write subtitles: %w", err)
	}
	return path, nil
}

// CountCues returns the number of non-empty cue blocks in an SRT file.
func CountCues(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read srt: %w", err)
	}
	content := strings.TrimSpace(strings.ReplaceAll(string(data), "\r\n", "\n"))
	if content == "" {
		return 0, nil
	}
	count := 0
	for _, block := range strings.Split(content, "\n\n") {
		if strings.TrimSpace(block) != "" {
			count++
		}
	}
	return count, nil
}

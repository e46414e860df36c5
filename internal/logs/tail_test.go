package logs_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"opendub/internal/logs"
)

func writeLog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "opendub.log")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}
	return path
}

func appendLog(t *testing.T, path, content string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open append: %v", err)
	}
	defer f.Close()
	if _, err := f.WriteString(content); err != nil {
		t.Fatalf("append log: %v", err)
	}
}

func TestTail(t *testing.T) {
	content := "a run_id=r1\nb run_id=r2\nc run_id=r1\nd run_id=r1\n"
	tests := []struct {
		name   string
		opts   logs.TailOptions
		expect []string
	}{
		{name: "last lines", opts: logs.TailOptions{Limit: 2}, expect: []string{"c run_id=r1", "d run_id=r1"}},
		{name: "fewer than limit", opts: logs.TailOptions{Limit: 10}, expect: []string{"a run_id=r1", "b run_id=r2", "c run_id=r1", "d run_id=r1"}},
		{name: "run filter", opts: logs.TailOptions{Limit: 5, RunID: "r2"}, expect: []string{"b run_id=r2"}},
		{name: "zero limit", opts: logs.TailOptions{}, expect: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeLog(t, content)
			result, err := logs.Tail(path, tt.opts)
			if err != nil {
				t.Fatalf("Tail: %v", err)
			}
			if len(result.Lines) != len(tt.expect) {
				t.Fatalf("lines = %#v, want %#v", result.Lines, tt.expect)
			}
			for i := range tt.expect {
				if result.Lines[i] != tt.expect[i] {
					t.Fatalf("lines = %#v, want %#v", result.Lines, tt.expect)
				}
			}
			if result.Offset != int64(len(content)) {
				t.Fatalf("offset = %d, want %d", result.Offset, len(content))
			}
		})
	}
}

func TestTailMissingFile(t *testing.T) {
	result, err := logs.Tail(filepath.Join(t.TempDir(), "missing.log"), logs.TailOptions{Limit: 5})
	if err != nil {
		t.Fatalf("Tail: %v", err)
	}
	if len(result.Lines) != 0 || result.Offset != 0 {
		t.Fatalf("unexpected result for missing file: %+v", result)
	}
}

func TestReadFromLeavesPartialLine(t *testing.T) {
	path := writeLog(t, "one\ntw")
	result, err := logs.ReadFrom(path, 0, "")
	if err != nil {
		t.Fatalf("ReadFrom: %v", err)
	}
	if len(result.Lines) != 1 || result.Offset != 4 {
		t.Fatalf("unexpected result: %+v", result)
	}
	appendLog(t, path, "o\n")
	result, err = logs.ReadFrom(path, result.Offset, "")
	if err != nil {
		t.Fatalf("ReadFrom: %v", err)
	}
	if len(result.Lines) != 1 || result.Lines[0] != "two" {
		t.Fatalf("unexpected continuation: %+v", result)
	}
}

func TestReadFromRestartsAfterTruncation(t *testing.T) {
	path := writeLog(t, "short\n")
	result, err := logs.ReadFrom(path, 1000, "")
	if err != nil {
		t.Fatalf("ReadFrom: %v", err)
	}
	if len(result.Lines) != 1 || result.Lines[0] != "short" {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestFollowEmitsAppendedLines(t *testing.T) {
	path := writeLog(t, "start\n")
	start, err := logs.Tail(path, logs.TailOptions{Limit: 1})
	if err != nil {
		t.Fatalf("Tail: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var got []string
	done := make(chan error, 1)
	go func() {
		done <- logs.Follow(ctx, path, start.Offset, "", 10*time.Millisecond, func(line string) {
			mu.Lock()
			got = append(got, line)
			mu.Unlock()
		})
	}()

	appendLog(t, path, "later\n")
	deadline := time.After(5 * time.Second)
	for {
		mu.Lock()
		n := len(got)
		mu.Unlock()
		if n > 0 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("follow did not emit appended line")
		case <-time.After(10 * time.Millisecond):
		}
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Follow: %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(got) != 1 || got[0] != "later" {
		t.Fatalf("unexpected follow lines: %#v", got)
	}
}

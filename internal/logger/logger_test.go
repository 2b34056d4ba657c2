package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestLogger_Log(t *testing.T) {
	tests := []struct {
		name    string
		level   Level
		message string
		fields  Fields
		err     error
		want    bool // should log
	}{
		{
			name:    "info message",
			level:   LevelInfo,
			message: "tournament saved",
			fields:  Fields{"path": "scraped/mtgo/2024/01/04/x.json"},
			want:    true,
		},
		{
			name:    "debug below threshold",
			level:   LevelDebug,
			message: "page fetched",
			want:    false,
		},
		{
			name:    "error with err",
			level:   LevelError,
			message: "task abandoned",
			err:     errors.New("fetch failed"),
			want:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := New(LevelInfo, &buf)

			logger.log(tt.level, tt.message, tt.fields, tt.err)

			if logged := buf.Len() > 0; logged != tt.want {
				t.Fatalf("log() logged = %v, want %v", logged, tt.want)
			}
			if !tt.want {
				return
			}

			var entry LogEntry
			if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
				t.Fatalf("log line is not JSON: %v", err)
			}
			if entry.Message != tt.message || entry.Level != string(tt.level) {
				t.Errorf("entry = %+v, want message %q level %s", entry, tt.message, tt.level)
			}
			if tt.err != nil && entry.Error != tt.err.Error() {
				t.Errorf("entry.Error = %q, want %q", entry.Error, tt.err.Error())
			}
		})
	}
}

func TestLogger_With(t *testing.T) {
	var buf bytes.Buffer
	base := New(LevelDebug, &buf)
	worker := base.With(Fields{"worker": 2, "source": "mtgo"})

	worker.Info("scraping", Fields{"url": "https://example.test"})

	var entry LogEntry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if entry.Fields["source"] != "mtgo" || entry.Fields["url"] != "https://example.test" {
		t.Errorf("entry.Fields = %v, want base and call fields merged", entry.Fields)
	}
	if entry.Fields["worker"] != float64(2) {
		t.Errorf("entry.Fields[worker] = %v, want 2", entry.Fields["worker"])
	}
}

func TestLogger_ConcurrentLines(t *testing.T) {
	var buf bytes.Buffer
	logger := New(LevelInfo, &buf)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			logger.With(Fields{"worker": i}).Info("done", nil)
		}(i)
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 8 {
		t.Fatalf("got %d lines, want 8", len(lines))
	}
	for _, line := range lines {
		var entry LogEntry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Errorf("interleaved line %q: %v", line, err)
		}
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]Level{
		"debug":  LevelDebug,
		" WARN ": LevelWarn,
		"error":  LevelError,
		"":       LevelInfo,
		"loud":   LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestMetrics_Counter(t *testing.T) {
	m := NewMetrics()

	m.IncrCounter("crawler.done")
	m.IncrCounter("crawler.done")
	m.IncrCounter("crawler.done")

	if got := m.Counter("crawler.done"); got != 3 {
		t.Errorf("Counter() = %v, want 3", got)
	}
	if got := m.Snapshot()["crawler.done"]; got != int64(3) {
		t.Errorf("Snapshot()[crawler.done] = %v, want 3", got)
	}
}

func TestMetrics_Timing(t *testing.T) {
	m := NewMetrics()

	m.RecordTiming("crawler.task", 100*time.Millisecond)
	m.RecordTiming("crawler.task", 200*time.Millisecond)
	m.RecordTiming("crawler.task", 300*time.Millisecond)

	timing := m.Snapshot()["crawler.task"].(map[string]interface{})
	if timing["count"].(int) != 3 {
		t.Errorf("Timing count = %v, want 3", timing["count"])
	}
	if timing["average"].(string) != "200ms" {
		t.Errorf("Average timing = %v, want 200ms", timing["average"])
	}
	if timing["max"].(string) != "300ms" {
		t.Errorf("Max timing = %v, want 300ms", timing["max"])
	}
}

func TestPackageLevelFunctions(t *testing.T) {
	var buf bytes.Buffer
	previous := Default()
	SetDefault(New(LevelDebug, &buf))
	defer SetDefault(previous)

	Debug("test debug", nil)
	Info("test info", Fields{"key": "value"})
	Warn("test warning", nil)
	Error("test error", Fields{"component": "test"}, errors.New("test"))

	if got := strings.Count(buf.String(), "\n"); got != 4 {
		t.Errorf("package-level functions wrote %d lines, want 4", got)
	}

	IncrCounter("test")
	RecordTiming("test.timing", time.Second)
	if MetricsSnapshot() == nil {
		t.Error("MetricsSnapshot() returned nil")
	}
}

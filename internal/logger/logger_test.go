package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

func TestPrettyHandler_Structural(t *testing.T) {
	var buf bytes.Buffer
	h := NewPrettyHandler(&buf, &slog.HandlerOptions{Level: LevelDebug}, false)
	l := slog.New(h)

	t.Run("WithAttrs", func(t *testing.T) {
		buf.Reset()
		l.With("provider", "libretranslate").Info("starting", "concurrency", 4)

		output := buf.String()
		if !strings.Contains(output, "provider=libretranslate") {
			t.Errorf("output missing persistent attr: %q", output)
		}
		if !strings.Contains(output, "concurrency=4") {
			t.Errorf("output missing record attr: %q", output)
		}
		if !strings.HasSuffix(output, "\n") {
			t.Errorf("output should end with a newline: %q", output)
		}
	})

	t.Run("WithGroup", func(t *testing.T) {
		buf.Reset()
		l.WithGroup("retry").With("attempt", 2).Info("backing off", "delay", "1s")

		output := buf.String()
		if !strings.Contains(output, "retry.attempt=2") {
			t.Errorf("output missing grouped persistent attr: %q", output)
		}
		if !strings.Contains(output, "retry.delay=1s") {
			t.Errorf("output missing grouped record attr: %q", output)
		}
	})

	t.Run("InlineGroup", func(t *testing.T) {
		buf.Reset()
		l.Info("stats", slog.Group("run", "total", 3, "failed", 1))

		output := buf.String()
		if !strings.Contains(output, "run.total=3") || !strings.Contains(output, "run.failed=1") {
			t.Errorf("output missing inline group attrs: %q", output)
		}
	})

	t.Run("LevelFilter", func(t *testing.T) {
		buf.Reset()
		quiet := slog.New(NewPrettyHandler(&buf, &slog.HandlerOptions{Level: LevelWarn}, false))
		quiet.Info("hidden")
		if buf.Len() != 0 {
			t.Errorf("info record should be filtered: %q", buf.String())
		}
	})
}

func TestPrettyHandler_ConcurrentLinesDoNotInterleave(t *testing.T) {
	var buf bytes.Buffer
	var mu sync.Mutex
	w := writerFunc(func(p []byte) (int, error) {
		mu.Lock()
		defer mu.Unlock()
		return buf.Write(p)
	})
	l := slog.New(NewPrettyHandler(w, &slog.HandlerOptions{Level: LevelInfo}, false))

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			l.Info("comment done", "index", n)
		}(i)
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 16 {
		t.Fatalf("expected 16 lines, got %d", len(lines))
	}
	for _, line := range lines {
		if strings.Count(line, "comment done") != 1 {
			t.Errorf("interleaved line: %q", line)
		}
	}
}

func TestRedactAttr(t *testing.T) {
	tests := []struct {
		name   string
		attr   slog.Attr
		redact bool
	}{
		{name: "api key", attr: slog.String("api_key", "abc123"), redact: true},
		{name: "comment text", attr: slog.String("comment", "A strong opening move"), redact: true},
		{name: "request field", attr: slog.String("q", "The Sicilian Defense"), redact: true},
		{name: "translation", attr: slog.String("translation", "La Defensa Siciliana"), redact: true},
		{name: "gemini key in value", attr: slog.String("url", "https://x?key=AIzaSyA1234567890abcdef"), redact: true},
		{name: "bearer in error", attr: slog.Any("error", errors.New("bearer abc.def.ghi")), redact: true},
		{name: "counter", attr: slog.Int("failed_comments", 2), redact: false},
		{name: "index", attr: slog.Int("comment_index", 3), redact: false},
		{name: "plain", attr: slog.String("provider", "gemini"), redact: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RedactAttr(nil, tt.attr)
			isRedacted := got.Value.Kind() == slog.KindString && got.Value.String() == redacted
			if isRedacted != tt.redact {
				t.Fatalf("RedactAttr(%v) redacted=%v, want %v", tt.attr, isRedacted, tt.redact)
			}
		})
	}
}

func TestInit_NoColorWhenNotTTY(t *testing.T) {
	restore := captureStderr(t, false)
	defer restore()

	var out bytes.Buffer
	stderr = &out
	Init(LevelInfo, nil)
	Info("test message", "provider", "libretranslate")

	if strings.Contains(out.String(), "\033[") {
		t.Fatalf("unexpected ANSI codes in output: %q", out.String())
	}
}

func TestInit_LogFileReceivesJSON(t *testing.T) {
	restore := captureStderr(t, true)
	defer restore()

	var console, logFile bytes.Buffer
	stderr = &console
	Init(LevelInfo, &logFile)
	Info("translated", "comment", "secret text", "total_comments", 2)

	if strings.Contains(console.String(), "\033[") {
		t.Fatalf("unexpected ANSI codes with log file enabled: %q", console.String())
	}
	var record map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(logFile.Bytes()), &record); err != nil {
		t.Fatalf("log file is not JSON: %v (%q)", err, logFile.String())
	}
	if record["comment"] != redacted {
		t.Errorf("comment not redacted in log file: %v", record["comment"])
	}
	if record["total_comments"] != float64(2) {
		t.Errorf("total_comments = %v", record["total_comments"])
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug": LevelDebug,
		"INFO":  LevelInfo,
		"warn":  LevelWarn,
		"error": LevelError,
		"bogus": LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func captureStderr(t *testing.T, tty bool) func() {
	t.Helper()
	prevTerminal, prevStderr := isTerminal, stderr
	isTerminal = func(int) bool { return tty }
	return func() {
		isTerminal, stderr = prevTerminal, prevStderr
		Init(LevelInfo, nil)
	}
}

type writerFunc func([]byte) (int, error)

func (f writerFunc) Write(p []byte) (int, error) { return f(p) }

package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/oukeidos/pgnct/internal/apperrors"
	"github.com/oukeidos/pgnct/internal/gateway"
	"github.com/oukeidos/pgnct/internal/metrics"
	"github.com/oukeidos/pgnct/internal/pgn"
	"github.com/oukeidos/pgnct/internal/recovery"
	"github.com/oukeidos/pgnct/internal/translator"
)

const sicilian = "1. e4 {A strong opening move} c5 {The Sicilian Defense}"

var spanish = map[string]string{
	"test":                  "prueba",
	"A strong opening move": "Un movimiento de apertura fuerte",
	"The Sicilian Defense":  "La Defensa Siciliana",
}

// fakeGateway translates through a dictionary and fails for listed texts.
type fakeGateway struct {
	mu     sync.Mutex
	calls  []string
	fail   map[string]error
	closed bool
}

func (g *fakeGateway) Translate(_ context.Context, req gateway.Request) (string, error) {
	g.mu.Lock()
	g.calls = append(g.calls, req.Text)
	g.mu.Unlock()
	if err, ok := g.fail[req.Text]; ok {
		return "", err
	}
	if out, ok := spanish[req.Text]; ok {
		return out, nil
	}
	return "ES:" + req.Text, nil
}

func (g *fakeGateway) Close() error {
	g.closed = true
	return nil
}

func (g *fakeGateway) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}

func (g *fakeGateway) factory() GatewayFactory {
	return func(context.Context, gateway.Info) (gateway.Gateway, error) { return g, nil }
}

func rejected() error {
	return apperrors.New(apperrors.KindBadRequest, "Request rejected.", nil)
}

func writeInput(t *testing.T, doc string) (string, string) {
	t.Helper()
	dir := t.TempDir()
	in := filepath.Join(dir, "game.pgn")
	if err := os.WriteFile(in, []byte(doc), 0644); err != nil {
		t.Fatalf("failed to write input: %v", err)
	}
	return in, filepath.Join(dir, "game_es.pgn")
}

func baseConfig(in, out string, gw *fakeGateway) Config {
	return Config{
		InputPath:   in,
		OutputPath:  out,
		Backend:     gateway.Info{Provider: "libretranslate", URL: "http://localhost:5000"},
		NewGateway:  gw.factory(),
		Concurrency: 1,
		MaxAttempts: 1,
		SourceLang:  "en",
		TargetLang:  "es",
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	return string(data)
}

func TestRunTranslation_InvalidConfig(t *testing.T) {
	in, out := writeInput(t, sicilian)
	gw := &fakeGateway{}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "Same input and output", mutate: func(c *Config) { c.OutputPath = c.InputPath }, wantErr: "input and output files are the same"},
		{name: "Unsupported source language", mutate: func(c *Config) { c.SourceLang = "invalid" }, wantErr: "unsupported source language"},
		{name: "Auto target", mutate: func(c *Config) { c.TargetLang = "auto" }, wantErr: "unsupported target language"},
		{name: "Same source and target", mutate: func(c *Config) { c.SourceLang = "ES"; c.TargetLang = "es" }, wantErr: "source and target languages must be different"},
		{name: "Missing gateway", mutate: func(c *Config) { c.NewGateway = nil }, wantErr: "gateway is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := baseConfig(in, out, gw)
			tt.mutate(&cfg)
			_, err := RunTranslation(context.Background(), cfg)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("RunTranslation() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
	if gw.callCount() != 0 {
		t.Fatalf("invalid configs must not reach the gateway, got %d calls", gw.callCount())
	}
}

func TestRunTranslation_Scenario(t *testing.T) {
	in, out := writeInput(t, sicilian)
	gw := &fakeGateway{}
	rec := metrics.NewRecorder(nil)
	cfg := baseConfig(in, out, gw)
	cfg.Metrics = rec
	cfg.MetricsFile = filepath.Join(filepath.Dir(out), "pgnct.prom")

	var events []translator.Progress
	var mu sync.Mutex
	cfg.OnProgress = func(p translator.Progress) {
		mu.Lock()
		events = append(events, p)
		mu.Unlock()
	}

	res, err := RunTranslation(context.Background(), cfg)
	if err != nil {
		t.Fatalf("RunTranslation failed: %v", err)
	}
	if res.Status != TranslationStatusSuccess {
		t.Fatalf("expected Success, got %s", res.Status)
	}
	want := "1. e4 {Un movimiento de apertura fuerte} c5 {La Defensa Siciliana}"
	if got := readFile(t, out); got != want {
		t.Fatalf("output = %q\nwant     %q", got, want)
	}
	if res.RecoveryLogPath != "" {
		t.Fatalf("no recovery log expected on success, got %s", res.RecoveryLogPath)
	}
	if gw.callCount() != 3 {
		t.Fatalf("expected preflight plus two comments, got %v", gw.calls)
	}
	if !gw.closed {
		t.Fatal("gateway should be closed after the run")
	}
	if len(events) == 0 {
		t.Fatal("expected progress events")
	}
	if !strings.Contains(readFile(t, cfg.MetricsFile), `pgnct_run_status{status="Success"} 1`) {
		t.Fatal("metrics textfile should record the run status")
	}
}

func TestRunTranslation_NoComments(t *testing.T) {
	doc := "[Event \"Casual\"]\n\n1. e4 e5 2. Nf3 Nc6 1/2-1/2\n"
	in, out := writeInput(t, doc)
	gw := &fakeGateway{}

	res, err := RunTranslation(context.Background(), baseConfig(in, out, gw))
	if err != nil {
		t.Fatalf("RunTranslation failed: %v", err)
	}
	if res.Status != TranslationStatusSuccess {
		t.Fatalf("expected Success, got %s", res.Status)
	}
	if got := readFile(t, out); got != doc {
		t.Fatalf("output should be identical to input, got %q", got)
	}
	if gw.callCount() != 0 {
		t.Fatalf("expected zero gateway calls, got %d", gw.callCount())
	}
}

func TestRunTranslation_BlankCommentsOnly(t *testing.T) {
	doc := "1. e4 {} e5 { \n } *"
	in, out := writeInput(t, doc)
	gw := &fakeGateway{}

	res, err := RunTranslation(context.Background(), baseConfig(in, out, gw))
	if err != nil {
		t.Fatalf("RunTranslation failed: %v", err)
	}
	if res.Status != TranslationStatusSuccess || res.BlankComments != 2 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if readFile(t, out) != doc || gw.callCount() != 0 {
		t.Fatal("blank comments must be copied verbatim without gateway calls")
	}
}

func TestRunTranslation_Unterminated(t *testing.T) {
	in, out := writeInput(t, "1. e4 {unterminated")
	gw := &fakeGateway{}

	_, err := RunTranslation(context.Background(), baseConfig(in, out, gw))
	if !errors.Is(err, pgn.ErrMalformedInput) {
		t.Fatalf("expected malformed input error, got %v", err)
	}
	if _, statErr := os.Stat(out); !os.IsNotExist(statErr) {
		t.Fatal("nothing may be written for malformed input")
	}
	if gw.callCount() != 0 {
		t.Fatalf("expected zero gateway calls, got %d", gw.callCount())
	}
}

func TestRunTranslation_PartialSuccess(t *testing.T) {
	in, out := writeInput(t, sicilian)
	gw := &fakeGateway{fail: map[string]error{"The Sicilian Defense": rejected()}}

	res, err := RunTranslation(context.Background(), baseConfig(in, out, gw))
	if err != nil {
		t.Fatalf("RunTranslation failed: %v", err)
	}
	if res.Status != TranslationStatusPartialSuccess {
		t.Fatalf("expected Partial Success, got %s", res.Status)
	}
	want := "1. e4 {Un movimiento de apertura fuerte} c5 {The Sicilian Defense}"
	if got := readFile(t, out); got != want {
		t.Fatalf("output = %q\nwant     %q", got, want)
	}
	if res.FailedComments != 1 || res.Translated != 1 {
		t.Fatalf("unexpected counters: %+v", res)
	}

	log, err := recovery.LoadSessionLog(res.RecoveryLogPath)
	if err != nil {
		t.Fatalf("recovery log not readable: %v", err)
	}
	if err := log.Validate(); err != nil {
		t.Fatalf("recovery log invalid: %v", err)
	}
	if len(log.FailedComments) != 1 || log.FailedComments[0] != 1 {
		t.Fatalf("expected failed comment 1, got %v", log.FailedComments)
	}
	if log.InputPath != "game.pgn" || log.OutputPath != "game_es.pgn" {
		t.Fatalf("paths should be relative to the log: %q, %q", log.InputPath, log.OutputPath)
	}
}

func TestRunTranslation_AllFailed(t *testing.T) {
	in, out := writeInput(t, sicilian)
	gw := &fakeGateway{fail: map[string]error{
		"A strong opening move": rejected(),
		"The Sicilian Defense":  rejected(),
	}}

	res, err := RunTranslation(context.Background(), baseConfig(in, out, gw))
	if err != nil {
		t.Fatalf("RunTranslation failed: %v", err)
	}
	if res.Status != TranslationStatusFailure {
		t.Fatalf("expected Failure, got %s", res.Status)
	}
	if got := readFile(t, out); got != sicilian {
		t.Fatalf("failed comments must keep their text, got %q", got)
	}
	if res.RecoveryLogPath == "" {
		t.Fatal("expected a recovery log")
	}
}

func TestRunTranslation_PreflightAborts(t *testing.T) {
	in, out := writeInput(t, sicilian)
	gw := &fakeGateway{fail: map[string]error{
		"test": apperrors.New(apperrors.KindAuth, "Authentication failed.", nil),
	}}

	_, err := RunTranslation(context.Background(), baseConfig(in, out, gw))
	if err == nil || !strings.Contains(err.Error(), "preflight failed") {
		t.Fatalf("expected preflight failure, got %v", err)
	}
	if gw.callCount() != 1 {
		t.Fatalf("only the preflight request should be sent, got %v", gw.calls)
	}
	if _, statErr := os.Stat(out); !os.IsNotExist(statErr) {
		t.Fatal("no output may be written after a failed preflight")
	}
}

func TestRunTranslation_NoPreflight(t *testing.T) {
	in, out := writeInput(t, sicilian)
	gw := &fakeGateway{}
	cfg := baseConfig(in, out, gw)
	cfg.NoPreflight = true

	if _, err := RunTranslation(context.Background(), cfg); err != nil {
		t.Fatalf("RunTranslation failed: %v", err)
	}
	for _, text := range gw.calls {
		if text == PreflightText {
			t.Fatal("preflight request sent despite NoPreflight")
		}
	}
}

func TestRunTranslation_RejectedMidRunKeepsOriginal(t *testing.T) {
	in, out := writeInput(t, sicilian)
	gw := &fakeGateway{fail: map[string]error{
		"The Sicilian Defense": apperrors.New(apperrors.KindAuth, "Key rejected.", nil),
	}}
	cfg := baseConfig(in, out, gw)
	cfg.NoPreflight = true

	res, err := RunTranslation(context.Background(), cfg)
	if err != nil {
		t.Fatalf("a rejected comment must not abort the run: %v", err)
	}
	if res.Status != TranslationStatusPartialSuccess || res.Translated != 1 || res.FailedComments != 1 {
		t.Fatalf("unexpected result: %+v", res)
	}
	want := "1. e4 {Un movimiento de apertura fuerte} c5 {The Sicilian Defense}"
	if got := readFile(t, out); got != want {
		t.Fatalf("output = %q\nwant     %q", got, want)
	}
	log, err := recovery.LoadSessionLog(res.RecoveryLogPath)
	if err != nil {
		t.Fatalf("recovery log not readable: %v", err)
	}
	if len(log.FailedComments) != 1 || log.FailedComments[0] != 1 {
		t.Fatalf("expected failed comment 1, got %v", log.FailedComments)
	}
}

func TestRunTranslation_RejectedFirstStopsSending(t *testing.T) {
	in, out := writeInput(t, sicilian)
	gw := &fakeGateway{fail: map[string]error{
		"A strong opening move": apperrors.New(apperrors.KindInvalidLanguage, "Language not supported.", nil),
	}}
	cfg := baseConfig(in, out, gw)
	cfg.NoPreflight = true

	res, err := RunTranslation(context.Background(), cfg)
	if err != nil {
		t.Fatalf("RunTranslation failed: %v", err)
	}
	if res.Status != TranslationStatusFailure || res.FailedComments != 2 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if gw.callCount() != 1 {
		t.Fatalf("no request may follow a rejected language pair, got %v", gw.calls)
	}
	if got := readFile(t, out); got != sicilian {
		t.Fatalf("every comment must keep its original text, got %q", got)
	}
	if res.RecoveryLogPath == "" {
		t.Fatal("expected a recovery log")
	}
}

func TestRunTranslation_Overwrite(t *testing.T) {
	in, out := writeInput(t, sicilian)
	if err := os.WriteFile(out, []byte("old"), 0644); err != nil {
		t.Fatal(err)
	}

	t.Run("declined", func(t *testing.T) {
		cfg := baseConfig(in, out, &fakeGateway{})
		cfg.OnConfirmOverwrite = func(string) bool { return false }
		res, err := RunTranslation(context.Background(), cfg)
		if err != nil || res.Status != TranslationStatusSkipped {
			t.Fatalf("expected Skipped, got %v, %v", res.Status, err)
		}
		if readFile(t, out) != "old" {
			t.Fatal("declined overwrite must leave the file untouched")
		}
	})

	t.Run("confirmed", func(t *testing.T) {
		cfg := baseConfig(in, out, &fakeGateway{})
		cfg.OnConfirmOverwrite = func(string) bool { return true }
		res, err := RunTranslation(context.Background(), cfg)
		if err != nil {
			t.Fatal(err)
		}
		if res.OutputPath != out || readFile(t, out) == "old" {
			t.Fatalf("expected %s to be overwritten", out)
		}
	})
}

func TestRunTranslation_Canceled(t *testing.T) {
	in, out := writeInput(t, sicilian)
	ctx, cancel := context.WithCancel(context.Background())
	gw := &fakeGateway{}
	cfg := baseConfig(in, out, gw)
	cfg.NoPreflight = true
	cfg.NewGateway = func(context.Context, gateway.Info) (gateway.Gateway, error) {
		return gateway.Func(func(ctx context.Context, req gateway.Request) (string, error) {
			cancel()
			return "", ctx.Err()
		}), nil
	}

	res, err := RunTranslation(ctx, cfg)
	if err != nil {
		t.Fatalf("cancellation is not a fatal error: %v", err)
	}
	if !res.Canceled || res.Status != TranslationStatusFailure {
		t.Fatalf("unexpected result: %+v", res)
	}
	if got := readFile(t, out); got != sicilian {
		t.Fatalf("untranslated comments keep their text, got %q", got)
	}
	log, err := recovery.LoadSessionLog(res.RecoveryLogPath)
	if err != nil {
		t.Fatal(err)
	}
	if log.StatusReason != recovery.ReasonCanceled {
		t.Fatalf("expected status_reason canceled, got %q", log.StatusReason)
	}
}

func TestConfigNormalize_ConcurrencyClamp(t *testing.T) {
	tests := []struct {
		name        string
		in          int
		want        int
		wantChanged bool
	}{
		{"below_min", 0, MinConcurrency, true},
		{"above_max", MaxConcurrency + 5, MaxConcurrency, true},
		{"within_range", MinConcurrency, MinConcurrency, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{Concurrency: tt.in, MaxAttempts: 1, SourceLang: "en", TargetLang: "es"}
			gotCfg, notes := cfg.Normalize()
			if gotCfg.Concurrency != tt.want {
				t.Fatalf("Normalize() concurrency = %d, want %d", gotCfg.Concurrency, tt.want)
			}
			if tt.wantChanged && len(notes) == 0 {
				t.Fatalf("Normalize() expected notes for clamped value")
			}
			if !tt.wantChanged && len(notes) != 0 {
				t.Fatalf("Normalize() unexpected notes for unchanged value: %v", notes)
			}
		})
	}
}

func TestConfigNormalize_Languages(t *testing.T) {
	cfg := Config{Concurrency: 1, MaxAttempts: 3, QPS: -1, SourceLang: "EN", TargetLang: "zh-CN"}
	got, notes := cfg.Normalize()
	if got.SourceLang != "en" || got.TargetLang != "zh-Hans" || got.QPS != 0 {
		t.Fatalf("unexpected normalized config: %+v", got)
	}
	if len(notes) != 3 {
		t.Fatalf("expected three notes, got %v", notes)
	}
}

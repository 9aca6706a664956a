package pipeline

import (
	"context"
	"fmt"

	"github.com/oukeidos/pgnct/internal/gateway"
	"github.com/oukeidos/pgnct/internal/language"
	"github.com/oukeidos/pgnct/internal/metrics"
	"github.com/oukeidos/pgnct/internal/translator"
)

// GatewayFactory builds the gateway for a backend. Repair passes the backend
// recorded in the session log. A returned gateway that implements io.Closer
// is closed when the run ends.
type GatewayFactory func(ctx context.Context, info gateway.Info) (gateway.Gateway, error)

// Config holds all configuration required for running a translation or repair session.
type Config struct {
	// IO Paths
	InputPath  string
	OutputPath string
	LogPath    string // session log to resume; repair only

	// Backend
	Backend    gateway.Info
	NewGateway GatewayFactory

	// Processing Parameters
	Concurrency int
	MaxAttempts int
	QPS         float64

	// Flags
	NoPreflight bool
	Overwrite   bool // overwrite output without asking
	ForceRepair bool // ignore unusable existing output during repair

	// Languages
	SourceLang string
	TargetLang string

	// Metrics is optional; MetricsFile receives a Prometheus textfile when set.
	Metrics     *metrics.Recorder
	MetricsFile string

	// Callbacks
	// OnProgress is called with translation progress updates.
	OnProgress func(translator.Progress)

	// OnConfirmOverwrite is called when the output file exists.
	// It should return true if the file should be overwritten.
	// If nil, the Overwrite flag decides.
	OnConfirmOverwrite func(path string) bool
}

const (
	MinConcurrency = 1
	MaxConcurrency = translator.MaxConcurrency
	MinAttempts    = 1
	MaxAttempts    = translator.MaxAttempts
)

func ClampConcurrency(value int) (int, bool) {
	return clampInt(value, MinConcurrency, MaxConcurrency)
}

func ClampAttempts(value int) (int, bool) {
	return clampInt(value, MinAttempts, MaxAttempts)
}

func clampInt(value, lo, hi int) (int, bool) {
	if value < lo {
		return lo, true
	}
	if value > hi {
		return hi, true
	}
	return value, false
}

// Normalize applies safe bounds to config values and returns any adjustments.
// Language codes are canonicalized when they parse; Validate reports the rest.
func (c Config) Normalize() (Config, []string) {
	var notes []string
	if clamped, changed := ClampConcurrency(c.Concurrency); changed {
		notes = append(notes, fmt.Sprintf("concurrency clamped from %d to %d (max %d)", c.Concurrency, clamped, MaxConcurrency))
		c.Concurrency = clamped
	}
	if clamped, changed := ClampAttempts(c.MaxAttempts); changed {
		notes = append(notes, fmt.Sprintf("max-attempts clamped from %d to %d (max %d)", c.MaxAttempts, clamped, MaxAttempts))
		c.MaxAttempts = clamped
	}
	if c.QPS < 0 {
		notes = append(notes, fmt.Sprintf("qps %.2f is negative; rate limit disabled", c.QPS))
		c.QPS = 0
	}
	if code, err := language.Normalize(c.SourceLang, true); err == nil && code != c.SourceLang {
		notes = append(notes, fmt.Sprintf("source language %q normalized to %q", c.SourceLang, code))
		c.SourceLang = code
	}
	if code, err := language.Normalize(c.TargetLang, false); err == nil && code != c.TargetLang {
		notes = append(notes, fmt.Sprintf("target language %q normalized to %q", c.TargetLang, code))
		c.TargetLang = code
	}
	return c, notes
}

// Validate checks if the configuration is valid.
func (c Config) Validate() error {
	if c.InputPath == "" {
		return fmt.Errorf("input path is required")
	}
	if c.OutputPath == "" {
		return fmt.Errorf("output path is required")
	}
	if c.Concurrency <= 0 {
		return fmt.Errorf("concurrency must be greater than 0, got %d", c.Concurrency)
	}
	if c.MaxAttempts <= 0 {
		return fmt.Errorf("max attempts must be greater than 0, got %d", c.MaxAttempts)
	}
	if _, err := language.Normalize(c.SourceLang, true); err != nil {
		return fmt.Errorf("unsupported source language: %w", err)
	}
	if _, err := language.Normalize(c.TargetLang, false); err != nil {
		return fmt.Errorf("unsupported target language: %w", err)
	}
	if c.SourceLang == c.TargetLang {
		return fmt.Errorf("source and target languages must be different (%s)", c.SourceLang)
	}
	if c.NewGateway == nil {
		return fmt.Errorf("translation gateway is required")
	}
	return nil
}

// ValidateRepairRuntime checks only runtime config required for repair.
// Languages, backend and limits come from the session log.
func (c Config) ValidateRepairRuntime() error {
	if c.NewGateway == nil {
		return fmt.Errorf("translation gateway is required")
	}
	return nil
}

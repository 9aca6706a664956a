package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/oukeidos/pgnct/internal/config"
	"github.com/oukeidos/pgnct/internal/logger"
	"github.com/oukeidos/pgnct/internal/metrics"
	"github.com/oukeidos/pgnct/internal/pipeline"
	"github.com/oukeidos/pgnct/internal/prompt"
	"github.com/oukeidos/pgnct/internal/translator"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

var runTranslationPipeline = pipeline.RunTranslation

type translateOptions struct {
	backendOptions
	concurrency int
	maxAttempts int
	qps         float64
	noPreflight bool
	yes         bool
	metricsFile string
}

func newTranslateCmd() *cobra.Command {
	opts := translateOptions{}
	cmd := &cobra.Command{
		Use:   "translate <input.pgn> <output.pgn>",
		Short: "Translate the comments of a PGN file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) < 2 {
				_ = cmd.Usage()
				return fmt.Errorf("input and output files are required")
			}
			return runTranslate(cmd, args, &opts)
		},
		SilenceUsage: true,
	}

	cmd.SetUsageTemplate(subcommandUsageTemplate)
	addTranslateFlags(cmd, &opts)
	return cmd
}

func addTranslateFlags(cmd *cobra.Command, opts *translateOptions) {
	addBackendFlags(cmd, &opts.backendOptions)
	cmd.Flags().IntVar(&opts.concurrency, "concurrency", config.DefaultConcurrency, fmt.Sprintf("Number of concurrent requests (1-%d)", pipeline.MaxConcurrency))
	cmd.Flags().IntVar(&opts.maxAttempts, "max-attempts", config.DefaultMaxAttempts, fmt.Sprintf("Attempts per comment for network and rate-limit errors (1-%d)", pipeline.MaxAttempts))
	cmd.Flags().Float64Var(&opts.qps, "qps", 0, "Maximum requests per second (0 = unlimited)")
	cmd.Flags().BoolVar(&opts.noPreflight, "no-preflight", false, "Skip the test request sent before translating")
	cmd.Flags().BoolVarP(&opts.yes, "yes", "y", false, "Overwrite output file without asking")
	cmd.Flags().StringVar(&opts.metricsFile, "metrics-file", "", "Write run metrics to this Prometheus textfile")
}

func runTranslate(cmd *cobra.Command, args []string, opts *translateOptions) error {
	if len(args) < 2 {
		return fmt.Errorf("input and output files are required")
	}
	if len(args) > 2 {
		fmt.Fprintf(os.Stderr, "Warning: expected 2 arguments but got %d. Did you forget quotes around file paths?\n", len(args))
		fmt.Fprintf(os.Stderr, "  Using input: %s\n", args[0])
		fmt.Fprintf(os.Stderr, "  Using output: %s\n", args[1])
	}
	if err := validatePGNPathExtensions(args[0], args[1]); err != nil {
		return err
	}

	s, err := opts.settings(cmd)
	if err != nil {
		return err
	}
	applyRunFlags(cmd, opts, &s)

	startTime := time.Now()
	ctx, stop := signalContext()
	defer stop()

	backend := resolveBackend(ctx, s)
	var recorder *metrics.Recorder
	if s.MetricsFile != "" {
		recorder = metrics.NewRecorder(prometheus.Labels{"provider": backend.Provider})
	}

	cfg := pipeline.Config{
		InputPath:   args[0],
		OutputPath:  args[1],
		Backend:     backend,
		NewGateway:  gatewayFactory(opts.apiKey, s.Timeout),
		Concurrency: s.Concurrency,
		MaxAttempts: s.MaxAttempts,
		QPS:         s.QPS,
		NoPreflight: s.NoPreflight,
		Overwrite:   opts.yes,
		SourceLang:  s.Source,
		TargetLang:  s.Target,
		Metrics:     recorder,
		MetricsFile: s.MetricsFile,
		OnProgress:  logProgress,
		OnConfirmOverwrite: func(path string) bool {
			confirmed, err := prompt.DefaultConfirmer().ConfirmOverwrite(path, opts.yes)
			if err != nil {
				logger.Error("Overwrite confirmation failed", "error", err)
				return false
			}
			return confirmed
		},
	}

	result, err := runTranslationPipeline(ctx, cfg)
	if err != nil {
		return err
	}
	if result.Status != pipeline.TranslationStatusSkipped {
		printStats(cmd.OutOrStdout(), result, time.Since(startTime), backend.Provider)
	}
	return translationStatusError(result)
}

// applyRunFlags overlays the translate-only flags on the loaded settings.
func applyRunFlags(cmd *cobra.Command, opts *translateOptions, s *config.Settings) {
	changed := cmd.Flags().Changed
	if changed("concurrency") {
		s.Concurrency = opts.concurrency
	}
	if changed("max-attempts") {
		s.MaxAttempts = opts.maxAttempts
	}
	if changed("qps") {
		s.QPS = opts.qps
	}
	if opts.noPreflight {
		s.NoPreflight = true
	}
	if changed("metrics-file") {
		s.MetricsFile = opts.metricsFile
	}
}

func logProgress(p translator.Progress) {
	switch p.State {
	case translator.StateCompleted:
		logger.Info("Comment translated", "comment_index", p.Index, "total_comments", p.Total)
	case translator.StateRetrying:
		logger.Warn("Comment retry", "comment_index", p.Index, "attempt", p.Attempt, "error", p.Err)
	case translator.StateCanceled:
		if p.Index < 0 {
			logger.Warn("Translation canceled; remaining comments keep their original text")
		}
	}
}

// translationStatusError maps a finished run to the process result. Partial
// success exits zero with a warning; failure and cancellation do not.
func translationStatusError(result pipeline.TranslationResult) error {
	switch result.Status {
	case pipeline.TranslationStatusSuccess, pipeline.TranslationStatusSkipped:
		return nil
	case pipeline.TranslationStatusPartialSuccess:
		if result.Canceled {
			return fmt.Errorf("translation canceled (recovery log: %s)", result.RecoveryLogPath)
		}
		logger.Warn("Some comments kept their original text", "failed_comments", result.FailedComments, "recovery_log", result.RecoveryLogPath)
		return nil
	case pipeline.TranslationStatusFailure:
		if result.RecoveryLogPath != "" {
			return fmt.Errorf("translation finished with status: %s (recovery log: %s)", result.Status, result.RecoveryLogPath)
		}
		return fmt.Errorf("translation finished with status: %s", result.Status)
	default:
		return fmt.Errorf("translation finished with unknown status: %q", result.Status)
	}
}

func validatePGNPathExtensions(inputPath, outputPath string) error {
	if err := validatePGNExtension("input", inputPath); err != nil {
		return err
	}
	return validatePGNExtension("output", outputPath)
}

func validatePGNExtension(kind, path string) error {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".pgn" {
		return nil
	}
	if ext == "" {
		ext = "(none)"
	}
	return fmt.Errorf("unsupported %s extension %q (expected .pgn)", kind, ext)
}

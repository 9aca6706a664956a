package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/oukeidos/pgnct/internal/apperrors"
	"github.com/oukeidos/pgnct/internal/files"
	"github.com/oukeidos/pgnct/internal/gateway"
	"github.com/oukeidos/pgnct/internal/logger"
	"github.com/oukeidos/pgnct/internal/metrics"
	"github.com/oukeidos/pgnct/internal/pgn"
	"github.com/oukeidos/pgnct/internal/recovery"
	"github.com/oukeidos/pgnct/internal/translator"
)

// PreflightText is sent once before a run to catch bad credentials or an
// unsupported language pair before any comment is touched.
const PreflightText = "test"

// RunTranslation executes the full translation pipeline.
func RunTranslation(ctx context.Context, cfg Config) (TranslationResult, error) {
	started := time.Now()
	var notes []string
	cfg, notes = cfg.Normalize()
	for _, note := range notes {
		logger.Warn("Config normalized", "detail", note)
	}
	if err := cfg.Validate(); err != nil {
		return TranslationResult{}, fmt.Errorf("invalid configuration: %w", err)
	}

	// 1. Validation & Setup
	absIn, err := filepath.Abs(cfg.InputPath)
	if err != nil {
		return TranslationResult{}, fmt.Errorf("failed to resolve input path: %w", err)
	}
	absOut, err := filepath.Abs(cfg.OutputPath)
	if err != nil {
		return TranslationResult{}, fmt.Errorf("failed to resolve output path: %w", err)
	}
	if err := checkDistinct(absIn, absOut); err != nil {
		return TranslationResult{}, err
	}
	if err := files.RejectSymlinkPath(cfg.OutputPath); err != nil {
		return TranslationResult{}, err
	}

	shouldOverwrite := cfg.Overwrite
	outputExists := false
	if _, err := os.Stat(cfg.OutputPath); err == nil {
		outputExists = true
		if cfg.OnConfirmOverwrite != nil {
			shouldOverwrite = cfg.OnConfirmOverwrite(cfg.OutputPath)
		}
		if !shouldOverwrite {
			logger.Info("Output file exists. Aborted by user.", "path", cfg.OutputPath)
			return TranslationResult{Status: TranslationStatusSkipped}, nil
		}
		logger.Info("Overwriting output file", "path", cfg.OutputPath)
	}

	// 2. Load and locate
	doc, err := pgn.Load(cfg.InputPath)
	if err != nil {
		return TranslationResult{}, err
	}
	comments, err := pgn.Locate(doc)
	if err != nil {
		return TranslationResult{}, fmt.Errorf("cannot translate %s: %w", cfg.InputPath, err)
	}
	blank := countBlank(comments)
	logger.Info("Located comments", "comments", len(comments), "blank", blank, "path", cfg.InputPath)

	effectiveOutputPath := cfg.OutputPath
	if !(outputExists && shouldOverwrite) {
		safePath, changed, err := files.SafePath(cfg.OutputPath)
		if err != nil {
			return TranslationResult{}, fmt.Errorf("failed to resolve output path: %w", err)
		}
		if changed {
			logger.Warn("Output path adjusted to avoid overwrite", "original", cfg.OutputPath, "effective", safePath)
			effectiveOutputPath = safePath
		}
	}

	if len(comments)-blank == 0 {
		if err := pgn.Save(effectiveOutputPath, doc); err != nil {
			return TranslationResult{}, fmt.Errorf("failed to save output file: %w", err)
		}
		logger.Info("No comments to translate; copied input", "path", effectiveOutputPath)
		result := TranslationResult{
			Status:        TranslationStatusSuccess,
			OutputPath:    effectiveOutputPath,
			TotalComments: len(comments),
			BlankComments: blank,
			Translated:    len(comments),
			Duration:      time.Since(started),
		}
		recordRun(cfg, result)
		return result, nil
	}

	// 3. Gateway, preflight and translator
	gw, closeGateway, err := openGateway(ctx, cfg.NewGateway, cfg.Backend)
	if err != nil {
		return TranslationResult{}, err
	}
	defer closeGateway()

	if !cfg.NoPreflight {
		if err := Preflight(ctx, gw, cfg.SourceLang, cfg.TargetLang); err != nil {
			return TranslationResult{}, err
		}
	}

	tr, err := newTranslator(gw, cfg.Concurrency, cfg.MaxAttempts, cfg.QPS, cfg.SourceLang, cfg.TargetLang, cfg.Metrics)
	if err != nil {
		return TranslationResult{}, fmt.Errorf("failed to initialize translator: %w", err)
	}

	// 4. Translate
	logger.Info("Starting translation",
		"provider", cfg.Backend.Provider,
		"source", cfg.SourceLang,
		"target", cfg.TargetLang,
		"concurrency", cfg.Concurrency,
	)
	outcomes, err := tr.TranslateComments(ctx, comments, cfg.OnProgress)
	if err != nil {
		return TranslationResult{}, fmt.Errorf("translation error: %w", err)
	}

	// 5. Handle Results
	texts := make([]string, len(outcomes))
	var failed []int
	translated := 0
	for i, o := range outcomes {
		texts[i] = o.Text
		if o.Failed() {
			failed = append(failed, i)
		} else if o.Translated {
			translated++
		}
	}
	status := translationStatusFromRecovery(recovery.CalculateStatus(len(failed), len(comments)-blank))
	canceled := ctx.Err() != nil
	result := TranslationResult{
		Status:         status,
		TotalComments:  len(comments),
		BlankComments:  blank,
		Translated:     translated,
		FailedComments: len(failed),
		Canceled:       canceled,
	}
	logger.Info("Translation finished", "status", status, "translated", translated, "failed_comments", len(failed))

	out, err := pgn.Reassemble(doc, comments, texts)
	if err != nil {
		return result, fmt.Errorf("failed to reassemble output: %w", err)
	}
	if err := pgn.Save(effectiveOutputPath, out); err != nil {
		return result, fmt.Errorf("failed to save output file: %w", err)
	}
	result.OutputPath = effectiveOutputPath
	logger.Info("Saved results", "path", effectiveOutputPath)

	if len(failed) > 0 {
		logPath, err := writeRecoveryLog(cfg, absIn, effectiveOutputPath, comments, failed, status, canceled)
		if err != nil {
			logger.Error("Failed to save recovery log", "error", err)
		} else {
			result.RecoveryLogPath = logPath
			if status == TranslationStatusPartialSuccess {
				logger.Warn("Partial success - recovery log saved", "path", logPath)
			} else {
				logger.Error("Translation failed - recovery log saved", "path", logPath)
			}
		}
	}

	result.Duration = time.Since(started)
	recordRun(cfg, result)
	return result, nil
}

func writeRecoveryLog(cfg Config, absIn, outputPath string, comments []pgn.Comment, failed []int, status TranslationStatus, canceled bool) (string, error) {
	inputHash, err := recovery.HashFileHex(absIn)
	if err != nil {
		return "", fmt.Errorf("failed to compute input hash for recovery log: %w", err)
	}
	logPath := recovery.GenerateRecoveryPath(outputPath)

	relativeInputPath, err := recovery.ToRelativeInputPath(logPath, absIn)
	if err != nil {
		return "", fmt.Errorf("failed to convert input path to relative: %w", err)
	}
	relativeOutputPath, err := recovery.ToRelativeOutputPath(logPath, outputPath)
	if err != nil {
		return "", fmt.Errorf("failed to convert output path to relative: %w", err)
	}

	session := &recovery.SessionLog{
		LogVersion:       recovery.CurrentLogVersion,
		InputPath:        relativeInputPath,
		OutputPath:       relativeOutputPath,
		InputHash:        inputHash,
		CommentsChecksum: pgn.CommentsChecksumHex(comments),
		Provider:         cfg.Backend.Provider,
		APIURL:           cfg.Backend.URL,
		Model:            cfg.Backend.Model,
		SourceLang:       cfg.SourceLang,
		TargetLang:       cfg.TargetLang,
		Concurrency:      cfg.Concurrency,
		MaxAttempts:      cfg.MaxAttempts,
		FailedComments:   failed,
		TotalComments:    len(comments),
		Status:           string(status),
	}
	if canceled {
		session.StatusReason = recovery.ReasonCanceled
	}
	return recovery.SaveSessionLog(logPath, session)
}

// Preflight translates PreflightText once. Failures that would sink every
// comment (credentials, language pair, unreachable server) abort the run;
// anything else is logged and the run proceeds.
func Preflight(ctx context.Context, gw gateway.Gateway, source, target string) error {
	_, err := gw.Translate(ctx, gateway.Request{Text: PreflightText, Source: source, Target: target})
	if err == nil {
		logger.Debug("Preflight succeeded")
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	kind, _ := apperrors.KindOf(err)
	switch kind {
	case apperrors.KindAuth, apperrors.KindInvalidLanguage, apperrors.KindNetwork:
		return fmt.Errorf("preflight failed: %w", err)
	}
	logger.Warn("Preflight failed; continuing", "error", apperrors.PublicMessage(err))
	return nil
}

func openGateway(ctx context.Context, factory GatewayFactory, info gateway.Info) (gateway.Gateway, func(), error) {
	gw, err := factory(ctx, info)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create %s client: %w", providerName(info), err)
	}
	closeFn := func() {}
	if c, ok := gw.(io.Closer); ok {
		closeFn = func() {
			if err := c.Close(); err != nil {
				logger.Warn("Failed to close gateway client", "error", err)
			}
		}
	}
	return gw, closeFn, nil
}

func newTranslator(gw gateway.Gateway, concurrency, maxAttempts int, qps float64, source, target string, rec *metrics.Recorder) (*translator.Translator, error) {
	tr, err := translator.NewTranslator(gw, concurrency, maxAttempts, source, target)
	if err != nil {
		return nil, err
	}
	tr.SetQPS(qps)
	if rec != nil {
		tr.SetRecorder(rec)
	}
	return tr, nil
}

func recordRun(cfg Config, result TranslationResult) {
	if cfg.Metrics == nil {
		return
	}
	cfg.Metrics.ObserveRun(metrics.RunSummary{
		Status:     string(result.Status),
		Total:      result.TotalComments,
		Translated: result.Translated,
		Failed:     result.FailedComments,
		Blank:      result.BlankComments,
		Duration:   result.Duration,
		FinishedAt: time.Now(),
	})
	if cfg.MetricsFile == "" {
		return
	}
	if err := cfg.Metrics.WriteTextfile(cfg.MetricsFile); err != nil {
		logger.Warn("Failed to write metrics file", "path", cfg.MetricsFile, "error", err)
		return
	}
	logger.Debug("Metrics written", "path", cfg.MetricsFile)
}

func checkDistinct(absIn, absOut string) error {
	if absIn == absOut {
		return fmt.Errorf("input and output files are the same (%s)", absIn)
	}
	inInfo, err := os.Stat(absIn)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to stat input path: %w", err)
	}
	outInfo, err := os.Stat(absOut)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to stat output path: %w", err)
	}
	if os.SameFile(inInfo, outInfo) {
		return fmt.Errorf("input and output files are the same (%s)", absIn)
	}
	return nil
}

func countBlank(comments []pgn.Comment) int {
	n := 0
	for _, c := range comments {
		if c.Blank() {
			n++
		}
	}
	return n
}

func providerName(info gateway.Info) string {
	if info.Provider == "" {
		return "translation"
	}
	return info.Provider
}

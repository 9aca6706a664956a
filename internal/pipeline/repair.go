package pipeline

import (
	"context"
	"fmt"
	"os"

	"github.com/oukeidos/pgnct/internal/files"
	"github.com/oukeidos/pgnct/internal/gateway"
	"github.com/oukeidos/pgnct/internal/logger"
	"github.com/oukeidos/pgnct/internal/pgn"
	"github.com/oukeidos/pgnct/internal/recovery"
)

// RepairResult contains the result of a repair operation.
type RepairResult struct {
	Status     TranslationStatus
	Backend    gateway.Info
	OutputPath string
	Retried    int
	Failed     int
}

// RunRepair executes the session repair pipeline.
func RunRepair(ctx context.Context, cfg Config) (RepairResult, error) {
	// 1. Validation & Load Log
	if cfg.LogPath == "" {
		return RepairResult{}, fmt.Errorf("log file path is required for repair")
	}

	logFile, origHash, err := recovery.LoadSessionLogWithHash(cfg.LogPath)
	if err != nil {
		return RepairResult{}, fmt.Errorf("failed to load recovery log: %w", err)
	}
	if err := logFile.Validate(); err != nil {
		return RepairResult{}, fmt.Errorf("invalid recovery log: %w", err)
	}
	runtimeLog, err := resolveRuntimeSessionLog(cfg.LogPath, logFile)
	if err != nil {
		return RepairResult{}, err
	}
	resolvedOutputPath := recovery.ResolveOutputPath(cfg.LogPath, logFile.OutputPath)

	if err := cfg.ValidateRepairRuntime(); err != nil {
		return RepairResult{}, fmt.Errorf("invalid configuration: %w", err)
	}
	if err := files.RejectSymlinkPath(resolvedOutputPath); err != nil {
		return RepairResult{}, err
	}
	if err := files.RejectSymlinkPath(cfg.LogPath); err != nil {
		return RepairResult{}, err
	}

	inputHash, err := recovery.HashFileHex(runtimeLog.InputPath)
	if err != nil {
		return RepairResult{}, fmt.Errorf("failed to compute input hash: %w", err)
	}
	if inputHash != logFile.InputHash {
		return RepairResult{}, fmt.Errorf("input file content mismatch: expected %s, got %s", logFile.InputHash, inputHash)
	}

	// 2. Setup gateway & translator from the logged backend
	backend := gateway.Info{Provider: logFile.Provider, URL: logFile.APIURL, Model: logFile.Model}
	gw, closeGateway, err := openGateway(ctx, cfg.NewGateway, backend)
	if err != nil {
		return RepairResult{}, err
	}
	defer closeGateway()

	tr, err := newTranslator(gw, runtimeLog.Concurrency, runtimeLog.MaxAttempts, cfg.QPS, runtimeLog.SourceLang, runtimeLog.TargetLang, cfg.Metrics)
	if err != nil {
		return RepairResult{}, fmt.Errorf("failed to initialize translator: %w", err)
	}

	// 3. Repair
	logger.Info("Starting repair", "provider", backend.Provider, "failed_comments", len(runtimeLog.FailedComments))
	repaired, err := recovery.Repair(ctx, tr, &runtimeLog, resolvedOutputPath, cfg.ForceRepair, cfg.OnProgress)
	if err != nil {
		return RepairResult{}, fmt.Errorf("repair failed: %w", err)
	}

	out, err := pgn.Reassemble(repaired.Document, repaired.Comments, repaired.Texts)
	if err != nil {
		return RepairResult{}, fmt.Errorf("failed to reassemble output: %w", err)
	}
	if err := pgn.Save(resolvedOutputPath, out); err != nil {
		return RepairResult{}, fmt.Errorf("failed to save output file: %w", err)
	}
	logger.Info("Saved results", "path", resolvedOutputPath)

	result := RepairResult{
		Backend:    backend,
		OutputPath: resolvedOutputPath,
		Retried:    repaired.Retried,
		Failed:     len(repaired.Failed),
	}

	// 4. Handle Results
	if len(repaired.Failed) == 0 {
		result.Status = TranslationStatusSuccess
		logger.Info("Repair finished", "status", result.Status)

		// Clean up log file on success
		if currentHash, err := recovery.HashFile(cfg.LogPath); err != nil {
			logger.Warn("Failed to read session log for verification", "path", cfg.LogPath, "error", err)
		} else if currentHash != origHash {
			logger.Warn("Session log content changed; skipping delete", "path", cfg.LogPath)
		} else if err := os.Remove(cfg.LogPath); err != nil {
			logger.Warn("Failed to remove session log after success", "path", cfg.LogPath, "error", err)
		}
		return result, nil
	}

	status := recovery.CalculateStatus(len(repaired.Failed), repaired.Translatable)
	result.Status = translationStatusFromRecovery(status)
	logger.Info("Repair finished", "status", status)

	logFile.FailedComments = repaired.Failed
	logFile.Status = status
	logFile.StatusReason = ""
	if ctx.Err() != nil {
		logFile.StatusReason = recovery.ReasonCanceled
	}
	if err := recovery.UpdateSessionLog(cfg.LogPath, logFile); err != nil {
		logger.Error("Failed to update recovery log", "error", err)
	} else {
		logger.Warn("Partial repair - session log updated", "path", cfg.LogPath)
	}
	return result, fmt.Errorf("repair finished with %d failed comments", len(repaired.Failed))
}

func resolveRuntimeSessionLog(logPath string, logFile *recovery.SessionLog) (recovery.SessionLog, error) {
	runtimeLog := *logFile
	resolvedInputPath := recovery.ResolveInputPath(logPath, logFile.InputPath)
	if _, err := os.Stat(resolvedInputPath); err != nil {
		return recovery.SessionLog{}, fmt.Errorf("invalid recovery log: input file not found: %s", logFile.InputPath)
	}
	runtimeLog.InputPath = resolvedInputPath
	return runtimeLog, nil
}

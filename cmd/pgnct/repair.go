package main

import (
	"fmt"
	"time"

	"github.com/oukeidos/pgnct/internal/config"
	"github.com/oukeidos/pgnct/internal/logger"
	"github.com/oukeidos/pgnct/internal/pipeline"
	"github.com/spf13/cobra"
)

var runRepairPipeline = pipeline.RunRepair

type repairOptions struct {
	configPath  string
	apiKey      string
	forceRepair bool
	qps         float64
	timeout     int
	debug       bool
	logFile     string
}

func newRepairCmd() *cobra.Command {
	opts := repairOptions{}
	cmd := &cobra.Command{
		Use:   "repair <recovery_log.json>",
		Short: "Retry the failed comments of a previous run",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) < 1 {
				_ = cmd.Usage()
				return fmt.Errorf("recovery_log.json is required")
			}
			return runRepair(cmd, args, &opts)
		},
		SilenceUsage: true,
	}

	cmd.SetUsageTemplate(subcommandUsageTemplate)
	cmd.Flags().StringVar(&opts.configPath, "config", "", "Path to a YAML config file")
	cmd.Flags().StringVar(&opts.apiKey, "api-key", "", "API key (overrides keychain and environment)")
	cmd.Flags().BoolVar(&opts.forceRepair, "force-repair", false, "Ignore existing output and re-translate all comments")
	cmd.Flags().Float64Var(&opts.qps, "qps", 0, "Maximum requests per second (0 = unlimited)")
	cmd.Flags().IntVar(&opts.timeout, "timeout", 0, "Request timeout in seconds (default: 30)")
	cmd.Flags().BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	cmd.Flags().StringVar(&opts.logFile, "log-file", "", "Path to save machine-readable JSONL logs")
	return cmd
}

func runRepair(cmd *cobra.Command, args []string, opts *repairOptions) error {
	startTime := time.Now()
	logPath := args[0]

	s, _, err := loadSettings(config.LoadOptions{ConfigPath: opts.configPath})
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if opts.timeout > 0 {
		s.Timeout = time.Duration(opts.timeout) * time.Second
	}
	if opts.qps > 0 {
		s.QPS = opts.qps
	}
	if opts.debug {
		s.LogLevel = "debug"
	}
	if opts.logFile != "" {
		s.LogFile = opts.logFile
	}
	if err := initLogging(s); err != nil {
		return err
	}

	cfg := pipeline.Config{
		LogPath:     logPath,
		NewGateway:  gatewayFactory(opts.apiKey, s.Timeout),
		QPS:         s.QPS,
		ForceRepair: opts.forceRepair,
		OnProgress:  logProgress,
	}

	ctx, stop := signalContext()
	defer stop()
	result, err := runRepairPipeline(ctx, cfg)

	if err != nil {
		if ctx.Err() != nil {
			logger.Warn("Repair canceled", "error", err)
		}
		if shouldPrintRepairStats(result) {
			printRepairStats(cmd, result, time.Since(startTime))
		}
		return err
	}
	printRepairStats(cmd, result, time.Since(startTime))
	return nil
}

// shouldPrintRepairStats reports whether the repair got far enough to
// contact the gateway.
func shouldPrintRepairStats(result pipeline.RepairResult) bool {
	return result.Backend.Provider != "" || result.Retried > 0
}

func printRepairStats(cmd *cobra.Command, result pipeline.RepairResult, duration time.Duration) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "\n--- Repair Stats ---")
	fmt.Fprintf(out, "Time: %s\n", duration.Round(time.Millisecond))
	fmt.Fprintf(out, "Provider: %s\n", result.Backend.Provider)
	fmt.Fprintf(out, "Comments: retried=%d failed=%d\n", result.Retried, result.Failed)
	if result.Status != "" {
		fmt.Fprintf(out, "Status: %s\n", result.Status)
	}
}

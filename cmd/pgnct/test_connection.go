package main

import (
	"fmt"
	"time"

	"github.com/oukeidos/pgnct/internal/pipeline"
	"github.com/spf13/cobra"
)

var testConnection = pipeline.TestConnection

func newTestConnectionCmd() *cobra.Command {
	opts := backendOptions{}
	cmd := &cobra.Command{
		Use:   "test-connection",
		Short: "Check that the translation service answers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTestConnection(cmd, &opts)
		},
		SilenceUsage: true,
	}
	cmd.SetUsageTemplate(subcommandUsageTemplate)
	addBackendFlags(cmd, &opts)
	return cmd
}

func runTestConnection(cmd *cobra.Command, opts *backendOptions) error {
	s, err := opts.settings(cmd)
	if err != nil {
		return err
	}
	ctx, stop := signalContext()
	defer stop()

	backend := resolveBackend(ctx, s)
	res, err := testConnection(ctx, gatewayFactory(opts.apiKey, s.Timeout), backend, s.Source, s.Target)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	target := backend.URL
	if target == "" {
		target = backend.Model
	}
	fmt.Fprintf(out, "Connection OK: %s (%s)\n", backend.Provider, target)
	fmt.Fprintf(out, "  %s -> %s: %q -> %q in %s\n", res.Source, res.Target, pipeline.PreflightText, res.Translation, res.Elapsed.Round(time.Millisecond))
	return nil
}

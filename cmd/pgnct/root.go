package main

import (
	"fmt"
	"os"

	"github.com/oukeidos/pgnct/internal/cleanup"
	"github.com/oukeidos/pgnct/internal/version"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

func execute() {
	cmd := newRootCmd()
	err := cmd.Execute()
	if cleanupErr := cleanup.RunAll(); cleanupErr != nil {
		fmt.Fprintln(os.Stderr, cleanupErr)
		if err == nil {
			err = cleanupErr
		}
	}
	if err != nil {
		os.Exit(1)
	}
}

// rootOptions holds the flags of the bare "pgnct <in> <out>" form, which
// behaves like "pgnct translate".
type rootOptions struct {
	translateOptions
	testConnection bool
}

func newRootCmd() *cobra.Command {
	opts := rootOptions{}

	cmd := &cobra.Command{
		Use:     "pgnct",
		Short:   "PGN Comment Translator",
		Example: rootExample,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRoot(cmd, args, &opts)
		},
		Args:         cobra.ArbitraryArgs,
		SilenceUsage: true,
	}

	cmd.Version = version.Info()
	cmd.SetVersionTemplate("{{.Version}}\n")
	cmd.SetUsageTemplate(rootUsageTemplate)

	addTranslateFlags(cmd, &opts.translateOptions)
	cmd.Flags().BoolVar(&opts.testConnection, "test-connection", false, "Send a test request to the translation service and exit")

	cmd.AddCommand(
		newAboutCmd(),
		newTranslateCmd(),
		newTestConnectionCmd(),
		newRepairCmd(),
		newListCmd(),
		newEnvCmd(),
	)

	cmd.InitDefaultCompletionCmd()
	for _, sub := range cmd.Commands() {
		if sub.Name() == "completion" {
			sub.Short = "Generate shell completion scripts for pgnct"
			sub.SetUsageTemplate(groupUsageTemplate)
			break
		}
	}

	return cmd
}

func runRoot(cmd *cobra.Command, args []string, opts *rootOptions) error {
	switch {
	case opts.testConnection && len(args) > 0:
		return fmt.Errorf("--test-connection takes no file arguments")
	case opts.testConnection:
		return runTestConnection(cmd, &opts.backendOptions)
	case len(args) == 0 && hasAnyFlagSet(cmd):
		_ = cmd.Usage()
		return fmt.Errorf("input and output files are required")
	case len(args) == 0:
		return cmd.Help()
	case isSubcommand(cmd, args[0]):
		_ = cmd.Usage()
		return fmt.Errorf("unknown command %q for %q", args[0], cmd.CommandPath())
	}
	return runTranslate(cmd, args, &opts.translateOptions)
}

func hasAnyFlagSet(cmd *cobra.Command) bool {
	changed := false
	cmd.Flags().Visit(func(_ *pflag.Flag) {
		changed = true
	})
	return changed
}

func isSubcommand(cmd *cobra.Command, name string) bool {
	for _, c := range cmd.Commands() {
		if c.Name() == name {
			return true
		}
	}
	return false
}

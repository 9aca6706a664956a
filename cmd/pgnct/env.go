package main

import (
	"fmt"

	"github.com/oukeidos/pgnct/internal/auth"
	"github.com/spf13/cobra"
)

type envOptions struct {
	service string
}

func newEnvCmd() *cobra.Command {
	opts := envOptions{}
	cmd := &cobra.Command{
		Use:   "env",
		Short: "Manage API keys in OS Keychain",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEnvStatus(cmd, &opts)
		},
	}

	cmd.SetUsageTemplate(groupUsageTemplate)
	cmd.PersistentFlags().StringVar(&opts.service, "service", "", "Service to manage: libretranslate or gemini (status: all)")

	cmd.AddCommand(
		newEnvSubCmd("setup", "Save API key to keychain (prompt only)", func(cmd *cobra.Command) error { return runEnvSetup(cmd, &opts) }),
		newEnvSubCmd("delete", "Delete key from keychain", func(cmd *cobra.Command) error { return runEnvDelete(cmd, &opts) }),
		newEnvSubCmd("status", "Show key status (default if no action given)", func(cmd *cobra.Command) error { return runEnvStatus(cmd, &opts) }),
	)
	return cmd
}

func newEnvSubCmd(use, short string, run func(*cobra.Command) error) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd)
		},
	}
	cmd.SetUsageTemplate(subcommandUsageTemplate)
	return cmd
}

// selectedService returns the --service value, defaulting to LibreTranslate
// for commands that act on a single key.
func (o *envOptions) selectedService() (auth.Service, error) {
	if o.service == "" {
		return auth.LibreTranslate, nil
	}
	return auth.ParseService(o.service)
}

func runEnvSetup(cmd *cobra.Command, opts *envOptions) error {
	svc, err := opts.selectedService()
	if err != nil {
		return err
	}
	key, err := promptForKey(cmd.ErrOrStderr(), fmt.Sprintf("%s API Key: ", serviceLabel(svc)))
	if err != nil {
		return fmt.Errorf("error reading key: %w", err)
	}
	if key == "" {
		return fmt.Errorf("API key is required for setup")
	}
	if err := saveKey(svc, key); err != nil {
		return fmt.Errorf("error saving key: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Saved %s API key to keychain.\n", svc)
	return nil
}

func runEnvDelete(cmd *cobra.Command, opts *envOptions) error {
	svc, err := opts.selectedService()
	if err != nil {
		return err
	}
	if err := deleteKey(svc); err != nil {
		return fmt.Errorf("error deleting key: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s API key from keychain.\n", svc)
	return nil
}

func runEnvStatus(cmd *cobra.Command, opts *envOptions) error {
	svcs := auth.Services()
	if opts.service != "" {
		svc, err := auth.ParseService(opts.service)
		if err != nil {
			return err
		}
		svcs = []auth.Service{svc}
	}

	out := cmd.OutOrStdout()
	for _, svc := range svcs {
		switch {
		case getStatus(svc):
			fmt.Fprintf(out, "%s API Key: Found (source=Keychain)\n", svc)
		case envKeySet(svc):
			fmt.Fprintf(out, "%s API Key: Found (source=Environment Variable %s)\n", svc, svc.EnvVar())
		default:
			fmt.Fprintf(out, "%s API Key: Not Found (keychain empty, %s not set)\n", svc, svc.EnvVar())
		}
	}
	return nil
}

func envKeySet(svc auth.Service) bool {
	key, ok := getEnvKey(svc)
	return ok && key != ""
}

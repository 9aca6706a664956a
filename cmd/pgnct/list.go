package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/oukeidos/pgnct/internal/httpclient"
	"github.com/oukeidos/pgnct/internal/language"
	"github.com/oukeidos/pgnct/internal/libretranslate"
	"github.com/oukeidos/pgnct/internal/metadata"
	"github.com/spf13/cobra"
)

type listOptions struct {
	remote bool
	models bool
	apiURL string
}

func newListCmd() *cobra.Command {
	opts := listOptions{}
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List supported languages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.models {
				fmt.Fprintln(cmd.OutOrStdout(), "Gemini Models:")
				for _, m := range metadata.GeminiModels {
					marker := ""
					if m.ID == metadata.DefaultGeminiModel {
						marker = " (default)"
					}
					fmt.Fprintf(cmd.OutOrStdout(), "  %-35s [%s]%s\n", m.Label, m.ID, marker)
				}
				return nil
			}
			if opts.remote {
				return runListRemote(cmd, &opts)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Supported Languages:")
			for _, l := range language.GetSupportedLanguages() {
				fmt.Fprintf(cmd.OutOrStdout(), "  %-35s [%s]\n", l.Name, l.ID)
			}
			return nil
		},
		SilenceUsage: true,
	}
	cmd.SetUsageTemplate(subcommandUsageTemplate)
	cmd.Flags().BoolVar(&opts.remote, "remote", false, "Ask the LibreTranslate server for its languages")
	cmd.Flags().BoolVar(&opts.models, "models", false, "List the known Gemini models")
	cmd.Flags().StringVar(&opts.apiURL, "api-url", "", "LibreTranslate base URL for --remote (default: auto-detect)")
	cmd.MarkFlagsMutuallyExclusive("models", "remote")
	return cmd
}

func runListRemote(cmd *cobra.Command, opts *listOptions) error {
	ctx, stop := signalContext()
	defer stop()

	url := opts.apiURL
	if url == "" {
		url = detectURL(ctx)
	}
	langs, err := libretranslate.NewClient(url, "", httpclient.DefaultTimeout).Languages(ctx)
	if err != nil {
		return fmt.Errorf("failed to list languages from %s: %w", url, err)
	}
	sort.Slice(langs, func(i, j int) bool { return langs[i].Code < langs[j].Code })

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Languages at %s:\n", url)
	for _, l := range langs {
		fmt.Fprintf(out, "  %-35s [%s]", l.Name, l.Code)
		if len(l.Targets) > 0 {
			fmt.Fprintf(out, " -> %s", strings.Join(l.Targets, ", "))
		}
		fmt.Fprintln(out)
	}
	return nil
}

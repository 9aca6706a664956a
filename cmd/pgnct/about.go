package main

import (
	"fmt"

	"github.com/oukeidos/pgnct/internal/config"
	"github.com/oukeidos/pgnct/internal/libretranslate"
	"github.com/oukeidos/pgnct/internal/version"
	"github.com/spf13/cobra"
)

func newAboutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "about",
		Short: "Show a short description and link",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "pgnct %s - PGN Comment Translator\n", version.Version)
			fmt.Fprintln(out, "Translates {brace} comments in chess game records and leaves the moves untouched.")
			fmt.Fprintf(out, "Translation: LibreTranslate (local %s or %s) or Google Gemini\n", libretranslate.OfflineURL, libretranslate.WebURL)
			if path := config.DefaultPath(); path != "" {
				fmt.Fprintf(out, "Config file: %s\n", path)
			}
			fmt.Fprintln(out, "https://github.com/oukeidos/pgnct")
		},
	}
	cmd.SetUsageTemplate(subcommandUsageTemplate)
	return cmd
}

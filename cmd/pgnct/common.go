package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/oukeidos/pgnct/internal/auth"
	"github.com/oukeidos/pgnct/internal/language"
	"github.com/oukeidos/pgnct/internal/libretranslate"
	"github.com/oukeidos/pgnct/internal/logger"
	"github.com/oukeidos/pgnct/internal/pipeline"
	"golang.org/x/term"
)

var (
	isTerminal   = term.IsTerminal
	getKey       = auth.GetKey
	getEnvKey    = auth.GetEnvKey
	getStatus    = auth.GetStatus
	saveKey      = auth.SaveKey
	deleteKey    = auth.DeleteKey
	promptForKey = auth.PromptForAPIKey
	detectURL    = libretranslate.DetectURL
)

// resolveAPIKey finds the key for svc: the --api-key flag, the keychain,
// the environment and finally an interactive prompt. When required is
// false a missing key is not an error.
func resolveAPIKey(svc auth.Service, flagKey string, required bool) (string, auth.Source, error) {
	if key := strings.TrimSpace(flagKey); key != "" {
		return key, auth.SourceFlag, nil
	}
	if key, source := getKey(svc, true); key != "" {
		return key, source, nil
	}
	if !required {
		return "", auth.SourceNone, nil
	}

	if isTerminal(int(os.Stdin.Fd())) {
		key, err := promptForKey(os.Stderr, fmt.Sprintf("%s API Key: ", serviceLabel(svc)))
		if err != nil {
			return "", auth.SourceNone, fmt.Errorf("error reading API key: %w", err)
		}
		if key = strings.TrimSpace(key); key != "" {
			return key, auth.SourcePrompt, nil
		}
		return "", auth.SourceNone, fmt.Errorf("%s API key is required", serviceLabel(svc))
	}
	return "", auth.SourceNone, fmt.Errorf("%s API key is required; use --api-key, 'pgnct env setup --service %s' or %s", serviceLabel(svc), svc, svc.EnvVar())
}

func serviceLabel(svc auth.Service) string {
	switch svc {
	case auth.Gemini:
		return "Gemini"
	case auth.LibreTranslate:
		return "LibreTranslate"
	default:
		return string(svc)
	}
}

// resolveLanguageCode accepts a code in any form language.Normalize takes,
// or a language name such as "Spanish".
func resolveLanguageCode(input string, allowAuto bool) (string, error) {
	code, err := language.Normalize(input, allowAuto)
	if err == nil {
		return code, nil
	}
	needle := strings.TrimSpace(input)
	for _, entry := range language.GetSupportedLanguages() {
		if strings.EqualFold(entry.Name, needle) {
			return entry.Code, nil
		}
	}
	return "", err
}

func signalContext() (context.Context, func()) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			logger.Warn("Cancellation requested")
			cancel()
		case <-ctx.Done():
		}
	}()
	stop := func() {
		signal.Stop(sigCh)
		cancel()
	}
	return ctx, stop
}

func printStats(w io.Writer, result pipeline.TranslationResult, duration time.Duration, provider string) {
	fmt.Fprintln(w, "\n--- Execution Stats ---")
	fmt.Fprintf(w, "Time: %s\n", duration.Round(time.Millisecond))
	fmt.Fprintf(w, "Provider: %s\n", provider)
	fmt.Fprintf(w, "Comments: total=%d translated=%d failed=%d blank=%d\n",
		result.TotalComments, result.Translated, result.FailedComments, result.BlankComments)
}

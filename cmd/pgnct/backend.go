package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/oukeidos/pgnct/internal/auth"
	"github.com/oukeidos/pgnct/internal/cleanup"
	"github.com/oukeidos/pgnct/internal/config"
	"github.com/oukeidos/pgnct/internal/files"
	"github.com/oukeidos/pgnct/internal/gateway"
	"github.com/oukeidos/pgnct/internal/gemini"
	"github.com/oukeidos/pgnct/internal/libretranslate"
	"github.com/oukeidos/pgnct/internal/logger"
	"github.com/oukeidos/pgnct/internal/metadata"
	"github.com/oukeidos/pgnct/internal/pipeline"
	"github.com/spf13/cobra"
)

var loadSettings = config.Load

// backendOptions are the flags shared by every command that talks to a
// translation service.
type backendOptions struct {
	configPath string
	provider   string
	apiURL     string
	apiKey     string
	model      string
	source     string
	target     string
	offline    bool
	web        bool
	timeout    int
	debug      bool
	logLevel   string
	logFile    string
}

func addBackendFlags(cmd *cobra.Command, o *backendOptions) {
	f := cmd.Flags()
	f.StringVar(&o.configPath, "config", "", "Path to a YAML config file (default: $XDG_CONFIG_HOME/pgnct/config.yaml)")
	f.StringVar(&o.provider, "provider", "", "Translation provider: libretranslate or gemini")
	f.StringVar(&o.apiURL, "api-url", "", "LibreTranslate base URL (default: auto-detect)")
	f.StringVar(&o.apiKey, "api-key", "", "API key (overrides keychain and environment)")
	f.StringVar(&o.model, "model", "", "Gemini model name (default: "+gemini.DefaultModel+")")
	f.StringVar(&o.source, "source", "", "Source language code or name (default: en; 'auto' to detect)")
	f.StringVar(&o.target, "target", "", "Target language code or name (default: es)")
	f.BoolVar(&o.offline, "offline", false, "Use the local LibreTranslate server at "+libretranslate.OfflineURL)
	f.BoolVar(&o.web, "web", false, "Use the hosted LibreTranslate service at "+libretranslate.WebURL)
	f.IntVar(&o.timeout, "timeout", 0, "Request timeout in seconds (default: 30)")
	f.BoolVar(&o.debug, "debug", false, "Enable debug logging")
	f.StringVar(&o.logLevel, "log-level", "", "Log level: debug, info, warn or error")
	f.StringVar(&o.logFile, "log-file", "", "Path to save machine-readable JSONL logs")
	cmd.MarkFlagsMutuallyExclusive("offline", "web")
	cmd.MarkFlagsMutuallyExclusive("offline", "api-url")
	cmd.MarkFlagsMutuallyExclusive("web", "api-url")
}

// settings loads the layered configuration and applies the flags the user
// actually set.
func (o *backendOptions) settings(cmd *cobra.Command) (config.Settings, error) {
	s, path, err := loadSettings(config.LoadOptions{ConfigPath: o.configPath})
	if err != nil {
		return s, fmt.Errorf("failed to load configuration: %w", err)
	}
	changed := cmd.Flags().Changed

	if changed("provider") {
		s.Provider = strings.ToLower(strings.TrimSpace(o.provider))
	}
	if changed("api-url") {
		s.APIURL = o.apiURL
	}
	if o.offline {
		s.APIURL = libretranslate.OfflineURL
	}
	if o.web {
		s.APIURL = libretranslate.WebURL
	}
	if changed("model") {
		s.Model = o.model
	}
	if changed("source") {
		s.Source = o.source
	}
	if changed("target") {
		s.Target = o.target
	}
	if changed("timeout") {
		if o.timeout <= 0 {
			return s, fmt.Errorf("--timeout must be a positive number of seconds")
		}
		s.Timeout = time.Duration(o.timeout) * time.Second
	}
	if changed("log-level") {
		s.LogLevel = o.logLevel
	}
	if o.debug {
		s.LogLevel = "debug"
	}
	if changed("log-file") {
		s.LogFile = o.logFile
	}
	if err := s.Validate(); err != nil {
		return s, err
	}

	if s.Source, err = resolveLanguageCode(s.Source, true); err != nil {
		return s, fmt.Errorf("invalid source language: %w", err)
	}
	if s.Target, err = resolveLanguageCode(s.Target, false); err != nil {
		return s, fmt.Errorf("invalid target language: %w", err)
	}

	if err := initLogging(s); err != nil {
		return s, err
	}
	if path != "" {
		logger.Debug("Loaded config file", "path", path)
	}
	return s, nil
}

func initLogging(s config.Settings) error {
	var logFileW io.Writer
	if s.LogFile != "" {
		if err := files.RejectSymlinkPath(s.LogFile); err != nil {
			return err
		}
		f, err := os.OpenFile(s.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		cleanup.Register("log file", f.Close)
		logFileW = f
	}
	logger.Init(logger.ParseLevel(s.LogLevel), logFileW)
	return nil
}

// resolveBackend picks the service a run talks to. A LibreTranslate URL
// that is not configured is auto-detected: the local server when it
// answers, otherwise the hosted service.
func resolveBackend(ctx context.Context, s config.Settings) gateway.Info {
	if s.Provider == config.ProviderGemini {
		model := s.Model
		if model == "" {
			model = gemini.DefaultModel
		}
		if m, ok := metadata.LookupGeminiModel(model); !ok {
			logger.Warn("Gemini model is not in the known model list", "model", model)
		} else if m.Preview {
			logger.Warn("Using a preview Gemini model", "model", model)
		}
		return gateway.Info{Provider: config.ProviderGemini, Model: model}
	}
	url := s.APIURL
	if url == "" {
		url = detectURL(ctx)
		logger.Info("Detected LibreTranslate endpoint", "url", url)
	}
	return gateway.Info{Provider: config.ProviderLibreTranslate, URL: strings.TrimRight(url, "/")}
}

// gatewayFactory resolves the API key lazily, once the backend is known,
// so repair can use the backend recorded in its session log.
func gatewayFactory(flagKey string, timeout time.Duration) pipeline.GatewayFactory {
	return func(ctx context.Context, info gateway.Info) (gateway.Gateway, error) {
		svc, required, err := keyRequirement(info)
		if err != nil {
			return nil, err
		}
		key, source, err := resolveAPIKey(svc, flagKey, required)
		if err != nil {
			return nil, err
		}
		if source != auth.SourceNone {
			logger.Info("Using API Key", "key_service", string(svc), "key_source", string(source))
		}

		switch info.Provider {
		case config.ProviderGemini:
			client, err := gemini.NewClient(ctx, key, info.Model, timeout)
			if err != nil {
				return nil, err
			}
			return client, nil
		default:
			return libretranslate.NewClient(info.URL, key, timeout), nil
		}
	}
}

func keyRequirement(info gateway.Info) (auth.Service, bool, error) {
	switch info.Provider {
	case config.ProviderGemini:
		return auth.Gemini, true, nil
	case config.ProviderLibreTranslate:
		return auth.LibreTranslate, !libretranslate.IsLocalURL(info.URL), nil
	default:
		return "", false, fmt.Errorf("unknown provider %q", info.Provider)
	}
}

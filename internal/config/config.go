// Package config resolves run settings from built-in defaults, a .env file,
// an optional YAML file and the environment. Command-line flags are applied
// on top by the CLI.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	ProviderLibreTranslate = "libretranslate"
	ProviderGemini         = "gemini"

	DefaultSourceLang  = "en"
	DefaultTargetLang  = "es"
	DefaultTimeout     = 30 * time.Second
	DefaultConcurrency = 1
	DefaultMaxAttempts = 3

	// EnvConfigPath names an explicit config file.
	EnvConfigPath = "PGNCT_CONFIG"
	appDirName    = "pgnct"
	fileName      = "config.yaml"
)

// Settings is the resolved configuration of a run. API keys are not part of
// it; they are resolved separately through internal/auth.
type Settings struct {
	Provider    string        `yaml:"provider"`
	APIURL      string        `yaml:"api_url"`
	Model       string        `yaml:"model"`
	Source      string        `yaml:"source"`
	Target      string        `yaml:"target"`
	Timeout     time.Duration `yaml:"-"`
	Concurrency int           `yaml:"concurrency"`
	MaxAttempts int           `yaml:"max_attempts"`
	QPS         float64       `yaml:"qps"`
	NoPreflight bool          `yaml:"no_preflight"`
	LogLevel    string        `yaml:"log_level"`
	LogFile     string        `yaml:"log_file"`
	MetricsFile string        `yaml:"metrics_file"`

	// TimeoutSeconds mirrors Timeout in the YAML file.
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

// Defaults returns the settings used when nothing else is configured.
func Defaults() Settings {
	return Settings{
		Provider:    ProviderLibreTranslate,
		Source:      DefaultSourceLang,
		Target:      DefaultTargetLang,
		Timeout:     DefaultTimeout,
		Concurrency: DefaultConcurrency,
		MaxAttempts: DefaultMaxAttempts,
		LogLevel:    "info",
	}
}

// LoadOptions selects the files Load reads.
type LoadOptions struct {
	// ConfigPath is an explicit YAML file. When empty, PGNCT_CONFIG and then
	// DefaultPath are tried; a missing default file is not an error.
	ConfigPath string
	// DotEnvPath is the .env file to read. Empty means ".env" in the working
	// directory; a missing file is not an error.
	DotEnvPath string
}

// Load resolves settings: defaults, then .env (never overriding variables
// already set), then the YAML file, then the environment. It returns the
// path of the YAML file that was applied, if any.
func Load(opts LoadOptions) (Settings, string, error) {
	s := Defaults()

	if err := LoadDotEnv(opts.DotEnvPath); err != nil {
		return s, "", err
	}

	path, explicit := configPath(opts.ConfigPath)
	if path != "" {
		applied, err := applyFile(&s, path)
		if err != nil {
			return s, "", err
		}
		if !applied {
			if explicit {
				return s, "", fmt.Errorf("config file not found: %s", path)
			}
			path = ""
		}
	}

	if err := applyEnv(&s); err != nil {
		return s, path, err
	}
	if err := s.Validate(); err != nil {
		return s, path, err
	}
	return s, path, nil
}

// LoadDotEnv loads KEY=VALUE pairs from path (default ".env") into the
// process environment without replacing existing variables.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// DefaultPath returns $XDG_CONFIG_HOME/pgnct/config.yaml or the platform
// equivalent.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, appDirName, fileName)
}

func configPath(flagPath string) (string, bool) {
	if flagPath != "" {
		return flagPath, true
	}
	if env := strings.TrimSpace(os.Getenv(EnvConfigPath)); env != "" {
		return env, true
	}
	return DefaultPath(), false
}

func applyFile(s *Settings, path string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("reading %s: %w", path, err)
	}

	fileSettings := *s
	fileSettings.TimeoutSeconds = 0
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&fileSettings); err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("parsing %s: %w", path, err)
	}
	if fileSettings.TimeoutSeconds < 0 {
		return false, fmt.Errorf("parsing %s: timeout_seconds must not be negative", path)
	}
	if fileSettings.TimeoutSeconds > 0 {
		fileSettings.Timeout = time.Duration(fileSettings.TimeoutSeconds) * time.Second
	}
	*s = fileSettings
	return true, nil
}

func applyEnv(s *Settings) error {
	if v := strings.TrimSpace(os.Getenv("PGNCT_PROVIDER")); v != "" {
		s.Provider = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv("LIBRETRANSLATE_URL")); v != "" {
		s.APIURL = v
	}
	if v := strings.TrimSpace(os.Getenv("GEMINI_MODEL")); v != "" {
		s.Model = v
	}
	if v := strings.TrimSpace(os.Getenv("DEFAULT_SOURCE_LANG")); v != "" {
		s.Source = v
	}
	if v := strings.TrimSpace(os.Getenv("DEFAULT_TARGET_LANG")); v != "" {
		s.Target = v
	}
	if v := strings.TrimSpace(os.Getenv("REQUEST_TIMEOUT")); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil || secs <= 0 {
			return fmt.Errorf("REQUEST_TIMEOUT must be a positive number of seconds, got %q", v)
		}
		s.Timeout = time.Duration(secs) * time.Second
	}
	return nil
}

// Validate checks values that cannot be clamped into range.
func (s Settings) Validate() error {
	switch s.Provider {
	case ProviderLibreTranslate, ProviderGemini:
	default:
		return fmt.Errorf("unknown provider %q (use %s or %s)", s.Provider, ProviderLibreTranslate, ProviderGemini)
	}
	if s.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if s.QPS < 0 {
		return fmt.Errorf("qps must not be negative")
	}
	return nil
}

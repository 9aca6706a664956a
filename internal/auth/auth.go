// Package auth stores and looks up API keys for the translation backends.
package auth

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/zalando/go-keyring"
	"golang.org/x/term"
)

const serviceName = "pgnct"

// Service identifies a backend that needs a key.
type Service string

const (
	LibreTranslate Service = "libretranslate"
	Gemini         Service = "gemini"
)

// Source tells where a key came from.
type Source string

const (
	SourceNone        Source = ""
	SourceFlag        Source = "Flag"
	SourceKeychain    Source = "Keychain"
	SourceEnvironment Source = "Environment Variable"
	SourcePrompt      Source = "Prompt"
)

var services = map[Service]struct {
	account string
	envVar  string
}{
	LibreTranslate: {account: "libretranslate-api-key", envVar: "LIBRETRANSLATE_API_KEY"},
	Gemini:         {account: "gemini-api-key", envVar: "GEMINI_API_KEY"},
}

// Services lists every known service in display order.
func Services() []Service {
	return []Service{LibreTranslate, Gemini}
}

// ParseService accepts a service name case-insensitively.
func ParseService(name string) (Service, error) {
	s := Service(strings.ToLower(strings.TrimSpace(name)))
	if _, ok := services[s]; !ok {
		return "", fmt.Errorf("unknown service %q (use libretranslate or gemini)", name)
	}
	return s, nil
}

// EnvVar returns the environment variable that holds the key for s.
func (s Service) EnvVar() string {
	return services[s].envVar
}

// GetKey looks up the key for s in the keychain and then, if allowEnv is
// set, in the environment.
func GetKey(s Service, allowEnv bool) (string, Source) {
	if key, err := keyring.Get(serviceName, services[s].account); err == nil && strings.TrimSpace(key) != "" {
		return strings.TrimSpace(key), SourceKeychain
	}
	if allowEnv {
		if key, ok := GetEnvKey(s); ok {
			return key, SourceEnvironment
		}
	}
	return "", SourceNone
}

// GetEnvKey reads the key for s from the environment only.
func GetEnvKey(s Service) (string, bool) {
	key := strings.TrimSpace(os.Getenv(s.EnvVar()))
	return key, key != ""
}

// SaveKey stores key for s in the OS keychain.
func SaveKey(s Service, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("API key is empty")
	}
	return keyring.Set(serviceName, services[s].account, key)
}

// DeleteKey removes the key for s from the OS keychain.
func DeleteKey(s Service) error {
	return keyring.Delete(serviceName, services[s].account)
}

// GetStatus reports whether the keychain holds a key for s.
func GetStatus(s Service) bool {
	key, err := keyring.Get(serviceName, services[s].account)
	return err == nil && key != ""
}

// PromptForAPIKey reads a key from the terminal without echoing it.
func PromptForAPIKey(out io.Writer, prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("cannot prompt for an API key: stdin is not a terminal")
	}
	fmt.Fprint(out, prompt)
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(out)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}

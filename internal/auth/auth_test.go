package auth

import (
	"testing"

	"github.com/zalando/go-keyring"
)

func TestGetKey_Precedence(t *testing.T) {
	keyring.MockInit()
	t.Setenv("LIBRETRANSLATE_API_KEY", " env-key ")

	key, src := GetKey(LibreTranslate, true)
	if key != "env-key" || src != SourceEnvironment {
		t.Fatalf("expected env key, got %q from %q", key, src)
	}
	if key, src := GetKey(LibreTranslate, false); key != "" || src != SourceNone {
		t.Fatalf("env must be ignored when allowEnv is false, got %q from %q", key, src)
	}

	if err := SaveKey(LibreTranslate, "keychain-key\n"); err != nil {
		t.Fatalf("SaveKey failed: %v", err)
	}
	key, src = GetKey(LibreTranslate, true)
	if key != "keychain-key" || src != SourceKeychain {
		t.Fatalf("expected keychain key, got %q from %q", key, src)
	}
	if !GetStatus(LibreTranslate) || GetStatus(Gemini) {
		t.Fatalf("unexpected keychain status")
	}

	if err := DeleteKey(LibreTranslate); err != nil {
		t.Fatalf("DeleteKey failed: %v", err)
	}
	if GetStatus(LibreTranslate) {
		t.Fatalf("key should be deleted")
	}
}

func TestSaveKey_RejectsEmpty(t *testing.T) {
	keyring.MockInit()
	if err := SaveKey(Gemini, "   "); err == nil {
		t.Fatalf("expected error for empty key")
	}
}

func TestParseService(t *testing.T) {
	if s, err := ParseService(" Gemini "); err != nil || s != Gemini {
		t.Fatalf("ParseService(Gemini) = %q, %v", s, err)
	}
	if _, err := ParseService("openai"); err == nil {
		t.Fatalf("expected error for unknown service")
	}
	if Gemini.EnvVar() != "GEMINI_API_KEY" {
		t.Fatalf("unexpected env var %q", Gemini.EnvVar())
	}
}

package apperrors

import (
	"errors"
	"fmt"
	"testing"
)

func TestPublicMessage_UsesSafeMessage(t *testing.T) {
	sentinel := errors.New("SECRET_COMMENT")
	err := New(KindAuth, "safe auth error", sentinel)
	if got := PublicMessage(err); got != "safe auth error" {
		t.Fatalf("PublicMessage() = %q, want %q", got, "safe auth error")
	}
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected wrapped cause to be retained for internal matching")
	}
}

func TestPublicMessage_NonAppError(t *testing.T) {
	err := errors.New("plain")
	if got := PublicMessage(err); got != "plain" {
		t.Fatalf("PublicMessage() = %q, want %q", got, "plain")
	}
}

func TestDefaultSafeMessage(t *testing.T) {
	err := Server(errors.New("status 502"))
	if got := err.Error(); got != defaultSafeMessage(KindServer) {
		t.Fatalf("Error() = %q, want default server message", got)
	}
}

func TestClassification(t *testing.T) {
	cases := []struct {
		name      string
		err       error
		retryable bool
		rateLimit bool
		fatal     bool
	}{
		{name: "network", err: Network(errors.New("dial tcp")), retryable: true},
		{name: "rate_limit", err: RateLimit(errors.New("429")), retryable: true, rateLimit: true},
		{name: "auth", err: Auth(errors.New("403")), fatal: true},
		{name: "invalid_language", err: InvalidLanguage(errors.New("xx")), fatal: true},
		{name: "server", err: Server(errors.New("500"))},
		{name: "bad_request", err: BadRequest(errors.New("400"))},
		{name: "validation", err: Validation(errors.New("brace"))},
		{name: "wrapped_network", err: fmt.Errorf("comment 3: %w", Network(errors.New("eof"))), retryable: true},
		{name: "plain", err: errors.New("plain")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsRetryable(tc.err); got != tc.retryable {
				t.Errorf("IsRetryable() = %v, want %v", got, tc.retryable)
			}
			if got := IsRateLimit(tc.err); got != tc.rateLimit {
				t.Errorf("IsRateLimit() = %v, want %v", got, tc.rateLimit)
			}
			if got := IsFatal(tc.err); got != tc.fatal {
				t.Errorf("IsFatal() = %v, want %v", got, tc.fatal)
			}
		})
	}
}

func TestKindOf(t *testing.T) {
	kind, ok := KindOf(fmt.Errorf("outer: %w", RateLimit(errors.New("boom"))))
	if !ok || kind != KindRateLimit {
		t.Fatalf("KindOf() = (%q, %v), want (%q, true)", kind, ok, KindRateLimit)
	}
	if _, ok := KindOf(errors.New("plain")); ok {
		t.Fatalf("expected plain error to have no kind")
	}
}

package apperrors

import (
	"errors"
	"strings"
)

type Kind string

const (
	KindNetwork         Kind = "network"
	KindRateLimit       Kind = "rate_limit"
	KindAuth            Kind = "auth"
	KindInvalidLanguage Kind = "invalid_language"
	KindServer          Kind = "server"
	KindBadRequest      Kind = "bad_request"
	KindValidation      Kind = "validation"
)

type Error struct {
	Kind Kind
	// SafeMessage is intended for user-facing output and logs. It must never
	// contain comment text sent to or returned by the gateway.
	SafeMessage string
	// Cause keeps the original internal error for troubleshooting.
	Cause error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if msg := strings.TrimSpace(e.SafeMessage); msg != "" {
		return msg
	}
	if e.Cause != nil {
		return e.Cause.Error()
	}
	return "unknown error"
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func defaultSafeMessage(kind Kind) string {
	switch kind {
	case KindNetwork:
		return "Could not reach the translation service. Please try again."
	case KindRateLimit:
		return "Rate limit exceeded. Please try again later."
	case KindAuth:
		return "Authentication failed. Please verify your API key."
	case KindInvalidLanguage:
		return "Language pair is not supported by the translation service."
	case KindServer:
		return "Translation service returned a server error."
	case KindBadRequest:
		return "Request rejected by the translation service."
	case KindValidation:
		return "Translation response validation failed."
	default:
		return "Request failed."
	}
}

func New(kind Kind, safeMessage string, cause error) error {
	msg := strings.TrimSpace(safeMessage)
	if msg == "" {
		msg = defaultSafeMessage(kind)
	}
	return &Error{
		Kind:        kind,
		SafeMessage: msg,
		Cause:       cause,
	}
}

func Network(err error) error         { return New(KindNetwork, "", err) }
func RateLimit(err error) error       { return New(KindRateLimit, "", err) }
func Auth(err error) error            { return New(KindAuth, "", err) }
func InvalidLanguage(err error) error { return New(KindInvalidLanguage, "", err) }
func Server(err error) error          { return New(KindServer, "", err) }
func BadRequest(err error) error      { return New(KindBadRequest, "", err) }
func Validation(err error) error      { return New(KindValidation, "", err) }

func KindOf(err error) (Kind, bool) {
	var e *Error
	if !errors.As(err, &e) {
		return "", false
	}
	return e.Kind, true
}

func PublicMessage(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Error()
	}
	return err.Error()
}

// IsRetryable reports whether a failed gateway call may succeed when repeated.
// Only connectivity failures and rate limiting qualify; server errors, bad
// requests and unusable responses are returned to the caller as-is.
func IsRetryable(err error) bool {
	kind, ok := KindOf(err)
	if !ok {
		return false
	}
	return kind == KindNetwork || kind == KindRateLimit
}

func IsRateLimit(err error) bool {
	kind, ok := KindOf(err)
	return ok && kind == KindRateLimit
}

// IsFatal reports errors that will fail every subsequent request of the run
// (bad credentials, unsupported language pair).
func IsFatal(err error) bool {
	kind, ok := KindOf(err)
	if !ok {
		return false
	}
	return kind == KindAuth || kind == KindInvalidLanguage
}

package gemini

import (
	"errors"
	"fmt"
	"strings"

	"github.com/oukeidos/pgnct/internal/apperrors"
	"google.golang.org/api/googleapi"
)

func classifyGeminiError(err error) error {
	if err == nil {
		return nil
	}

	wrapped := fmt.Errorf("gemini generate content failed: %w", err)

	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		// DNS, socket and deadline failures carry no status code.
		return apperrors.New(apperrors.KindNetwork, "Gemini request failed due to a network error.", wrapped)
	}

	switch {
	case gerr.Code == 401 || gerr.Code == 403:
		return apperrors.New(apperrors.KindAuth, fmt.Sprintf("Gemini authentication/authorization failed (%d).", gerr.Code), wrapped)
	case gerr.Code == 429:
		return apperrors.New(apperrors.KindRateLimit, "Gemini rate limit exceeded (429).", wrapped)
	case gerr.Code == 400 && mentionsLanguage(gerr.Message):
		return apperrors.New(apperrors.KindInvalidLanguage, "Gemini rejected the requested language.", wrapped)
	case gerr.Code == 404:
		return apperrors.New(apperrors.KindBadRequest, "Gemini model not found or no access (404).", wrapped)
	case gerr.Code >= 500:
		return apperrors.New(apperrors.KindServer, fmt.Sprintf("Gemini service error (%d).", gerr.Code), wrapped)
	default:
		return apperrors.New(apperrors.KindBadRequest, fmt.Sprintf("Gemini request rejected (%d).", gerr.Code), wrapped)
	}
}

func mentionsLanguage(message string) bool {
	m := strings.ToLower(message)
	return strings.Contains(m, "language") || strings.Contains(m, "not supported")
}

package pipeline

import (
	"testing"

	"github.com/oukeidos/pgnct/internal/recovery"
)

func TestTranslationStatusFromRecovery(t *testing.T) {
	cases := map[string]TranslationStatus{
		recovery.StatusSuccess:        TranslationStatusSuccess,
		recovery.StatusPartialSuccess: TranslationStatusPartialSuccess,
		recovery.StatusFailure:        TranslationStatusFailure,
		"Skipped":                     TranslationStatusFailure,
		"":                            TranslationStatusFailure,
	}
	for in, want := range cases {
		if got := translationStatusFromRecovery(in); got != want {
			t.Errorf("translationStatusFromRecovery(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestTranslationStatusMatchesCalculatedStatus(t *testing.T) {
	cases := []struct {
		failed, translatable int
		want                 TranslationStatus
	}{
		{failed: 0, translatable: 4, want: TranslationStatusSuccess},
		{failed: 1, translatable: 4, want: TranslationStatusPartialSuccess},
		{failed: 4, translatable: 4, want: TranslationStatusFailure},
	}
	for _, tc := range cases {
		got := translationStatusFromRecovery(recovery.CalculateStatus(tc.failed, tc.translatable))
		if got != tc.want {
			t.Errorf("failed=%d translatable=%d: got %q, want %q", tc.failed, tc.translatable, got, tc.want)
		}
	}
}

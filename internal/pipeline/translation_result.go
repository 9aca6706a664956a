package pipeline

import (
	"time"

	"github.com/oukeidos/pgnct/internal/recovery"
)

// TranslationStatus is the terminal state of a translation run.
type TranslationStatus string

const (
	TranslationStatusSuccess        TranslationStatus = recovery.StatusSuccess
	TranslationStatusPartialSuccess TranslationStatus = recovery.StatusPartialSuccess
	TranslationStatusFailure        TranslationStatus = recovery.StatusFailure
	TranslationStatusSkipped        TranslationStatus = "Skipped"
)

// TranslationResult contains structured outputs from RunTranslation.
type TranslationResult struct {
	Status          TranslationStatus
	RecoveryLogPath string
	OutputPath      string
	TotalComments   int
	BlankComments   int
	Translated      int
	FailedComments  int
	Canceled        bool
	Duration        time.Duration
}

func translationStatusFromRecovery(status string) TranslationStatus {
	switch status {
	case string(TranslationStatusSuccess):
		return TranslationStatusSuccess
	case string(TranslationStatusPartialSuccess):
		return TranslationStatusPartialSuccess
	case string(TranslationStatusFailure):
		return TranslationStatusFailure
	default:
		return TranslationStatusFailure
	}
}

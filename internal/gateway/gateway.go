// Package gateway defines the contract between the comment translator and a
// translation service.
package gateway

import "context"

// Request is one comment to translate. Text is the trimmed comment core.
type Request struct {
	Text   string
	Source string
	Target string
}

// Gateway translates a single text. Implementations return *apperrors.Error
// values so that callers can decide on retries and fatal aborts.
type Gateway interface {
	Translate(ctx context.Context, req Request) (string, error)
}

// Func adapts a plain function to the Gateway interface.
type Func func(ctx context.Context, req Request) (string, error)

func (f Func) Translate(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

// Info describes the backend of a run for logs and the recovery session.
type Info struct {
	Provider string
	URL      string
	Model    string
}

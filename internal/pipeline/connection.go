package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/oukeidos/pgnct/internal/apperrors"
	"github.com/oukeidos/pgnct/internal/gateway"
	"github.com/oukeidos/pgnct/internal/language"
	"github.com/oukeidos/pgnct/internal/libretranslate"
	"github.com/oukeidos/pgnct/internal/logger"
)

// ConnectionResult reports a successful connection test.
type ConnectionResult struct {
	Backend     gateway.Info
	Source      string
	Target      string
	Translation string
	Elapsed     time.Duration
}

// TestConnection translates PreflightText with the given backend and
// language pair. Errors carry a hint matching the failure: credentials for
// hosted services, a running server for local ones.
func TestConnection(ctx context.Context, factory GatewayFactory, info gateway.Info, source, target string) (ConnectionResult, error) {
	if factory == nil {
		return ConnectionResult{}, fmt.Errorf("translation gateway is required")
	}
	src, err := language.Normalize(source, true)
	if err != nil {
		return ConnectionResult{}, fmt.Errorf("unsupported source language: %w", err)
	}
	tgt, err := language.Normalize(target, false)
	if err != nil {
		return ConnectionResult{}, fmt.Errorf("unsupported target language: %w", err)
	}

	gw, closeGateway, err := openGateway(ctx, factory, info)
	if err != nil {
		return ConnectionResult{}, err
	}
	defer closeGateway()

	logger.Info("Testing connection", "provider", info.Provider, "url", info.URL, "source", src, "target", tgt)
	started := time.Now()
	text, err := gw.Translate(ctx, gateway.Request{Text: PreflightText, Source: src, Target: tgt})
	if err != nil {
		return ConnectionResult{}, withConnectionHint(info, err)
	}
	return ConnectionResult{
		Backend:     info,
		Source:      src,
		Target:      tgt,
		Translation: text,
		Elapsed:     time.Since(started),
	}, nil
}

func withConnectionHint(info gateway.Info, err error) error {
	local := info.URL != "" && libretranslate.IsLocalURL(info.URL)
	kind, _ := apperrors.KindOf(err)
	switch {
	case kind == apperrors.KindAuth && !local:
		return fmt.Errorf("connection test failed: %w (check the API key; run 'pgnct env setup')", err)
	case kind == apperrors.KindNetwork && local:
		return fmt.Errorf("connection test failed: %w (is the local LibreTranslate server running at %s?)", err, info.URL)
	default:
		return fmt.Errorf("connection test failed: %w", err)
	}
}

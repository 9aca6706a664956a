package translator

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/oukeidos/pgnct/internal/gateway"
	"github.com/oukeidos/pgnct/internal/pgn"
)

// sequenceGateway returns responses in order; the last one repeats.
type sequenceGateway struct {
	mu        sync.Mutex
	calls     int
	requests  []gateway.Request
	responses []sequenceResponse
}

type sequenceResponse struct {
	text string
	err  error
}

func (g *sequenceGateway) Translate(_ context.Context, req gateway.Request) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	g.requests = append(g.requests, req)
	idx := g.calls - 1
	if idx >= len(g.responses) {
		idx = len(g.responses) - 1
	}
	return g.responses[idx].text, g.responses[idx].err
}

func (g *sequenceGateway) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

// dictGateway translates by exact lookup and fails for listed texts.
type dictGateway struct {
	mu    sync.Mutex
	calls int
	dict  map[string]string
	fail  map[string]error
}

func (g *dictGateway) Translate(_ context.Context, req gateway.Request) (string, error) {
	g.mu.Lock()
	g.calls++
	g.mu.Unlock()
	if err, ok := g.fail[req.Text]; ok {
		return "", err
	}
	return g.dict[req.Text], nil
}

type fakeRecorder struct {
	mu       sync.Mutex
	requests map[string]int
	retries  map[string]int
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{requests: map[string]int{}, retries: map[string]int{}}
}

func (r *fakeRecorder) ObserveRequest(result string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests[result]++
}

func (r *fakeRecorder) ObserveRetry(kind string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.retries[kind]++
}

func mustLocate(t *testing.T, doc string) []pgn.Comment {
	t.Helper()
	comments, err := pgn.Locate(doc)
	if err != nil {
		t.Fatalf("Locate failed: %v", err)
	}
	return comments
}

func fastRetries(t *testing.T) {
	t.Helper()
	prev := retryBaseDelay
	retryBaseDelay = time.Millisecond
	t.Cleanup(func() { retryBaseDelay = prev })
}

func newTestTranslator(t *testing.T, gw gateway.Gateway, concurrency int) *Translator {
	t.Helper()
	tr, err := NewTranslator(gw, concurrency, DefaultMaxAttempts, "en", "es")
	if err != nil {
		t.Fatalf("NewTranslator failed: %v", err)
	}
	return tr
}

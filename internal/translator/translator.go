package translator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/oukeidos/pgnct/internal/apperrors"
	"github.com/oukeidos/pgnct/internal/gateway"
	"github.com/oukeidos/pgnct/internal/logger"
	"github.com/oukeidos/pgnct/internal/pgn"
	"golang.org/x/time/rate"
)

const (
	DefaultConcurrency = 1
	MaxConcurrency     = 16
	DefaultMaxAttempts = 3
	MaxAttempts        = 10
)

// ErrGatewayRejected marks comments that were not sent because the gateway
// rejected the run's credentials or language pair. Those comments keep
// their original text like any other failed comment.
var ErrGatewayRejected = errors.New("gateway rejected the run")

// Recorder receives per-request measurements. *metrics.Recorder implements it.
type Recorder interface {
	ObserveRequest(result string, elapsed time.Duration)
	ObserveRetry(kind string)
}

// State is the lifecycle stage reported through Progress.
type State int

const (
	StateStarted State = iota
	StateRetrying
	StateCompleted
	StateFailed
	StateCanceled
)

func (s State) String() string {
	switch s {
	case StateStarted:
		return "started"
	case StateRetrying:
		return "retrying"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	case StateCanceled:
		return "canceled"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Progress is reported once per attempt and once per final outcome.
// Index is -1 for the run-level StateCanceled event.
type Progress struct {
	Index   int
	Total   int
	Attempt int
	State   State
	Err     error
}

// Outcome is the result for one comment. Text is the full comment interior
// to write back: the translation with the original padding on success, the
// original text otherwise.
type Outcome struct {
	Index      int
	Text       string
	Translated bool
	Attempts   int
	Err        error
}

func (o Outcome) Failed() bool { return o.Err != nil }

// Translator sends comments to a gateway with a bounded worker pool.
type Translator struct {
	gw          gateway.Gateway
	source      string
	target      string
	concurrency int
	maxAttempts int
	limiter     *rate.Limiter
	recorder    Recorder
}

// NewTranslator creates a Translator. concurrency and maxAttempts are
// clamped to 1..MaxConcurrency and 1..MaxAttempts.
func NewTranslator(gw gateway.Gateway, concurrency, maxAttempts int, source, target string) (*Translator, error) {
	if gw == nil {
		return nil, fmt.Errorf("gateway is nil")
	}
	if source == "" || target == "" {
		return nil, fmt.Errorf("source and target languages are required")
	}
	return &Translator{
		gw:          gw,
		source:      source,
		target:      target,
		concurrency: clamp(concurrency, 1, MaxConcurrency),
		maxAttempts: clamp(maxAttempts, 1, MaxAttempts),
	}, nil
}

// SetQPS limits gateway requests per second across all workers. Zero or a
// negative value removes the limit.
func (t *Translator) SetQPS(qps float64) {
	if qps <= 0 {
		t.limiter = nil
		return
	}
	burst := int(qps)
	if burst < 1 {
		burst = 1
	}
	t.limiter = rate.NewLimiter(rate.Limit(qps), burst)
}

func (t *Translator) SetRecorder(r Recorder) {
	t.recorder = r
}

// TranslateComments translates every comment. The returned slice always
// has one Outcome per comment, in comment order.
func (t *Translator) TranslateComments(ctx context.Context, comments []pgn.Comment, onProgress func(Progress)) ([]Outcome, error) {
	return t.translateEngine(ctx, comments, nil, onProgress)
}

// TranslateIndices translates only the listed comments. Outcomes for other
// comments carry the original text with Translated false and no error. An
// index outside comments is an error and nothing is sent.
func (t *Translator) TranslateIndices(ctx context.Context, comments []pgn.Comment, indices []int, onProgress func(Progress)) ([]Outcome, error) {
	if indices == nil {
		indices = []int{}
	}
	for _, idx := range indices {
		if idx < 0 || idx >= len(comments) {
			return nil, fmt.Errorf("comment index %d out of range (0-%d)", idx, len(comments)-1)
		}
	}
	return t.translateEngine(ctx, comments, indices, onProgress)
}

func (t *Translator) translateEngine(ctx context.Context, comments []pgn.Comment, indices []int, onProgress func(Progress)) ([]Outcome, error) {
	total := len(comments)
	outcomes := make([]Outcome, total)
	for i, c := range comments {
		outcomes[i] = Outcome{Index: i, Text: c.Text}
	}

	selected := make([]bool, total)
	if indices == nil {
		for i := range selected {
			selected[i] = true
		}
	} else {
		for _, idx := range indices {
			selected[idx] = true
		}
	}

	var jobs []int
	for i, c := range comments {
		if !selected[i] {
			continue
		}
		if c.Blank() {
			outcomes[i].Translated = true
			continue
		}
		jobs = append(jobs, i)
	}
	if len(jobs) == 0 {
		return outcomes, nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg          sync.WaitGroup
		mu          sync.Mutex
		rejectedErr error
		done        = make([]bool, total)
	)

	jobCh := make(chan int, len(jobs))
	for _, i := range jobs {
		jobCh <- i
	}
	close(jobCh)

	workers := t.concurrency
	if workers > len(jobs) {
		workers = len(jobs)
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobCh {
				if runCtx.Err() != nil {
					return
				}
				out := t.translateOne(runCtx, comments[i], total, onProgress)
				if runCtx.Err() != nil && out.Err != nil && !apperrors.IsFatal(out.Err) {
					return
				}

				mu.Lock()
				outcomes[i] = out
				done[i] = true
				if apperrors.IsFatal(out.Err) && rejectedErr == nil {
					rejectedErr = out.Err
					cancel()
				}
				mu.Unlock()

				if out.Err != nil {
					logger.Warn("Comment translation failed; keeping original", "comment_index", i, "attempts", out.Attempts, "error", apperrors.PublicMessage(out.Err))
				}
			}
		}()
	}
	wg.Wait()

	// Comments never sent keep their original text and count as failed.
	var skipErr error
	switch {
	case rejectedErr != nil:
		skipErr = fmt.Errorf("%w: %w", ErrGatewayRejected, rejectedErr)
		logger.Error("Gateway rejected the run; remaining comments keep their original text", "error", apperrors.PublicMessage(rejectedErr))
	case ctx.Err() != nil:
		skipErr = ctx.Err()
	}
	if skipErr != nil {
		for _, i := range jobs {
			if !done[i] {
				outcomes[i].Err = skipErr
			}
		}
	}
	if err := ctx.Err(); err != nil {
		notify(onProgress, Progress{Index: -1, Total: total, State: StateCanceled, Err: err})
	}
	return outcomes, nil
}

func (t *Translator) translateOne(ctx context.Context, c pgn.Comment, total int, onProgress func(Progress)) Outcome {
	out := Outcome{Index: c.Index, Text: c.Text}
	req := gateway.Request{Text: c.Core(), Source: t.source, Target: t.target}

	var err error
	for attempt := 1; attempt <= t.maxAttempts; attempt++ {
		out.Attempts = attempt
		state := StateStarted
		if attempt > 1 {
			state = StateRetrying
		}
		notify(onProgress, Progress{Index: c.Index, Total: total, Attempt: attempt, State: state, Err: err})

		if t.limiter != nil {
			if werr := t.limiter.Wait(ctx); werr != nil {
				err = werr
				break
			}
		}

		var translated string
		started := time.Now()
		translated, err = t.gw.Translate(ctx, req)
		if err == nil {
			err = validateTranslation(translated)
		}
		t.observe(err, time.Since(started))

		if err == nil {
			out.Text = c.WithCore(translated)
			out.Translated = true
			notify(onProgress, Progress{Index: c.Index, Total: total, Attempt: attempt, State: StateCompleted})
			return out
		}

		retry, backoff := retryDecision(ctx, err, attempt, t.maxAttempts)
		if !retry {
			break
		}
		if t.recorder != nil {
			kind, _ := apperrors.KindOf(err)
			t.recorder.ObserveRetry(string(kind))
		}
		logger.Debug("Retrying comment", "comment_index", c.Index, "attempt", attempt, "backoff", backoff, "error", apperrors.PublicMessage(err))
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			out.Err = ctx.Err()
			return out
		case <-timer.C:
		}
	}

	out.Err = err
	state := StateFailed
	if errors.Is(err, context.Canceled) {
		state = StateCanceled
	}
	notify(onProgress, Progress{Index: c.Index, Total: total, Attempt: out.Attempts, State: state, Err: err})
	return out
}

// validateTranslation rejects results that cannot be written back into a
// comment.
func validateTranslation(text string) error {
	if strings.ContainsAny(text, "{}") {
		return apperrors.New(apperrors.KindValidation, "Translation contains a comment delimiter.", nil)
	}
	if strings.TrimSpace(text) == "" {
		return apperrors.New(apperrors.KindValidation, "Translation is empty.", nil)
	}
	return nil
}

func (t *Translator) observe(err error, elapsed time.Duration) {
	if t.recorder == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "error"
		if kind, ok := apperrors.KindOf(err); ok {
			result = string(kind)
		}
	}
	t.recorder.ObserveRequest(result, elapsed)
}

func notify(onProgress func(Progress), p Progress) {
	if onProgress != nil {
		onProgress(p)
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

package httpclient

import (
	"context"
	"time"

	"github.com/lamassu/apiclient/httpclient/internal/tracking"
	"github.com/lamassu/apiclient/logger"
	"github.com/lamassu/apiclient/trace"
)

// DefaultRetryDelay is the fixed wait between attempts
const DefaultRetryDelay = 500 * time.Millisecond

// Attempter performs a single classified attempt.
type Attempter interface {
	Execute(ctx context.Context, opts Options) Outcome
}

// sleeper waits d or until ctx ends.
type sleeper func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Orchestrator retries connectivity failures with a fixed delay.
type Orchestrator struct {
	attempter      Attempter
	logger         logger.Logger
	retryDelay     time.Duration
	defaultRetries *int
	sleep          sleeper
	tracker        *tracking.Tracker
}

// NewOrchestrator wraps attempter. A zero retryDelay uses DefaultRetryDelay;
// defaultRetries applies to options without their own budget.
func NewOrchestrator(attempter Attempter, log logger.Logger, retryDelay time.Duration, defaultRetries *int) *Orchestrator {
	if retryDelay <= 0 {
		retryDelay = DefaultRetryDelay
	}
	return &Orchestrator{
		attempter:      attempter,
		logger:         log,
		retryDelay:     retryDelay,
		defaultRetries: defaultRetries,
		sleep:          sleepContext,
		tracker:        tracking.New(nil, nil),
	}
}

// Run executes opts until it succeeds, fails with a non-retryable error or
// spends its retry budget. The attempt counter is local to the call.
func (o *Orchestrator) Run(ctx context.Context, opts Options) (*Response, error) {
	opts = normalizeOptions(opts)
	maxRetries := opts.Retries
	if maxRetries == nil {
		maxRetries = o.defaultRetries
	}

	ctx, _ = trace.EnsureTraceID(ctx)
	ctx, span := o.tracker.Start(ctx, opts.Method, opts.Path)
	start := time.Now()

	retries := 0
	for attempt := 1; ; attempt++ {
		outcome := o.attempter.Execute(ctx, opts)
		statusCode, _ := StatusCode(outcome.Err)
		if outcome.Response != nil {
			statusCode = outcome.Response.StatusCode
		}
		o.tracker.RecordAttempt(ctx, span, attempt, outcome.Kind.String(), statusCode)

		switch outcome.Kind {
		case OutcomeSuccess:
			resp := outcome.Response
			resp.Stats.Attempts = attempt
			resp.Stats.ElapsedTime = time.Since(start)
			o.tracker.Finish(ctx, span, start, tracking.OutcomeSuccess, nil)
			return resp, nil
		case OutcomeOther:
			o.tracker.Finish(ctx, span, start, tracking.OutcomeOther, outcome.Err)
			return nil, outcome.Err
		}

		if maxRetries != nil && retries >= *maxRetries {
			err := NewMaxRetryError(attempt)
			o.logExhausted(opts, attempt, outcome.Err)
			o.tracker.Finish(ctx, span, start, tracking.OutcomeMaxRetry, err)
			return nil, err
		}
		retries++

		o.logRetry(opts, attempt, o.retryDelay, outcome.Err)
		o.tracker.RecordRetry(ctx, span, o.retryDelay)
		if err := o.sleep(ctx, o.retryDelay); err != nil {
			waitErr := NewNetworkError("retry wait interrupted", err)
			o.tracker.Finish(ctx, span, start, tracking.OutcomeOther, waitErr)
			return nil, waitErr
		}
	}
}

package fetcher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/simaogato/billlink-backend/internal/domain"
)

// ErrExhausted is returned when every attempt of a retrieval failed transiently
var ErrExhausted = errors.New("bill retrieval attempts exhausted")

// errEmptyResult is a transient failure: the lookup succeeded but produced no bill
var errEmptyResult = errors.New("no bill data returned")

// State is a state of the retrieval state machine.
//
//	IDLE -> WAITING -> ATTEMPTING -> {SUCCESS, NOT_FOUND, EXHAUSTED}
//	                      |  ^
//	                      v  |
//	                    WAITING
//
// INVALID is reached straight from IDLE when the identifier is rejected,
// CANCELLED from WAITING or ATTEMPTING when the context ends.
type State string

const (
	StateIdle       State = "IDLE"
	StateWaiting    State = "WAITING"
	StateAttempting State = "ATTEMPTING"
	StateSuccess    State = "SUCCESS"
	StateNotFound   State = "NOT_FOUND"
	StateExhausted  State = "EXHAUSTED"
	StateInvalid    State = "INVALID"
	StateCancelled  State = "CANCELLED"
)

// Terminal reports whether no further transition exists from s
func (s State) Terminal() bool {
	switch s {
	case StateSuccess, StateNotFound, StateExhausted, StateInvalid, StateCancelled:
		return true
	default:
		return false
	}
}

// Outcome is the result of a single lookup attempt
type Outcome string

const (
	OutcomeSuccess   Outcome = "success"
	OutcomeNotFound  Outcome = "not_found"
	OutcomeTransient Outcome = "transient"
)

// RetrievalAttempt records one lookup. It lives only as long as the retrieval.
type RetrievalAttempt struct {
	Ordinal int
	Backoff time.Duration // Wait that preceded this attempt
	Outcome Outcome
	Err     error
}

// Policy bounds a retrieval
type Policy struct {
	MaxAttempts  int
	InitialDelay time.Duration // Waited before the first attempt
	BaseDelay    time.Duration // Attempt k > 1 waits (k-1) * BaseDelay
}

var (
	// PrimaryPolicy is used by the first wizard step. Customers reach it from
	// in-app browsers whose network stack may still be starting up.
	PrimaryPolicy = Policy{MaxAttempts: 5, InitialDelay: 200 * time.Millisecond, BaseDelay: 2 * time.Second}

	// StepPolicy is used by the later wizard steps
	StepPolicy = Policy{MaxAttempts: 3, InitialDelay: 100 * time.Millisecond, BaseDelay: time.Second}
)

// Delay returns the wait before the attempt with the given 1-based ordinal
func (p Policy) Delay(ordinal int) time.Duration {
	if ordinal <= 1 {
		return p.InitialDelay
	}
	return time.Duration(ordinal-1) * p.BaseDelay
}

// MaxDuration is the longest a retrieval under p can spend waiting
func (p Policy) MaxDuration() time.Duration {
	var total time.Duration
	for k := 1; k <= p.MaxAttempts; k++ {
		total += p.Delay(k)
	}
	return total
}

// Result is the terminal outcome of one retrieval
type Result struct {
	ID       string
	Bill     *domain.Bill
	State    State
	Attempts []RetrievalAttempt
	Err      error
}

// OK reports whether the retrieval produced a bill
func (r Result) OK() bool {
	return r.State == StateSuccess && r.Bill != nil
}

// Limiter gates lookups. *rate.Limiter satisfies it.
type Limiter interface {
	Wait(ctx context.Context) error
}

// SleepFunc waits for d or until ctx is done
type SleepFunc func(ctx context.Context, d time.Duration) error

// Fetcher retrieves bills with bounded retries and backoff
type Fetcher struct {
	repo    domain.BillRepository
	policy  Policy
	limiter Limiter
	sleep   SleepFunc
	logger  *zap.Logger
}

// Option configures a Fetcher
type Option func(*Fetcher)

// WithLimiter gates every lookup attempt on l
func WithLimiter(l Limiter) Option {
	return func(f *Fetcher) { f.limiter = l }
}

// WithSleep replaces the timer-based wait
func WithSleep(sleep SleepFunc) Option {
	return func(f *Fetcher) { f.sleep = sleep }
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(f *Fetcher) { f.logger = logger }
}

// New creates a new Fetcher
func New(repo domain.BillRepository, policy Policy, opts ...Option) *Fetcher {
	f := &Fetcher{
		repo:   repo,
		policy: policy,
		sleep:  Sleep,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.policy.MaxAttempts < 1 {
		f.policy.MaxAttempts = 1
	}
	return f
}

// Policy returns the retry policy of f
func (f *Fetcher) Policy() Policy {
	return f.policy
}

// Fetch runs one retrieval of the bill with the given identifier.
// It never retries a NotFound lookup and never makes more than MaxAttempts lookups.
func (f *Fetcher) Fetch(ctx context.Context, id string) Result {
	r := &retrieval{
		fetcher: f,
		id:      id,
		state:   StateIdle,
		logger:  f.logger.With(zap.String("bill_id", id)),
	}
	return r.run(ctx)
}

// retrieval holds the state machine of one Fetch call
type retrieval struct {
	fetcher  *Fetcher
	id       string
	state    State
	ordinal  int
	backoff  time.Duration
	bill     *domain.Bill
	attempts []RetrievalAttempt
	err      error
	logger   *zap.Logger
}

func (r *retrieval) run(ctx context.Context) Result {
	for !r.state.Terminal() {
		switch r.state {
		case StateIdle:
			r.start()
		case StateWaiting:
			r.wait(ctx)
		case StateAttempting:
			r.attempt(ctx)
		}
	}

	r.logOutcome()

	return Result{
		ID:       r.id,
		Bill:     r.bill,
		State:    r.state,
		Attempts: r.attempts,
		Err:      r.err,
	}
}

func (r *retrieval) start() {
	if err := domain.ValidateIdentifier(r.id); err != nil {
		r.err = err
		r.state = StateInvalid
		return
	}
	r.ordinal = 1
	r.backoff = r.fetcher.policy.Delay(r.ordinal)
	r.state = StateWaiting
}

func (r *retrieval) wait(ctx context.Context) {
	if err := r.fetcher.sleep(ctx, r.backoff); err != nil {
		r.cancel(err)
		return
	}
	r.state = StateAttempting
}

func (r *retrieval) attempt(ctx context.Context) {
	if r.fetcher.limiter != nil {
		if err := r.fetcher.limiter.Wait(ctx); err != nil {
			r.cancel(err)
			return
		}
	}

	bill, err := r.fetcher.repo.GetByID(ctx, r.id)
	if err == nil && bill == nil {
		err = errEmptyResult
	}

	a := RetrievalAttempt{Ordinal: r.ordinal, Backoff: r.backoff, Err: err}

	switch {
	case err == nil:
		a.Outcome = OutcomeSuccess
		r.attempts = append(r.attempts, a)
		r.bill = bill
		r.err = nil
		r.state = StateSuccess
		return
	case errors.Is(err, domain.ErrBillNotFound):
		a.Outcome = OutcomeNotFound
		r.attempts = append(r.attempts, a)
		r.err = err
		r.state = StateNotFound
		return
	}

	a.Outcome = OutcomeTransient
	r.attempts = append(r.attempts, a)
	r.logger.Warn("bill lookup failed",
		zap.Int("attempt", r.ordinal),
		zap.Int("max_attempts", r.fetcher.policy.MaxAttempts),
		zap.Error(err),
	)

	if ctx.Err() != nil {
		r.cancel(ctx.Err())
		return
	}

	if r.ordinal >= r.fetcher.policy.MaxAttempts {
		r.err = fmt.Errorf("%w after %d attempts: %w", ErrExhausted, r.ordinal, err)
		r.state = StateExhausted
		return
	}

	r.ordinal++
	r.backoff = r.fetcher.policy.Delay(r.ordinal)
	r.state = StateWaiting
}

func (r *retrieval) cancel(err error) {
	r.err = err
	r.state = StateCancelled
}

// logOutcome logs NotFound and Exhausted distinctly even though both render the same page
func (r *retrieval) logOutcome() {
	fields := []zap.Field{
		zap.String("state", string(r.state)),
		zap.Int("attempts", len(r.attempts)),
	}
	switch r.state {
	case StateSuccess:
		r.logger.Debug("bill loaded", fields...)
	case StateNotFound:
		r.logger.Info("bill not found", append(fields, zap.String("reason", "not_found"))...)
	case StateExhausted:
		r.logger.Error("bill retrieval exhausted", append(fields, zap.String("reason", "exhausted"), zap.Error(r.err))...)
	case StateInvalid:
		r.logger.Info("bill identifier rejected", append(fields, zap.String("reason", "invalid_identifier"))...)
	case StateCancelled:
		r.logger.Debug("bill retrieval cancelled", append(fields, zap.Error(r.err))...)
	}
}

// Sleep waits for d or until ctx is done
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

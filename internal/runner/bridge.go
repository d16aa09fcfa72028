package runner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/vovakirdan/nuzlocke-gauntlet/internal/core"
)

var (
	// ErrClosed is returned for requests to a closed bridge.
	ErrClosed = errors.New("runner: bridge closed")
	// ErrTimeout is returned when the env does not answer in time. The
	// request may still have been applied.
	ErrTimeout = errors.New("runner: bridge request timed out")
)

type requestKind int

const (
	reqReset requestKind = iota
	reqStep
	reqMask
	reqObserve
	reqState
)

type request struct {
	ctx    context.Context
	kind   requestKind
	action core.Action
	cfg    core.RuntimeConfig
	reply  chan response
}

type response struct {
	obs   core.Observation
	step  core.StepResult
	mask  core.ActionMask
	state core.EpisodeState
}

// Bridge owns an env on a single goroutine and serves requests from any
// number of callers, one at a time, in arrival order.
type Bridge struct {
	env     Env
	timeout time.Duration

	reqs     chan request
	done     chan struct{}
	doneOnce sync.Once

	mu       sync.Mutex
	lastUsed time.Time
}

// NewBridge starts the goroutine serving env. timeout bounds every
// request, including any battle a step triggers; 0 disables it.
func NewBridge(env Env, timeout time.Duration) *Bridge {
	b := &Bridge{
		env:      env,
		timeout:  timeout,
		reqs:     make(chan request),
		done:     make(chan struct{}),
		lastUsed: time.Now(),
	}
	go b.loop()
	return b
}

func (b *Bridge) loop() {
	for {
		select {
		case req := <-b.reqs:
			req.reply <- b.handle(req)
		case <-b.done:
			return
		}
	}
}

func (b *Bridge) handle(req request) response {
	switch req.kind {
	case reqReset:
		return response{obs: b.env.Reset(req.cfg)}
	case reqStep:
		return response{step: b.env.StepContext(req.ctx, req.action)}
	case reqMask:
		return response{mask: b.env.ActionMask()}
	case reqObserve:
		return response{obs: b.env.Observe()}
	default:
		return response{state: b.env.State()}
	}
}

func (b *Bridge) do(ctx context.Context, req request) (response, error) {
	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}
	req.ctx = ctx
	req.reply = make(chan response, 1) // the loop never blocks on a caller that gave up

	b.touch()
	select {
	case b.reqs <- req:
	case <-b.done:
		return response{}, ErrClosed
	case <-ctx.Done():
		return response{}, b.ctxErr(ctx)
	}

	select {
	case resp := <-req.reply:
		return resp, nil
	case <-b.done:
		return response{}, ErrClosed
	case <-ctx.Done():
		return response{}, b.ctxErr(ctx)
	}
}

func (b *Bridge) ctxErr(ctx context.Context) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrTimeout, ctx.Err())
	}
	return ctx.Err()
}

func (b *Bridge) touch() {
	b.mu.Lock()
	b.lastUsed = time.Now()
	b.mu.Unlock()
}

// LastUsed returns when the bridge last received a request.
func (b *Bridge) LastUsed() time.Time {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastUsed
}

// Reset starts a new run.
func (b *Bridge) Reset(ctx context.Context, cfg core.RuntimeConfig) (core.Observation, error) {
	resp, err := b.do(ctx, request{kind: reqReset, cfg: cfg})
	return resp.obs, err
}

// Step applies one action. A step that times out after the env picked it
// up still completes and its result is dropped; callers resync with Observe.
func (b *Bridge) Step(ctx context.Context, a core.Action) (core.StepResult, error) {
	resp, err := b.do(ctx, request{kind: reqStep, action: a})
	return resp.step, err
}

// Mask returns the current action mask.
func (b *Bridge) Mask(ctx context.Context) (core.ActionMask, error) {
	resp, err := b.do(ctx, request{kind: reqMask})
	return resp.mask, err
}

// Observe returns the current observation.
func (b *Bridge) Observe(ctx context.Context) (core.Observation, error) {
	resp, err := b.do(ctx, request{kind: reqObserve})
	return resp.obs, err
}

// State returns the episode summary.
func (b *Bridge) State(ctx context.Context) (core.EpisodeState, error) {
	resp, err := b.do(ctx, request{kind: reqState})
	return resp.state, err
}

// Close stops the serving goroutine. Safe to call more than once.
func (b *Bridge) Close() {
	b.doneOnce.Do(func() {
		close(b.done)
	})
}

// Done returns a channel that closes when the bridge is closed.
func (b *Bridge) Done() <-chan struct{} {
	return b.done
}

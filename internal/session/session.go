// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jeranaias/streamchat/internal/render"
	"github.com/jeranaias/streamchat/internal/stream"
)

// ErrBusy is returned by Run while another turn is streaming.
var ErrBusy = errors.New("a response is already streaming")

// =============================================================================
// TURN
// =============================================================================

// Result is the outcome of one turn.
type Result struct {
	TurnID string

	// Text is the last full text the producer reported. A cancelled or
	// failed turn keeps what was streamed before it ended.
	Text string

	// Err is the failure, if any. It is nil for a cancelled turn.
	Err error

	// Canceled is set when the turn was stopped.
	Canceled bool

	Elapsed time.Duration
}

// Turn is a turn started by Submit.
type Turn struct {
	ID string

	done   chan struct{}
	result Result
}

// Done is closed when the turn has finished.
func (t *Turn) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the turn finishes and returns its result.
func (t *Turn) Wait() Result {
	<-t.done
	return t.result
}

// =============================================================================
// SESSION
// =============================================================================

// Session is the controller shared by the UI and the producers. At most one
// turn streams at a time, and each turn runs under its own context so a
// stopped turn never affects the next one.
type Session struct {
	cancelMgr cancelManager
	logger    *zap.Logger

	mu         sync.Mutex
	producer   Producer
	autoScroll bool
}

// New creates an idle session. A nil logger disables logging.
func New(p Producer, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{
		producer:   p,
		logger:     logger,
		autoScroll: true,
	}
}

// Run runs one turn synchronously. It returns a Result with ErrBusy if a
// turn is already active.
func (s *Session) Run(ctx context.Context, prompt string, sink render.Sink) Result {
	t, turnCtx, p, ok := s.begin(ctx)
	if !ok {
		return Result{Err: ErrBusy}
	}
	s.run(turnCtx, t, p, prompt, sink)
	return t.result
}

// Submit starts a turn in a new goroutine and returns it. If a turn is
// already active, Submit acts as a stop request: it cancels the active turn
// and returns nil.
func (s *Session) Submit(ctx context.Context, prompt string, sink render.Sink) *Turn {
	return s.SubmitFunc(ctx, prompt, func(string) render.Sink { return sink })
}

// SubmitFunc is like Submit but builds the sink from the new turn's ID, so
// everything the sink emits can be tagged with the turn it belongs to.
// newSink is called before the turn starts streaming.
func (s *Session) SubmitFunc(ctx context.Context, prompt string, newSink func(turnID string) render.Sink) *Turn {
	t, turnCtx, p, ok := s.begin(ctx)
	if !ok {
		s.Stop()
		return nil
	}
	go s.run(turnCtx, t, p, prompt, newSink(t.ID))
	return t
}

// Stop cancels the active turn. It is a no-op when idle.
func (s *Session) Stop() {
	if id := s.cancelMgr.active(); id != "" && s.cancelMgr.stop() {
		s.logger.Debug("stop requested", zap.String("turn_id", id))
	}
}

// Active reports whether a turn is streaming.
func (s *Session) Active() bool {
	return s.cancelMgr.active() != ""
}

// ActiveTurn returns the active turn's ID, or "" when idle.
func (s *Session) ActiveTurn() string {
	return s.cancelMgr.active()
}

// AutoScroll reports whether the view should follow new output.
func (s *Session) AutoScroll() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.autoScroll
}

// SetAutoScroll sets the auto-scroll flag. The UI clears it when the user
// scrolls away from the bottom and sets it again when they return.
func (s *Session) SetAutoScroll(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.autoScroll = on
}

// Producer returns the producer used for new turns.
func (s *Session) Producer() Producer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.producer
}

// SetProducer replaces the producer. An active turn keeps the producer it
// started with.
func (s *Session) SetProducer(p Producer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.producer = p
}

func (s *Session) begin(ctx context.Context) (*Turn, context.Context, Producer, bool) {
	t := &Turn{ID: uuid.NewString(), done: make(chan struct{})}
	turnCtx, cancel := context.WithCancel(ctx)
	if !s.cancelMgr.start(t.ID, cancel) {
		cancel()
		return nil, nil, nil, false
	}
	return t, turnCtx, s.Producer(), true
}

func (s *Session) run(ctx context.Context, t *Turn, p Producer, prompt string, sink render.Sink) {
	log := s.logger.With(zap.String("turn_id", t.ID), zap.String("backend", p.Name()))
	log.Info("turn started", zap.Int("prompt_chars", len(prompt)))

	start := time.Now()
	text, err := p.Produce(ctx, prompt, sink)
	render.Flush(sink)

	res := Result{TurnID: t.ID, Text: text, Elapsed: time.Since(start)}
	fields := []zap.Field{zap.Int("chars", len(text)), zap.Duration("elapsed", res.Elapsed)}
	switch {
	case err == nil:
		log.Info("turn finished", fields...)
	case stream.IsCanceled(err):
		res.Canceled = true
		log.Debug("turn canceled", fields...)
	default:
		res.Err = err
		log.Error("turn failed", append(fields, zap.Error(err))...)
	}

	s.cancelMgr.clear(t.ID)
	t.result = res
	close(t.done)
}

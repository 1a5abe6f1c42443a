// Package conversation owns the append-only transcript and the Idle/Busy
// lifecycle of one assistant exchange at a time.
package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"

	"github.com/mindshard/workspace/pkg/store"
	"github.com/mindshard/workspace/pkg/stream"
	"github.com/mindshard/workspace/pkg/tokens"
	"github.com/mindshard/workspace/pkg/transcript"
	"github.com/mindshard/workspace/pkg/wire"
)

// ErrBusy is returned by Submit while an exchange is already in flight.
var ErrBusy = errors.New("conversation is busy")

// Transport opens one streaming exchange per submitted prompt.
type Transport interface {
	Execute(ctx context.Context, req wire.ExecuteRequest) *stream.Stream
}

// SideEffects receives every appended entry that may carry a side effect.
type SideEffects interface {
	Dispatch(ctx context.Context, entry transcript.Entry)
}

// Session is the conversation state machine. The transcript is append-only
// and mirrors wire arrival order; sub-entries of one step are never
// interleaved with another step's.
type Session struct {
	mu      sync.Mutex
	id      string
	trans   Transport
	effects SideEffects
	history store.KV

	entries []transcript.Entry
	busy    bool
	cancel  context.CancelFunc
	idle    chan struct{}
}

// NewSession creates a conversation session. effects and history may be
// nil. When history is set, a previously persisted transcript for the same
// id is reloaded.
func NewSession(id string, trans Transport, effects SideEffects, history store.KV) *Session {
	s := &Session{
		id:      id,
		trans:   trans,
		effects: effects,
		history: history,
	}
	s.loadHistory()
	return s
}

// Submit transitions Idle to Busy, appends the user entry and opens the
// stream. While Busy it is rejected with ErrBusy: at most one exchange is
// in flight per session.
func (s *Session) Submit(ctx context.Context, prompt string, params map[string]any, sel wire.ContextSelection) error {
	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return ErrBusy
	}
	s.busy = true
	s.idle = make(chan struct{})

	s.appendLocked(transcript.NewUserEntry(prompt))

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	idle := s.idle
	s.mu.Unlock()

	req := wire.ExecuteRequest{
		Prompt:           prompt,
		InferenceParams:  withTokenEstimate(params, prompt),
		ContextSelection: sel,
	}

	st := s.trans.Execute(runCtx, req)
	go s.consume(runCtx, st, idle)
	return nil
}

// consume drains the stream, expanding each step into transcript entries
// and dispatching side effects. Any terminal notification, end or error,
// lands the session back in Idle.
func (s *Session) consume(ctx context.Context, st *stream.Stream, idle chan struct{}) {
	defer s.setIdle(idle)

	for ev := range st.Iterator(ctx) {
		switch e := ev.(type) {
		case stream.StepEvent:
			for _, entry := range transcript.Expand(e.Step) {
				s.append(entry)
				if s.effects != nil {
					s.effects.Dispatch(ctx, entry)
				}
			}
		case stream.ErrorEvent:
			slog.Error("reasoning stream failed", "session", s.id, "error", e.Err)
			s.append(transcript.NewErrorEntry(e.Err.Error()))
		case stream.EndEvent:
			// Iterator closes after delivering this.
		}
	}
}

func (s *Session) setIdle(idle chan struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.busy = false
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	close(idle)
}

// Busy reports whether an exchange is in flight.
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}

// Wait blocks until the in-flight exchange, if any, reaches a terminal
// state.
func (s *Session) Wait() {
	s.mu.Lock()
	idle := s.idle
	busy := s.busy
	s.mu.Unlock()
	if busy && idle != nil {
		<-idle
	}
}

// Abort cancels the in-flight exchange. No transcript mutation happens
// after cancellation and the session cannot become Busy again on behalf of
// the cancelled stream.
func (s *Session) Abort() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Entries returns a copy of the transcript in append order.
func (s *Session) Entries() []transcript.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]transcript.Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Filter returns the transcript entries of the given types, a read-only
// projection over the shared log.
func (s *Session) Filter(types ...transcript.EntryType) []transcript.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return transcript.Filter(s.entries, types...)
}

func (s *Session) append(entry transcript.Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendLocked(entry)
}

func (s *Session) appendLocked(entry transcript.Entry) {
	s.entries = append(s.entries, entry)
	s.persistLocked()
}

func (s *Session) historyKey() string {
	return "transcript:" + s.id
}

// persistLocked mirrors the transcript into the session store. Failures
// are logged and never affect the in-memory transcript.
func (s *Session) persistLocked() {
	if s.history == nil {
		return
	}
	data, err := json.Marshal(s.entries)
	if err != nil {
		slog.Error("encode transcript history", "session", s.id, "error", err)
		return
	}
	if err := s.history.Set(s.historyKey(), string(data)); err != nil {
		slog.Error("persist transcript history", "session", s.id, "error", err)
	}
}

func (s *Session) loadHistory() {
	if s.history == nil {
		return
	}
	data, ok, err := s.history.Get(s.historyKey())
	if err != nil {
		slog.Error("load transcript history", "session", s.id, "error", err)
		return
	}
	if !ok {
		return
	}
	var entries []transcript.Entry
	if err := json.Unmarshal([]byte(data), &entries); err != nil {
		slog.Error("decode transcript history", "session", s.id, "error", err)
		return
	}
	s.entries = entries
}

func withTokenEstimate(params map[string]any, prompt string) map[string]any {
	out := make(map[string]any, len(params)+1)
	for k, v := range params {
		out[k] = v
	}
	out["estimated_prompt_tokens"] = tokens.EstimateSimple(prompt)
	return out
}

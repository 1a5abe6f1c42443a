package stream

import (
	"context"
	"sync"
)

// Stream is an ordered queue of events produced by one exchange. The
// producer pushes, a single consumer iterates. An EndEvent is terminal:
// nothing pushed after it is delivered.
type Stream struct {
	mu      sync.Mutex
	queue   []Event
	waiting []chan<- Event
	ended   bool
}

// NewStream creates an empty stream.
func NewStream() *Stream {
	return &Stream{}
}

// Push appends an event. Pushing an EndEvent seals the stream; later
// pushes are dropped.
func (s *Stream) Push(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ended {
		return
	}
	if _, ok := ev.(EndEvent); ok {
		s.ended = true
	}

	if len(s.waiting) > 0 {
		waiter := s.waiting[0]
		s.waiting = s.waiting[1:]
		waiter <- ev
		return
	}
	s.queue = append(s.queue, ev)
}

// Ended reports whether the terminal event has been pushed.
func (s *Stream) Ended() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ended
}

// Iterator returns a channel delivering events in push order. The channel
// closes after the EndEvent is delivered or the context is cancelled.
func (s *Stream) Iterator(ctx context.Context) <-chan Event {
	out := make(chan Event)

	go func() {
		defer close(out)
		for {
			s.mu.Lock()
			if len(s.queue) > 0 {
				ev := s.queue[0]
				s.queue = s.queue[1:]
				s.mu.Unlock()
				if !deliver(ctx, out, ev) {
					return
				}
				if _, done := ev.(EndEvent); done {
					return
				}
				continue
			}
			if s.ended {
				// Terminal event already consumed.
				s.mu.Unlock()
				return
			}
			waiter := make(chan Event, 1)
			s.waiting = append(s.waiting, waiter)
			s.mu.Unlock()

			select {
			case ev := <-waiter:
				if !deliver(ctx, out, ev) {
					return
				}
				if _, done := ev.(EndEvent); done {
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}

func deliver(ctx context.Context, out chan<- Event, ev Event) bool {
	select {
	case out <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

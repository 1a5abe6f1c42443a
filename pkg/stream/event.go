// Package stream consumes the orchestrator's line-delimited event stream and
// surfaces it as an ordered sequence of tagged events.
package stream

import "github.com/mindshard/workspace/pkg/wire"

// Event is one notification from a reasoning stream: a decoded step, a
// transport error, or the terminal end marker.
type Event interface {
	isEvent()
}

// StepEvent carries one decoded ReasoningStep.
type StepEvent struct {
	Step wire.ReasoningStep
}

// ErrorEvent reports a transport failure. It is always followed by an
// EndEvent; an error never replaces the terminal notification.
type ErrorEvent struct {
	Err error
}

// EndEvent marks the end of the stream. Exactly one is delivered per
// exchange unless the stream is cancelled first.
type EndEvent struct{}

func (StepEvent) isEvent()  {}
func (ErrorEvent) isEvent() {}
func (EndEvent) isEvent()   {}

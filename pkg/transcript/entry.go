// Package transcript derives ordered, typed entries from decoded reasoning
// steps and provides read-only filtered projections over them.
package transcript

import (
	"strings"

	"github.com/google/uuid"

	"github.com/mindshard/workspace/pkg/wire"
)

// EntryType discriminates transcript entries.
type EntryType string

const (
	EntryUser        EntryType = "user"
	EntryThought     EntryType = "thought"
	EntryFullStep    EntryType = "full_step"
	EntryToolCall    EntryType = "tool_call"
	EntryFinalAnswer EntryType = "final_answer"
	EntryError       EntryType = "error"
)

// Entry is one element of the append-only transcript. Entries are never
// edited or removed after insertion.
type Entry struct {
	ID   string    `json:"id"`
	Type EntryType `json:"type"`

	// Text carries the content of user, thought, final_answer and error
	// entries.
	Text string `json:"text,omitempty"`

	// Step is the verbatim step copy on full_step entries.
	Step *wire.ReasoningStep `json:"step,omitempty"`

	// Tool call fields.
	ToolName string         `json:"tool_name,omitempty"`
	ToolArgs map[string]any `json:"tool_args,omitempty"`
}

// NewUserEntry builds the entry appended when a prompt is submitted.
func NewUserEntry(text string) Entry {
	return Entry{ID: newToken() + "-user", Type: EntryUser, Text: text}
}

// NewErrorEntry builds a visible error entry. Errors flow into the same
// ordered transcript as any other content.
func NewErrorEntry(text string) Entry {
	return Entry{ID: newToken() + "-error", Type: EntryError, Text: text}
}

// Filter returns the entries matching any of the given types, in transcript
// order. The result is a projection: the transcript itself is never copied
// into per-view mutable state.
func Filter(entries []Entry, types ...EntryType) []Entry {
	want := make(map[EntryType]struct{}, len(types))
	for _, t := range types {
		want[t] = struct{}{}
	}

	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if _, ok := want[e.Type]; ok {
			out = append(out, e)
		}
	}
	return out
}

// newToken returns a short unique token shared by the sub-entries of one
// step.
func newToken() string {
	token := strings.ReplaceAll(uuid.NewString(), "-", "")
	if len(token) > 8 {
		token = token[:8]
	}
	return token
}

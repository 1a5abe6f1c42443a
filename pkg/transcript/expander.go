package transcript

import "github.com/mindshard/workspace/pkg/wire"

// FinalAnswerFallback is used when a final_answer step carries no answer
// text in its tool payload.
const FinalAnswerFallback = "I have completed the task."

// Expand turns one decoded ReasoningStep into its ordered transcript
// entries: always a full_step copy and a thought, then the action-specific
// entry. Sub-entry IDs share a per-step token plus a fixed suffix, so later
// filtering by type keeps a stable order.
func Expand(step wire.ReasoningStep) []Entry {
	token := newToken()
	stepCopy := step

	entries := []Entry{
		{ID: token + "-full", Type: EntryFullStep, Step: &stepCopy},
		{ID: token + "-thought", Type: EntryThought, Text: step.Thought},
	}

	switch step.Action {
	case wire.ActionToolCall:
		name := ""
		args := map[string]any{}
		// A tool_call without a payload is malformed but survivable:
		// treat the args as empty instead of failing.
		if step.ToolPayload != nil {
			name = step.ToolPayload.Name
			if step.ToolPayload.Args != nil {
				args = step.ToolPayload.Args
			}
		}
		entries = append(entries, Entry{
			ID:       token + "-tool",
			Type:     EntryToolCall,
			ToolName: name,
			ToolArgs: args,
		})
	case wire.ActionFinalAnswer:
		text := FinalAnswerFallback
		if step.ToolPayload != nil {
			if s, ok := step.ToolPayload.Args["text"].(string); ok {
				text = s
			}
		}
		entries = append(entries, Entry{
			ID:   token + "-answer",
			Type: EntryFinalAnswer,
			Text: text,
		})
	}

	return entries
}

package transcript

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mindshard/workspace/pkg/wire"
)

func TestExpandFinalAnswerWithText(t *testing.T) {
	entries := Expand(wire.ReasoningStep{
		Thought: "t1",
		Action:  wire.ActionFinalAnswer,
		ToolPayload: &wire.ToolPayload{
			Name: "answer",
			Args: map[string]any{"text": "X"},
		},
	})

	require.Len(t, entries, 3)
	assert.Equal(t, EntryFullStep, entries[0].Type)
	assert.Equal(t, EntryThought, entries[1].Type)
	assert.Equal(t, EntryFinalAnswer, entries[2].Type)
	assert.Equal(t, "t1", entries[1].Text)
	assert.Equal(t, "X", entries[2].Text)
}

func TestExpandFinalAnswerFallbackText(t *testing.T) {
	t.Run("no_tool_payload", func(t *testing.T) {
		entries := Expand(wire.ReasoningStep{Thought: "t", Action: wire.ActionFinalAnswer})
		require.Len(t, entries, 3)
		assert.Equal(t, FinalAnswerFallback, entries[2].Text)
	})

	t.Run("args_without_text", func(t *testing.T) {
		entries := Expand(wire.ReasoningStep{
			Thought:     "t",
			Action:      wire.ActionFinalAnswer,
			ToolPayload: &wire.ToolPayload{Name: "answer", Args: map[string]any{"other": 1}},
		})
		require.Len(t, entries, 3)
		assert.Equal(t, FinalAnswerFallback, entries[2].Text)
	})
}

func TestExpandToolCall(t *testing.T) {
	entries := Expand(wire.ReasoningStep{
		Thought: "editing",
		Action:  wire.ActionToolCall,
		ToolPayload: &wire.ToolPayload{
			Name: "edit_file",
			Args: map[string]any{"path": "/a.py", "content": "x=1"},
		},
	})

	require.Len(t, entries, 3)
	tool := entries[2]
	assert.Equal(t, EntryToolCall, tool.Type)
	assert.Equal(t, "edit_file", tool.ToolName)
	assert.Equal(t, "/a.py", tool.ToolArgs["path"])
}

func TestExpandToolCallWithoutPayload(t *testing.T) {
	entries := Expand(wire.ReasoningStep{Thought: "t", Action: wire.ActionToolCall})

	require.Len(t, entries, 3)
	tool := entries[2]
	assert.Equal(t, EntryToolCall, tool.Type)
	assert.Empty(t, tool.ToolName)
	require.NotNil(t, tool.ToolArgs)
	assert.Empty(t, tool.ToolArgs)
}

func TestExpandFullStepIsVerbatimCopy(t *testing.T) {
	step := wire.ReasoningStep{
		Thought:        "t",
		Action:         wire.ActionFinalAnswer,
		InspectionData: map[string]any{"prompt": "p"},
	}
	entries := Expand(step)

	require.NotNil(t, entries[0].Step)
	assert.Equal(t, step.Thought, entries[0].Step.Thought)
	assert.Equal(t, step.InspectionData, entries[0].Step.InspectionData)
}

func TestExpandIDsShareTokenWithFixedSuffixes(t *testing.T) {
	entries := Expand(wire.ReasoningStep{Thought: "t", Action: wire.ActionFinalAnswer})

	require.Len(t, entries, 3)
	full, thought, answer := entries[0].ID, entries[1].ID, entries[2].ID
	token := full[:len(full)-len("-full")]
	assert.Equal(t, token+"-full", full)
	assert.Equal(t, token+"-thought", thought)
	assert.Equal(t, token+"-answer", answer)
}

func TestExpandTokensDifferPerStep(t *testing.T) {
	a := Expand(wire.ReasoningStep{Thought: "a", Action: wire.ActionFinalAnswer})
	b := Expand(wire.ReasoningStep{Thought: "b", Action: wire.ActionFinalAnswer})
	assert.NotEqual(t, a[0].ID, b[0].ID)
}

func TestFilterIsStableProjection(t *testing.T) {
	var log []Entry
	log = append(log, NewUserEntry("hello"))
	log = append(log, Expand(wire.ReasoningStep{Thought: "t1", Action: wire.ActionFinalAnswer})...)
	log = append(log, Expand(wire.ReasoningStep{Thought: "t2", Action: wire.ActionFinalAnswer})...)

	thoughts := Filter(log, EntryThought)
	require.Len(t, thoughts, 2)
	assert.Equal(t, "t1", thoughts[0].Text)
	assert.Equal(t, "t2", thoughts[1].Text)

	mixed := Filter(log, EntryUser, EntryFinalAnswer)
	require.Len(t, mixed, 3)
	assert.Equal(t, EntryUser, mixed[0].Type)

	// Filtering never mutates the shared log.
	assert.Len(t, log, 7)
	assert.Equal(t, "hello", log[0].Text)
}

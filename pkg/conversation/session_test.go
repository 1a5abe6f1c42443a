package conversation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mindshard/workspace/pkg/stream"
	"github.com/mindshard/workspace/pkg/transcript"
	"github.com/mindshard/workspace/pkg/wire"
)

// fakeTransport hands out pre-scripted streams.
type fakeTransport struct {
	streams []*stream.Stream
	calls   []wire.ExecuteRequest
}

func (f *fakeTransport) Execute(ctx context.Context, req wire.ExecuteRequest) *stream.Stream {
	f.calls = append(f.calls, req)
	st := f.streams[0]
	f.streams = f.streams[1:]
	return st
}

type recordingEffects struct {
	entries []transcript.Entry
}

func (r *recordingEffects) Dispatch(ctx context.Context, entry transcript.Entry) {
	r.entries = append(r.entries, entry)
}

type memKV struct {
	data map[string]string
}

func newMemKV() *memKV { return &memKV{data: make(map[string]string)} }

func (m *memKV) Get(key string) (string, bool, error) {
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memKV) Set(key, value string) error {
	m.data[key] = value
	return nil
}

func finalAnswerStep(thought, text string) wire.ReasoningStep {
	return wire.ReasoningStep{
		Thought: thought,
		Action:  wire.ActionFinalAnswer,
		ToolPayload: &wire.ToolPayload{
			Name: "answer",
			Args: map[string]any{"text": text},
		},
	}
}

func TestSubmitExpandsStreamIntoTranscript(t *testing.T) {
	st := stream.NewStream()
	st.Push(stream.StepEvent{Step: finalAnswerStep("t1", "done")})

	trans := &fakeTransport{streams: []*stream.Stream{st}}
	s := NewSession("s1", trans, nil, nil)

	require.NoError(t, s.Submit(context.Background(), "List files", nil, wire.ContextSelection{}))
	assert.True(t, s.Busy())

	st.Push(stream.EndEvent{})
	s.Wait()
	assert.False(t, s.Busy())

	entries := s.Entries()
	require.Len(t, entries, 4)
	assert.Equal(t, transcript.EntryUser, entries[0].Type)
	assert.Equal(t, "List files", entries[0].Text)
	assert.Equal(t, transcript.EntryFullStep, entries[1].Type)
	assert.Equal(t, transcript.EntryThought, entries[2].Type)
	assert.Equal(t, "t1", entries[2].Text)
	assert.Equal(t, transcript.EntryFinalAnswer, entries[3].Type)
	assert.Equal(t, "done", entries[3].Text)
}

func TestSubmitRejectedWhileBusy(t *testing.T) {
	st := stream.NewStream()
	trans := &fakeTransport{streams: []*stream.Stream{st}}
	s := NewSession("s1", trans, nil, nil)

	require.NoError(t, s.Submit(context.Background(), "first", nil, wire.ContextSelection{}))
	assert.ErrorIs(t, s.Submit(context.Background(), "second", nil, wire.ContextSelection{}), ErrBusy)

	st.Push(stream.EndEvent{})
	s.Wait()

	// Only the first exchange left a trace.
	users := s.Filter(transcript.EntryUser)
	require.Len(t, users, 1)
	assert.Equal(t, "first", users[0].Text)
	assert.Len(t, trans.calls, 1)
}

func TestSubmitAgainAfterTerminal(t *testing.T) {
	first := stream.NewStream()
	first.Push(stream.EndEvent{})
	second := stream.NewStream()
	second.Push(stream.EndEvent{})

	trans := &fakeTransport{streams: []*stream.Stream{first, second}}
	s := NewSession("s1", trans, nil, nil)

	require.NoError(t, s.Submit(context.Background(), "one", nil, wire.ContextSelection{}))
	s.Wait()
	require.NoError(t, s.Submit(context.Background(), "two", nil, wire.ContextSelection{}))
	s.Wait()

	assert.Len(t, s.Filter(transcript.EntryUser), 2)
}

func TestErrorBecomesVisibleEntryThenIdle(t *testing.T) {
	st := stream.NewStream()
	st.Push(stream.ErrorEvent{Err: assert.AnError})
	st.Push(stream.EndEvent{})

	trans := &fakeTransport{streams: []*stream.Stream{st}}
	s := NewSession("s1", trans, nil, nil)

	require.NoError(t, s.Submit(context.Background(), "hi", nil, wire.ContextSelection{}))
	s.Wait()
	assert.False(t, s.Busy())

	errs := s.Filter(transcript.EntryError)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Text, assert.AnError.Error())
}

func TestStepOrderPreserved(t *testing.T) {
	st := stream.NewStream()
	st.Push(stream.StepEvent{Step: wire.ReasoningStep{Thought: "s1", Action: wire.ActionToolCall,
		ToolPayload: &wire.ToolPayload{Name: "edit_file", Args: map[string]any{"path": "/a"}}}})
	st.Push(stream.StepEvent{Step: finalAnswerStep("s2", "done")})
	st.Push(stream.EndEvent{})

	trans := &fakeTransport{streams: []*stream.Stream{st}}
	s := NewSession("s1", trans, nil, nil)

	require.NoError(t, s.Submit(context.Background(), "go", nil, wire.ContextSelection{}))
	s.Wait()

	thoughts := s.Filter(transcript.EntryThought)
	require.Len(t, thoughts, 2)
	assert.Equal(t, "s1", thoughts[0].Text)
	assert.Equal(t, "s2", thoughts[1].Text)

	// Sub-entries of one step are contiguous: full, thought, action.
	entries := s.Entries()
	require.Len(t, entries, 7)
	assert.Equal(t, transcript.EntryToolCall, entries[3].Type)
	assert.Equal(t, transcript.EntryFinalAnswer, entries[6].Type)
}

func TestSideEffectsReceiveToolCalls(t *testing.T) {
	st := stream.NewStream()
	st.Push(stream.StepEvent{Step: wire.ReasoningStep{Thought: "t", Action: wire.ActionToolCall,
		ToolPayload: &wire.ToolPayload{Name: "edit_file", Args: map[string]any{"path": "/a.py", "content": "x=1"}}}})
	st.Push(stream.EndEvent{})

	effects := &recordingEffects{}
	trans := &fakeTransport{streams: []*stream.Stream{st}}
	s := NewSession("s1", trans, effects, nil)

	require.NoError(t, s.Submit(context.Background(), "edit it", nil, wire.ContextSelection{}))
	s.Wait()

	var tools []transcript.Entry
	for _, e := range effects.entries {
		if e.Type == transcript.EntryToolCall {
			tools = append(tools, e)
		}
	}
	require.Len(t, tools, 1)
	assert.Equal(t, "edit_file", tools[0].ToolName)
}

func TestAbortReturnsToIdleWithoutTerminalEvent(t *testing.T) {
	st := stream.NewStream()
	trans := &fakeTransport{streams: []*stream.Stream{st}}
	s := NewSession("s1", trans, nil, nil)

	require.NoError(t, s.Submit(context.Background(), "hang", nil, wire.ContextSelection{}))
	assert.True(t, s.Busy())

	s.Abort()
	s.Wait()
	assert.False(t, s.Busy())

	// Nothing after the user entry: cancellation halts transcript
	// mutation.
	assert.Len(t, s.Entries(), 1)
}

func TestTranscriptPersistedAndReloaded(t *testing.T) {
	kv := newMemKV()

	st := stream.NewStream()
	st.Push(stream.StepEvent{Step: finalAnswerStep("t", "saved")})
	st.Push(stream.EndEvent{})
	trans := &fakeTransport{streams: []*stream.Stream{st}}

	s := NewSession("chat-1", trans, nil, kv)
	require.NoError(t, s.Submit(context.Background(), "remember", nil, wire.ContextSelection{}))
	s.Wait()
	require.Len(t, s.Entries(), 4)

	restored := NewSession("chat-1", &fakeTransport{}, nil, kv)
	entries := restored.Entries()
	require.Len(t, entries, 4)
	assert.Equal(t, "remember", entries[0].Text)
	assert.Equal(t, "saved", entries[3].Text)
}

func TestInferenceParamsCarryTokenEstimate(t *testing.T) {
	st := stream.NewStream()
	st.Push(stream.EndEvent{})
	trans := &fakeTransport{streams: []*stream.Stream{st}}
	s := NewSession("s1", trans, nil, nil)

	params := map[string]any{"temperature": 0.2}
	require.NoError(t, s.Submit(context.Background(), "hello world", params, wire.ContextSelection{}))
	s.Wait()

	require.Len(t, trans.calls, 1)
	sent := trans.calls[0].InferenceParams
	assert.Equal(t, 0.2, sent["temperature"])
	estimate, ok := sent["estimated_prompt_tokens"].(int)
	require.True(t, ok)
	assert.Greater(t, estimate, 0)

	// The caller's map is not mutated.
	_, leaked := params["estimated_prompt_tokens"]
	assert.False(t, leaked)
}

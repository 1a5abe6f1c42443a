// Package wire defines the request and event payload shapes exchanged with
// the Mindshard orchestrator backend.
package wire

import "encoding/json"

// Reasoning actions emitted by the orchestrator.
const (
	ActionToolCall    = "tool_call"
	ActionFinalAnswer = "final_answer"
)

// ToolPayload carries the name and arguments of a tool call.
type ToolPayload struct {
	Name string         `json:"name"`
	Args map[string]any `json:"args,omitempty"`
}

// ReasoningStep is one unit of agent reasoning: a thought plus an action.
// The backend streams one ReasoningStep per event line.
type ReasoningStep struct {
	Thought     string       `json:"thought"`
	Action      string       `json:"action"`
	ToolPayload *ToolPayload `json:"tool_payload,omitempty"`

	// FinalAnswer is kept raw: the backend emits it as either a string or
	// an object depending on how the model answered.
	FinalAnswer    json.RawMessage `json:"final_answer,omitempty"`
	InspectionData map[string]any  `json:"inspection_data,omitempty"`
}

// ContextSelection picks which knowledge sources are active for one turn.
type ContextSelection struct {
	UsePersonalMemory         bool     `json:"use_personal_memory"`
	UseConversationalHistory  bool     `json:"use_conversational_history"`
	UseActiveProject          bool     `json:"use_active_project"`
	EnabledKnowledgeLibraries []string `json:"enabled_knowledge_libraries"`
	UseOpenFiles              bool     `json:"use_open_files"`
}

// ExecuteRequest is the body of one orchestrator/execute exchange.
type ExecuteRequest struct {
	Prompt           string           `json:"prompt"`
	InferenceParams  map[string]any   `json:"inference_params"`
	ContextSelection ContextSelection `json:"context_selection"`
}

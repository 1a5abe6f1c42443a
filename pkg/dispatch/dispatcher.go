// Package dispatch routes agent tool-call entries into their local side
// effects.
package dispatch

import (
	"context"
	"log/slog"

	"github.com/mindshard/workspace/pkg/files"
	"github.com/mindshard/workspace/pkg/transcript"
	"github.com/mindshard/workspace/pkg/workspace"
)

// ToolEditFile is the designated file-edit tool: the agent hands back a
// full replacement for one project file.
const ToolEditFile = "edit_file"

// Dispatcher applies tool-call side effects to the editing session and the
// file store. Unrecognized tool names are accepted and ignored.
type Dispatcher struct {
	store   files.Store
	session *workspace.Session
}

// New creates a dispatcher. session may be nil when no editing session is
// attached (headless use).
func New(store files.Store, session *workspace.Session) *Dispatcher {
	return &Dispatcher{store: store, session: session}
}

// Dispatch inspects one transcript entry and performs its side effect.
// Non-tool-call entries are ignored.
func (d *Dispatcher) Dispatch(ctx context.Context, entry transcript.Entry) {
	if entry.Type != transcript.EntryToolCall {
		return
	}

	switch entry.ToolName {
	case ToolEditFile:
		d.editFile(ctx, entry.ToolArgs)
	default:
		slog.Debug("ignoring unrecognized tool call", "tool", entry.ToolName)
	}
}

func (d *Dispatcher) editFile(ctx context.Context, args map[string]any) {
	path, _ := args["path"].(string)
	content, _ := args["content"].(string)
	if path == "" {
		slog.Warn("edit_file call without path, dropping")
		return
	}

	if err := d.store.Save(ctx, path, content); err != nil {
		// The persistence failure is surfaced in the log; the in-memory
		// overwrite below still applies.
		slog.Error("edit_file persistence failed", "path", path, "error", err)
	}

	if d.session != nil && d.session.ApplyExternalEdit(path, content) {
		slog.Info("document updated by agent", "path", path)
	}
}

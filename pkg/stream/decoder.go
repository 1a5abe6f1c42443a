package stream

import (
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/mindshard/workspace/pkg/wire"
)

const dataPrefix = "data: "

// endSentinel is not part of the orchestrator contract (the stream ends
// when the connection closes), but some gateways inject it; accept it.
const endSentinel = "[DONE]"

// DecodeLine extracts the ReasoningStep from one event line. Lines without
// the event prefix (blanks, comments) and lines whose payload fails to
// parse are skipped; a malformed line never aborts the stream.
func DecodeLine(line string) (wire.ReasoningStep, bool) {
	if !strings.HasPrefix(line, dataPrefix) {
		return wire.ReasoningStep{}, false
	}
	payload := strings.TrimPrefix(line, dataPrefix)
	if payload == endSentinel {
		return wire.ReasoningStep{}, false
	}

	var step wire.ReasoningStep
	if err := json.Unmarshal([]byte(payload), &step); err != nil {
		slog.Debug("skipping malformed event line", "error", err, "bytes", len(payload))
		return wire.ReasoningStep{}, false
	}
	return step, true
}

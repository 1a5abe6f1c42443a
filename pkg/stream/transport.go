package stream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mindshard/workspace/pkg/wire"
)

const executePath = "/api/orchestrator/execute"

// Transport opens one streaming exchange per submitted prompt against the
// orchestrator backend.
type Transport struct {
	baseURL string
	client  *http.Client
}

// NewTransport creates a transport for the given backend base URL.
// requestTimeout bounds the whole exchange; zero means no internal timeout
// (a hung stream then relies on caller cancellation).
func NewTransport(baseURL string, requestTimeout time.Duration) *Transport {
	return &Transport{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: requestTimeout},
	}
}

// Execute submits the request and returns the stream of decoded events.
// The stream always terminates with exactly one EndEvent; a transport
// failure pushes one ErrorEvent first. After ctx is cancelled no further
// events are delivered and the connection is released.
func (t *Transport) Execute(ctx context.Context, req wire.ExecuteRequest) *Stream {
	st := NewStream()
	go t.run(ctx, req, st)
	return st
}

func (t *Transport) run(ctx context.Context, req wire.ExecuteRequest, st *Stream) {
	fail := func(err error) {
		if ctx.Err() != nil {
			return
		}
		st.Push(ErrorEvent{Err: err})
		st.Push(EndEvent{})
	}

	body, err := json.Marshal(req)
	if err != nil {
		fail(fmt.Errorf("encode request: %w", err))
		return
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+executePath, bytes.NewReader(body))
	if err != nil {
		fail(fmt.Errorf("build request: %w", err))
		return
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := t.client.Do(httpReq)
	if err != nil {
		fail(fmt.Errorf("connection error: %w", err))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		fail(fmt.Errorf("orchestrator returned %d: %s", resp.StatusCode, strings.TrimSpace(string(detail))))
		return
	}

	var lines LineBuffer
	buf := make([]byte, 4096)
	for {
		if ctx.Err() != nil {
			return
		}
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			for _, line := range lines.Feed(buf[:n]) {
				if step, ok := DecodeLine(line); ok {
					st.Push(StepEvent{Step: step})
				}
			}
		}
		if readErr != nil {
			if readErr == io.EOF {
				break
			}
			if ctx.Err() != nil || errors.Is(readErr, context.Canceled) {
				return
			}
			fail(fmt.Errorf("read stream: %w", readErr))
			return
		}
	}

	// The connection closing is the end-of-stream signal; a last line
	// without a trailing newline still counts.
	if line, ok := lines.Flush(); ok {
		if step, ok := DecodeLine(line); ok {
			st.Push(StepEvent{Step: step})
		}
	}

	if ctx.Err() != nil {
		return
	}
	slog.Debug("reasoning stream ended", "url", t.baseURL+executePath)
	st.Push(EndEvent{})
}

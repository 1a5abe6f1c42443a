// Package files talks to the backend's project file API. The collaborator
// is opaque to the rest of the client: latency, auth and error shape are
// its concern.
package files

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	getPath  = "/api/tools/project/get-file-content"
	savePath = "/api/tools/project/save-file-content"
)

// FileContent is the payload returned for one file. Media files arrive as
// a data URL; DecodeMedia extracts the raw bytes.
type FileContent struct {
	Content string `json:"content"`
}

// Store reads and writes project files.
type Store interface {
	Get(ctx context.Context, path string) (FileContent, error)
	Save(ctx context.Context, path, content string) error
}

// Client is the HTTP implementation of Store.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a file client for the given backend base URL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// Get fetches the content of one project file.
func (c *Client) Get(ctx context.Context, path string) (FileContent, error) {
	var out FileContent
	err := c.post(ctx, getPath, map[string]string{"path": path}, &out)
	if err != nil {
		return FileContent{}, fmt.Errorf("get %s: %w", path, err)
	}
	return out, nil
}

// Save writes content to one project file.
func (c *Client) Save(ctx context.Context, path, content string) error {
	var out struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	if err := c.post(ctx, savePath, map[string]string{"path": path, "content": content}, &out); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	if !out.Success {
		return fmt.Errorf("save %s: %s", path, out.Message)
	}
	return nil
}

func (c *Client) post(ctx context.Context, endpoint string, body any, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// DecodeMedia extracts raw bytes from a "data:<mime>;base64,<payload>"
// content string as returned for media files.
func DecodeMedia(content string) ([]byte, error) {
	if !strings.HasPrefix(content, "data:") {
		return nil, fmt.Errorf("not a data URL")
	}
	idx := strings.Index(content, "base64,")
	if idx < 0 {
		return nil, fmt.Errorf("missing base64 payload")
	}
	raw, err := base64.StdEncoding.DecodeString(content[idx+len("base64,"):])
	if err != nil {
		return nil, fmt.Errorf("decode media payload: %w", err)
	}
	return raw, nil
}

// Package workspace models the multi-document editing session: the set of
// open tabs, their dirty state, and the save/close lifecycle. It is mutated
// both by direct user operations and by agent tool-call side effects.
package workspace

import (
	"path/filepath"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// ViewMode selects how a document is displayed.
type ViewMode string

const (
	ViewEditor  ViewMode = "editor"
	ViewPreview ViewMode = "preview"
)

// Extensions the backend serves as base64 media rather than text.
var mediaExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".pdf":  true,
	".tiff": true,
}

// Document is one open, editable unit of file content. Path is the
// identity key, unique within the session.
type Document struct {
	Path         string
	Content      string
	Dirty        bool
	New          bool
	Media        bool
	ViewMode     ViewMode
	MediaContent []byte

	// snapshot is the content of the last successfully persisted version;
	// snapshotSum is its hash, kept for cheap dirty checks on edit.
	snapshot    string
	snapshotSum uint64
}

// Snapshot returns the last persisted content.
func (d *Document) Snapshot() string {
	return d.snapshot
}

func (d *Document) setSnapshot(content string) {
	d.snapshot = content
	d.snapshotSum = contentSum(content)
}

func contentSum(content string) uint64 {
	return xxhash.Sum64String(content)
}

// IsMediaPath classifies a path by extension.
func IsMediaPath(path string) bool {
	return mediaExtensions[strings.ToLower(filepath.Ext(path))]
}

package workspace

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Line kinds in a diff preview.
const (
	LineContext = "context"
	LineAdded   = "added"
	LineRemoved = "removed"
)

// DiffLine is one line of the preview between the last persisted snapshot
// and the current buffer.
type DiffLine struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Diff returns a line-oriented preview of the unsaved changes of an open
// document. A clean document yields only context lines.
func (s *Session) Diff(path string) ([]DiffLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.byPath[path]
	if !ok {
		return nil, ErrNotOpen
	}
	return textDiff(doc.snapshot, doc.Content), nil
}

func textDiff(before, after string) []DiffLine {
	dmp := diffmatchpatch.New()
	beforeChars, afterChars, lineArray := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffMain(beforeChars, afterChars, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	var lines []DiffLine
	for _, d := range diffs {
		chunk := strings.Split(d.Text, "\n")
		if len(chunk) > 0 && chunk[len(chunk)-1] == "" {
			chunk = chunk[:len(chunk)-1]
		}
		for _, text := range chunk {
			switch d.Type {
			case diffmatchpatch.DiffEqual:
				lines = append(lines, DiffLine{Type: LineContext, Text: text})
			case diffmatchpatch.DiffDelete:
				lines = append(lines, DiffLine{Type: LineRemoved, Text: text})
			case diffmatchpatch.DiffInsert:
				lines = append(lines, DiffLine{Type: LineAdded, Text: text})
			}
		}
	}
	return lines
}

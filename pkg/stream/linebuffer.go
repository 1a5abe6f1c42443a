package stream

import "bytes"

// LineBuffer reassembles complete lines from arbitrary byte chunks. A
// trailing partial line is carried until more bytes arrive. Splitting only
// on '\n' keeps multi-byte UTF-8 sequences intact across chunk boundaries.
type LineBuffer struct {
	carry []byte
}

// Feed appends a chunk and returns every complete line it closed off,
// without the trailing newline. A '\r' before the newline is stripped.
func (b *LineBuffer) Feed(chunk []byte) []string {
	b.carry = append(b.carry, chunk...)

	var lines []string
	for {
		idx := bytes.IndexByte(b.carry, '\n')
		if idx < 0 {
			return lines
		}
		line := b.carry[:idx]
		b.carry = b.carry[idx+1:]
		lines = append(lines, string(bytes.TrimSuffix(line, []byte{'\r'})))
	}
}

// Flush returns the carried partial line, if any. Called at end of stream.
func (b *LineBuffer) Flush() (string, bool) {
	if len(b.carry) == 0 {
		return "", false
	}
	line := string(bytes.TrimSuffix(b.carry, []byte{'\r'}))
	b.carry = nil
	return line, true
}

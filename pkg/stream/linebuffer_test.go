package stream

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLineBufferReassemblesAcrossChunks(t *testing.T) {
	var b LineBuffer

	lines := b.Feed([]byte("data: {\"thou"))
	assert.Empty(t, lines)

	lines = b.Feed([]byte("ght\":\"t1\"}\ndata: "))
	require.Len(t, lines, 1)
	assert.Equal(t, `data: {"thought":"t1"}`, lines[0])

	lines = b.Feed([]byte("{}\n"))
	require.Len(t, lines, 1)
	assert.Equal(t, "data: {}", lines[0])
}

func TestLineBufferSplitMidMultiByteRune(t *testing.T) {
	var b LineBuffer

	// "héllo" with the chunk boundary inside the two-byte é sequence.
	full := []byte("h\xc3\xa9llo\n")
	lines := b.Feed(full[:2])
	assert.Empty(t, lines)

	lines = b.Feed(full[2:])
	require.Len(t, lines, 1)
	assert.Equal(t, "héllo", lines[0])
}

func TestLineBufferStripsCarriageReturn(t *testing.T) {
	var b LineBuffer
	lines := b.Feed([]byte("one\r\ntwo\n"))
	require.Len(t, lines, 2)
	assert.Equal(t, "one", lines[0])
	assert.Equal(t, "two", lines[1])
}

func TestLineBufferFlush(t *testing.T) {
	var b LineBuffer
	b.Feed([]byte("partial"))

	line, ok := b.Flush()
	require.True(t, ok)
	assert.Equal(t, "partial", line)

	_, ok = b.Flush()
	assert.False(t, ok)
}

func TestLineBufferEveryByteSplit(t *testing.T) {
	input := "data: {\"a\":1}\ndata: {\"b\":\"ü\"}\ndata: {\"c\":3}\n"

	for cut := 1; cut < len(input); cut++ {
		var b LineBuffer
		var lines []string
		lines = append(lines, b.Feed([]byte(input[:cut]))...)
		lines = append(lines, b.Feed([]byte(input[cut:]))...)
		require.Len(t, lines, 3, "split at %d", cut)
	}
}

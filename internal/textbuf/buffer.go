// Package textbuf provides the editable text store behind an open document.
//
// A Buffer keeps its contents as a sequence of bounded byte chunks, so edits
// only rebuild the chunks they touch and readers (the parser, the coordinate
// mapper) can walk the text chunk by chunk without materializing one large
// string.
package textbuf

import (
	"fmt"
	"iter"
	"sort"
	"strings"
	"unicode/utf8"
)

// Chunk size constants control the granularity of text storage.
const (
	// MaxChunkSize is the maximum bytes per chunk.
	MaxChunkSize = 1024

	// MinChunkSize is the size below which a chunk is merged with a neighbour
	// after an edit.
	MinChunkSize = 256
)

// Buffer is an editable sequence of UTF-8 text stored in chunks.
// Chunks are never empty and never split a UTF-8 sequence.
//
// A Buffer is not safe for concurrent mutation; the owning session
// serializes access.
type Buffer struct {
	chunks [][]byte
	starts []int // byte offset of each chunk
	length int
}

// New creates a Buffer holding text.
func New(text string) *Buffer {
	b := &Buffer{}
	b.ReplaceAll(text)
	return b
}

// Len returns the length of the buffer in bytes.
func (b *Buffer) Len() int {
	return b.length
}

// String returns the full contents. Intended for tests and debugging output;
// analysis code reads through ChunkAt, Chunks or Slice.
func (b *Buffer) String() string {
	var sb strings.Builder
	sb.Grow(b.length)
	for _, c := range b.chunks {
		sb.Write(c)
	}
	return sb.String()
}

// ChunkCount returns the number of stored chunks.
func (b *Buffer) ChunkCount() int {
	return len(b.chunks)
}

// ReplaceAll discards the current contents and stores text.
func (b *Buffer) ReplaceAll(text string) {
	b.chunks = splitChunks(text)
	b.reindex(0)
}

// Replace substitutes the bytes in [start, end) with text.
// Offsets must lie on UTF-8 boundaries within the buffer.
func (b *Buffer) Replace(start, end int, text string) error {
	if start < 0 || end < start || end > b.length {
		return fmt.Errorf("textbuf: replace [%d, %d) out of range (len %d)", start, end, b.length)
	}
	if !b.isBoundary(start) || !b.isBoundary(end) {
		return fmt.Errorf("textbuf: replace [%d, %d) splits a UTF-8 sequence", start, end)
	}
	if len(b.chunks) == 0 {
		b.ReplaceAll(text)
		return nil
	}

	first := b.chunkIndex(start)
	last := b.chunkIndex(end)
	if end == b.length {
		last = len(b.chunks) - 1
	}
	// Pull in a small left neighbour so repeated edits don't fragment the buffer.
	if first > 0 && len(b.chunks[first-1]) < MinChunkSize {
		first--
	}

	regionStart := b.starts[first]
	regionEnd := b.starts[last] + len(b.chunks[last])

	var sb strings.Builder
	sb.Grow(regionEnd - regionStart - (end - start) + len(text))
	sb.WriteString(b.sliceRange(regionStart, start))
	sb.WriteString(text)
	sb.WriteString(b.sliceRange(end, regionEnd))

	replacement := splitChunks(sb.String())
	rest := append([][]byte{}, b.chunks[last+1:]...)
	b.chunks = append(append(b.chunks[:first], replacement...), rest...)
	b.reindex(first)
	return nil
}

// ChunkAt returns the longest contiguous chunk starting at offset. At or past
// the end of the buffer it returns an empty chunk. The returned slice aliases
// buffer storage and must not be modified.
func (b *Buffer) ChunkAt(offset int) []byte {
	if offset < 0 {
		offset = 0
	}
	if offset >= b.length {
		return nil
	}
	i := b.chunkIndex(offset)
	return b.chunks[i][offset-b.starts[i]:]
}

// Chunks iterates over (offset, chunk) pairs in order.
func (b *Buffer) Chunks() iter.Seq2[int, []byte] {
	return func(yield func(int, []byte) bool) {
		for i, c := range b.chunks {
			if !yield(b.starts[i], c) {
				return
			}
		}
	}
}

// Slice returns the text in [start, end), clamped to the buffer.
func (b *Buffer) Slice(start, end int) string {
	if start < 0 {
		start = 0
	}
	if end > b.length {
		end = b.length
	}
	if start >= end {
		return ""
	}
	return b.sliceRange(start, end)
}

func (b *Buffer) sliceRange(start, end int) string {
	if start >= end {
		return ""
	}
	i := b.chunkIndex(start)
	var sb strings.Builder
	sb.Grow(end - start)
	for pos := start; pos < end && i < len(b.chunks); i++ {
		c := b.chunks[i]
		lo := pos - b.starts[i]
		hi := min(len(c), end-b.starts[i])
		sb.Write(c[lo:hi])
		pos = b.starts[i] + hi
	}
	return sb.String()
}

// chunkIndex returns the index of the chunk containing offset. For
// offset == Len() it returns the last chunk.
func (b *Buffer) chunkIndex(offset int) int {
	i := sort.Search(len(b.starts), func(i int) bool { return b.starts[i] > offset }) - 1
	if i < 0 {
		return 0
	}
	return i
}

func (b *Buffer) isBoundary(offset int) bool {
	if offset == 0 || offset == b.length {
		return true
	}
	i := b.chunkIndex(offset)
	return utf8.RuneStart(b.chunks[i][offset-b.starts[i]])
}

// reindex recomputes chunk start offsets from chunk i onward.
func (b *Buffer) reindex(from int) {
	if cap(b.starts) < len(b.chunks) {
		starts := make([]int, len(b.chunks))
		copy(starts, b.starts[:min(from, len(b.starts))])
		b.starts = starts
	} else {
		b.starts = b.starts[:len(b.chunks)]
	}
	off := 0
	if from > 0 {
		off = b.starts[from-1] + len(b.chunks[from-1])
	}
	for i := from; i < len(b.chunks); i++ {
		b.starts[i] = off
		off += len(b.chunks[i])
	}
	b.length = off
}

// splitChunks cuts text into chunks of at most MaxChunkSize bytes, backing
// off to the previous rune start so no chunk splits a UTF-8 sequence.
func splitChunks(text string) [][]byte {
	if text == "" {
		return nil
	}
	chunks := make([][]byte, 0, len(text)/MaxChunkSize+1)
	for len(text) > 0 {
		n := len(text)
		if n > MaxChunkSize {
			n = MaxChunkSize
			for n > 0 && !utf8.RuneStart(text[n]) {
				n--
			}
			if n == 0 {
				n = MaxChunkSize
			}
		}
		chunks = append(chunks, []byte(text[:n]))
		text = text[n:]
	}
	return chunks
}

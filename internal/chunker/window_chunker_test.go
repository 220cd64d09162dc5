package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdfchat/internal/domain"
)

func doc(text string) domain.Document {
	return domain.Document{
		ID:       "doc1",
		Text:     text,
		Metadata: domain.Metadata{FileName: "manual.pdf", FilePath: "/kb/manual.pdf", Type: "pdf"},
	}
}

func TestChunkEmptyDocument(t *testing.T) {
	c := NewWindowChunker(1024, 20)
	chunks, err := c.Chunk(doc("   "))
	require.NoError(t, err)
	assert.Nil(t, chunks)
}

func TestChunkShortDocument(t *testing.T) {
	c := NewWindowChunker(1024, 20)
	chunks, err := c.Chunk(doc("Page 1: Install steps: run setup.exe"))
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "doc1", chunks[0].DocumentID)
	assert.Equal(t, "doc1:0", chunks[0].ChunkID)
	assert.Equal(t, "manual.pdf", chunks[0].Source)
	assert.Equal(t, 0, chunks[0].Index)
	assert.Equal(t, "Page 1: Install steps: run setup.exe", chunks[0].Text)
}

func TestChunkLongDocument(t *testing.T) {
	words := make([]string, 300)
	for i := range words {
		words[i] = "word"
	}
	text := strings.Join(words, " ") // ~1500 chars

	c := NewWindowChunker(100, 10)
	chunks, err := c.Chunk(doc(text))
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	for i, ch := range chunks {
		assert.LessOrEqual(t, len(ch.Text), 100)
		assert.NotEmpty(t, ch.Text)
		assert.Equal(t, i, ch.Index)
	}
	// every word survives chunking
	var total int
	for _, ch := range chunks {
		total += len(strings.Fields(ch.Text))
	}
	assert.GreaterOrEqual(t, total, 300)
}

func TestChunkBreaksAtWordBoundary(t *testing.T) {
	text := strings.Repeat("alpha beta gamma delta ", 20)
	c := NewWindowChunker(50, 5)
	chunks, err := c.Chunk(doc(strings.TrimSpace(text)))
	require.NoError(t, err)
	for _, ch := range chunks {
		for _, w := range strings.Fields(ch.Text) {
			assert.Contains(t, []string{"alpha", "beta", "gamma", "delta"}, w)
		}
	}
}

func TestChunkTerminatesOnUnbrokenText(t *testing.T) {
	// no spaces at all: boundary search fails, window advances by size
	text := strings.Repeat("x", 5000)
	c := NewWindowChunker(1024, 20)
	chunks, err := c.Chunk(doc(text))
	require.NoError(t, err)
	require.NotEmpty(t, chunks)
	var total int
	for _, ch := range chunks {
		total += len(ch.Text)
	}
	assert.GreaterOrEqual(t, total, 5000)
}

func TestNewWindowChunkerDefaults(t *testing.T) {
	c := NewWindowChunker(0, -1)
	assert.Equal(t, 1024, c.size)
	assert.Equal(t, 20, c.overlap)

	// overlap must stay below the window size
	c = NewWindowChunker(10, 50)
	assert.Equal(t, 10, c.size)
	assert.Less(t, c.overlap, c.size)
}

package chunker

import (
	"strconv"
	"strings"

	"pdfchat/internal/domain"
)

// WindowChunker splits text into fixed-size character windows with overlap,
// breaking at word boundaries where possible.
type WindowChunker struct {
	size    int
	overlap int
}

func NewWindowChunker(size, overlap int) *WindowChunker {
	if size <= 0 {
		size = 1024
	}
	if overlap < 0 {
		overlap = 20
	}
	if overlap >= size {
		overlap = size / 4
	}
	return &WindowChunker{size: size, overlap: overlap}
}

func (c *WindowChunker) Chunk(document domain.Document) ([]domain.Chunk, error) {
	text := strings.TrimSpace(document.Text)
	if text == "" {
		return nil, nil
	}
	var chunks []domain.Chunk
	start := 0
	idx := 0
	for start < len(text) {
		end := start + c.size
		if end >= len(text) {
			end = len(text)
		} else if i := strings.LastIndex(text[start:end], " "); i > 0 {
			end = start + i
		}
		piece := strings.TrimSpace(text[start:end])
		if piece != "" {
			chunks = append(chunks, domain.Chunk{
				DocumentID: document.ID,
				ChunkID:    document.ID + ":" + strconv.Itoa(idx),
				Source:     document.Metadata.FileName,
				Text:       piece,
				Index:      idx,
			})
			idx++
		}
		if end == len(text) {
			break
		}
		// keep the window moving even when a word-boundary break shrank it
		// below the overlap
		if end-start <= c.overlap {
			start = end
		} else {
			start = end - c.overlap
		}
	}
	return chunks, nil
}

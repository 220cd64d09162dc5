package domain

// Metadata describes where a document came from.
type Metadata struct {
	FileName string
	FilePath string
	Type     string
}

// Document is the normalized text of one source file, tagged with its origin.
type Document struct {
	ID       string
	Text     string
	Metadata Metadata
}

// Chunk is a retrievable slice of a document used for indexing.
type Chunk struct {
	DocumentID string
	ChunkID    string
	Source     string
	Text       string
	Index      int
}

// SearchResult is a matching chunk with its relevance score.
type SearchResult struct {
	Chunk Chunk
	Score float64
}

// Chunker splits documents into chunks suitable for retrieval indexing.
type Chunker interface {
	Chunk(document Document) ([]Chunk, error)
}

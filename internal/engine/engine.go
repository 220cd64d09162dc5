// Package engine builds a searchable index over document records and answers
// questions against it by retrieving relevant chunks and prompting the
// generation backend.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"pdfchat/internal/domain"
	"pdfchat/internal/embedding"
	"pdfchat/internal/llm"
	"pdfchat/internal/vectorstore"
)

// ErrNoDocuments is returned by Build when there is nothing to index.
var ErrNoDocuments = errors.New("no documents to index")

// DefaultFallbackAnswer is shown when the model returns a blank response.
const DefaultFallbackAnswer = "I couldn't find relevant information to answer your question. Please try rephrasing it or ask something else about your documents."

// Engine wires the chunker, embedder, vector store and generator together.
type Engine struct {
	chunker   domain.Chunker
	embedder  embedding.Embedder
	store     vectorstore.Storage
	generator llm.Generator
	log       *slog.Logger
}

func New(chunker domain.Chunker, embedder embedding.Embedder, store vectorstore.Storage, generator llm.Generator, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{chunker: chunker, embedder: embedder, store: store, generator: generator, log: log}
}

// Index is a handle to one fully built knowledge index. A new Build replaces
// the previous index wholesale; handles from earlier builds must be dropped.
type Index struct {
	engine    *Engine
	documents int
	chunks    int
}

// Documents returns the number of records in the index.
func (ix *Index) Documents() int { return ix.documents }

// Chunks returns the number of indexed chunks.
func (ix *Index) Chunks() int { return ix.chunks }

// Build chunks and embeds the records and loads them into a cleared vector
// store. It fails outright on any error; it never partially succeeds.
func (e *Engine) Build(ctx context.Context, records []domain.Document) (*Index, error) {
	if len(records) == 0 {
		return nil, ErrNoDocuments
	}
	var chunks []domain.Chunk
	for _, d := range records {
		cs, err := e.chunker.Chunk(d)
		if err != nil {
			return nil, fmt.Errorf("chunking %s: %w", d.Metadata.FileName, err)
		}
		chunks = append(chunks, cs...)
	}
	if len(chunks) == 0 {
		return nil, ErrNoDocuments
	}
	texts := make([]string, len(chunks))
	for i := range chunks {
		texts[i] = chunks[i].Text
	}
	vectors, err := e.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embedding documents: %w", err)
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("embedded %d chunks, got %d vectors", len(chunks), len(vectors))
	}
	if err := e.store.Clear(ctx); err != nil {
		return nil, fmt.Errorf("clearing vector store: %w", err)
	}
	if err := e.store.Init(ctx, len(vectors[0])); err != nil {
		return nil, fmt.Errorf("initializing vector store: %w", err)
	}
	if err := e.store.Upsert(ctx, chunks, vectors); err != nil {
		return nil, fmt.Errorf("storing vectors: %w", err)
	}
	e.log.Info("index built", "documents", len(records), "chunks", len(chunks), "dimension", len(vectors[0]))
	return &Index{engine: e, documents: len(records), chunks: len(chunks)}, nil
}

// QueryOptions bind retrieval parameters to an index.
type QueryOptions struct {
	TopK           int
	ResponseMode   string
	FallbackAnswer string
}

// QueryEngine answers questions against one index with fixed retrieval
// parameters. It lives and dies with its index.
type QueryEngine struct {
	index    *Index
	topK     int
	mode     string
	fallback string
}

// QueryEngine binds retrieval parameters to the index. It always succeeds on
// a valid index.
func (ix *Index) QueryEngine(opts QueryOptions) *QueryEngine {
	if opts.TopK <= 0 {
		opts.TopK = 3
	}
	if opts.ResponseMode == "" {
		opts.ResponseMode = "compact"
	}
	if opts.FallbackAnswer == "" {
		opts.FallbackAnswer = DefaultFallbackAnswer
	}
	return &QueryEngine{index: ix, topK: opts.TopK, mode: opts.ResponseMode, fallback: opts.FallbackAnswer}
}

// Answer retrieves the top-K most relevant chunks and asks the generator to
// synthesize an answer from them. A blank model response maps to the
// configured fallback message.
func (q *QueryEngine) Answer(ctx context.Context, query string) (string, error) {
	e := q.index.engine
	vec, err := e.embedder.Embed(ctx, query)
	if err != nil {
		return "", fmt.Errorf("embedding query: %w", err)
	}
	results, err := e.store.Search(ctx, vec, q.topK)
	if err != nil {
		return "", fmt.Errorf("searching index: %w", err)
	}
	if len(results) == 0 {
		return q.fallback, nil
	}
	prompt := buildPrompt(query, results)
	e.log.Info("answering query", "query", query, "retrieved", len(results))
	answer, err := e.generator.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("generating answer: %w", err)
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return q.fallback, nil
	}
	return answer, nil
}

// buildPrompt stuffs the retrieved chunks into a single compact prompt.
func buildPrompt(query string, results []domain.SearchResult) string {
	var b strings.Builder
	b.WriteString("You are a helpful assistant. Answer the question using only the provided context.\n\n")
	b.WriteString("Context:\n")
	for i, r := range results {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "[Source: %s]\n%s", r.Chunk.Source, r.Chunk.Text)
	}
	b.WriteString("\n\nQuestion: ")
	b.WriteString(query)
	b.WriteString("\n\nAnswer:")
	return b.String()
}

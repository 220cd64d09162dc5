package engine

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdfchat/internal/chunker"
	"pdfchat/internal/domain"
	"pdfchat/internal/vectorstore/memory"
)

// fakeEmbedder produces deterministic bag-of-keywords vectors so that the
// in-memory store ranks on real overlap.
type fakeEmbedder struct {
	terms []string
	err   error
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.vector(text), nil
}

func (f *fakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = f.vector(t)
	}
	return out, nil
}

func (f *fakeEmbedder) vector(text string) []float32 {
	v := make([]float32, len(f.terms)+1)
	low := strings.ToLower(text)
	for i, term := range f.terms {
		if strings.Contains(low, term) {
			v[i] = 1
		}
	}
	v[len(f.terms)] = 0.1 // keep every vector non-zero
	return v
}

type fakeGenerator struct {
	answer     string
	err        error
	lastPrompt string
}

func (f *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	f.lastPrompt = prompt
	return f.answer, f.err
}

func testEngine(gen *fakeGenerator) *Engine {
	emb := &fakeEmbedder{terms: []string{"install", "billing", "refund"}}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(chunker.NewWindowChunker(1024, 20), emb, memory.NewStorage(), gen, log)
}

func record(name, text string) domain.Document {
	return domain.Document{
		ID:       name,
		Text:     text,
		Metadata: domain.Metadata{FileName: name, FilePath: "/kb/" + name, Type: "pdf"},
	}
}

func TestBuildRejectsEmptyRecordSet(t *testing.T) {
	e := testEngine(&fakeGenerator{})
	_, err := e.Build(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoDocuments)
}

func TestBuildRejectsRecordsWithNoChunks(t *testing.T) {
	e := testEngine(&fakeGenerator{})
	_, err := e.Build(context.Background(), []domain.Document{record("blank.pdf", "   ")})
	assert.ErrorIs(t, err, ErrNoDocuments)
}

func TestBuildPropagatesEmbeddingFailure(t *testing.T) {
	gen := &fakeGenerator{}
	emb := &fakeEmbedder{err: errors.New("backend down")}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	e := New(chunker.NewWindowChunker(1024, 20), emb, memory.NewStorage(), gen, log)

	_, err := e.Build(context.Background(), []domain.Document{record("a.pdf", "Page 1: some text")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "backend down")
}

func TestAnswerUsesRetrievedContext(t *testing.T) {
	gen := &fakeGenerator{answer: "Run setup.exe to install."}
	e := testEngine(gen)
	ctx := context.Background()

	idx, err := e.Build(ctx, []domain.Document{
		record("manual.pdf", "Page 1: Install steps: run setup.exe"),
		record("billing.pdf", "Page 1: Billing is monthly, refund within 30 days"),
	})
	require.NoError(t, err)

	q := idx.QueryEngine(QueryOptions{TopK: 1})
	answer, err := q.Answer(ctx, "How do I install?")
	require.NoError(t, err)
	assert.Equal(t, "Run setup.exe to install.", answer)
	assert.Contains(t, gen.lastPrompt, "manual.pdf")
	assert.Contains(t, gen.lastPrompt, "setup.exe")
	assert.NotContains(t, gen.lastPrompt, "billing.pdf")
	assert.Contains(t, gen.lastPrompt, "How do I install?")
}

func TestAnswerMapsBlankOutputToFallback(t *testing.T) {
	gen := &fakeGenerator{answer: "   \n"}
	e := testEngine(gen)
	ctx := context.Background()

	idx, err := e.Build(ctx, []domain.Document{record("manual.pdf", "Page 1: Install steps")})
	require.NoError(t, err)

	q := idx.QueryEngine(QueryOptions{})
	answer, err := q.Answer(ctx, "anything")
	require.NoError(t, err)
	assert.Equal(t, DefaultFallbackAnswer, answer)

	q = idx.QueryEngine(QueryOptions{FallbackAnswer: "Nothing relevant found."})
	answer, err = q.Answer(ctx, "anything")
	require.NoError(t, err)
	assert.Equal(t, "Nothing relevant found.", answer)
}

func TestAnswerPropagatesGenerationFailure(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("rate limited")}
	e := testEngine(gen)
	ctx := context.Background()

	idx, err := e.Build(ctx, []domain.Document{record("manual.pdf", "Page 1: Install steps")})
	require.NoError(t, err)

	_, err = idx.QueryEngine(QueryOptions{}).Answer(ctx, "anything")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
}

func TestRebuildReplacesIndexWholesale(t *testing.T) {
	gen := &fakeGenerator{answer: "ok"}
	e := testEngine(gen)
	ctx := context.Background()

	_, err := e.Build(ctx, []domain.Document{
		record("a.pdf", "Page 1: install instructions"),
		record("b.pdf", "Page 1: billing details"),
	})
	require.NoError(t, err)

	idx2, err := e.Build(ctx, []domain.Document{
		record("c.pdf", "Page 1: refund policy"),
	})
	require.NoError(t, err)

	q := idx2.QueryEngine(QueryOptions{TopK: 3})
	_, err = q.Answer(ctx, "how do refunds and installs work?")
	require.NoError(t, err)
	assert.Contains(t, gen.lastPrompt, "c.pdf")
	assert.NotContains(t, gen.lastPrompt, "a.pdf")
	assert.NotContains(t, gen.lastPrompt, "b.pdf")
}

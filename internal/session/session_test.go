package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdfchat/internal/chunker"
	"pdfchat/internal/domain"
	"pdfchat/internal/engine"
	"pdfchat/internal/vectorstore/memory"
)

type fakeSource struct {
	docs []domain.Document
	err  error
}

func (f *fakeSource) Load(string) ([]domain.Document, error) { return f.docs, f.err }

type fakeEmbedder struct{}

func (fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	return vec(text), nil
}

func (fakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = vec(t)
	}
	return out, nil
}

func vec(text string) []float32 {
	low := strings.ToLower(text)
	v := []float32{0.1, 0, 0}
	if strings.Contains(low, "install") {
		v[1] = 1
	}
	if strings.Contains(low, "billing") {
		v[2] = 1
	}
	return v
}

type fakeGenerator struct {
	answer string
	err    error
}

func (f *fakeGenerator) Generate(context.Context, string) (string, error) {
	return f.answer, f.err
}

func doc(name, text string) domain.Document {
	return domain.Document{
		ID:       name,
		Text:     text,
		Metadata: domain.Metadata{FileName: name, FilePath: "/kb/" + name, Type: "pdf"},
	}
}

func newController(source DocumentSource, gen *fakeGenerator) *Controller {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	eng := engine.New(chunker.NewWindowChunker(1024, 20), fakeEmbedder{}, memory.NewStorage(), gen, log)
	return New("data/my_knowledge_base", source, eng, engine.QueryOptions{TopK: 3}, log)
}

func TestAskBeforeRebuildIsRejected(t *testing.T) {
	c := newController(&fakeSource{}, &fakeGenerator{answer: "ok"})
	assert.False(t, c.Ready())

	_, err := c.Ask(context.Background(), "anything")
	assert.ErrorIs(t, err, ErrNotReady)
	assert.Empty(t, c.History())
}

func TestAskRejectsBlankQuestion(t *testing.T) {
	c := newController(&fakeSource{docs: []domain.Document{doc("a.pdf", "Page 1: install guide")}}, &fakeGenerator{answer: "ok"})
	require.NoError(t, c.Rebuild(context.Background()))

	_, err := c.Ask(context.Background(), "   \t ")
	assert.ErrorIs(t, err, ErrEmptyQuestion)
	assert.Empty(t, c.History())
}

func TestRebuildWithNoDocumentsLeavesNotReady(t *testing.T) {
	c := newController(&fakeSource{}, &fakeGenerator{answer: "ok"})

	err := c.Rebuild(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no usable documents")
	assert.False(t, c.Ready())
}

func TestRebuildLoaderFailure(t *testing.T) {
	c := newController(&fakeSource{err: errors.New("disk gone")}, &fakeGenerator{})

	err := c.Rebuild(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk gone")
	assert.False(t, c.Ready())
}

func TestRebuildThenAskAppendsTranscript(t *testing.T) {
	gen := &fakeGenerator{answer: "Run setup.exe."}
	c := newController(&fakeSource{docs: []domain.Document{doc("manual.pdf", "Page 1: Install steps: run setup.exe")}}, gen)
	ctx := context.Background()

	require.NoError(t, c.Rebuild(ctx))
	assert.True(t, c.Ready())

	answer, err := c.Ask(ctx, "How do I install?")
	require.NoError(t, err)
	assert.Equal(t, "Run setup.exe.", answer)

	history := c.History()
	require.Len(t, history, 1)
	assert.Equal(t, "How do I install?", history[0].Question)
	assert.Equal(t, "Run setup.exe.", history[0].Answer)
}

func TestFailedRebuildDiscardsPreviousEngine(t *testing.T) {
	source := &fakeSource{docs: []domain.Document{doc("a.pdf", "Page 1: install guide")}}
	c := newController(source, &fakeGenerator{answer: "ok"})
	ctx := context.Background()

	require.NoError(t, c.Rebuild(ctx))
	require.True(t, c.Ready())

	source.docs = nil
	require.Error(t, c.Rebuild(ctx))
	assert.False(t, c.Ready())

	_, err := c.Ask(ctx, "anything")
	assert.ErrorIs(t, err, ErrNotReady)
}

func TestQueryFailureBecomesUserVisibleAnswer(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("model unavailable")}
	c := newController(&fakeSource{docs: []domain.Document{doc("a.pdf", "Page 1: install guide")}}, gen)
	ctx := context.Background()

	require.NoError(t, c.Rebuild(ctx))
	answer, err := c.Ask(ctx, "anything")
	require.NoError(t, err, "query failures must not crash the session")
	assert.Contains(t, answer, "model unavailable")
	assert.True(t, c.Ready(), "index state is untouched by a query failure")

	history := c.History()
	require.Len(t, history, 1)
	assert.Equal(t, answer, history[0].Answer)
}

func TestClearHistoryKeepsEngineUsable(t *testing.T) {
	gen := &fakeGenerator{answer: "ok"}
	c := newController(&fakeSource{docs: []domain.Document{doc("a.pdf", "Page 1: install guide")}}, gen)
	ctx := context.Background()

	require.NoError(t, c.Rebuild(ctx))
	_, err := c.Ask(ctx, "first question")
	require.NoError(t, err)
	_, err = c.Ask(ctx, "second question")
	require.NoError(t, err)
	require.Len(t, c.History(), 2)

	c.ClearHistory()
	assert.Empty(t, c.History())
	assert.True(t, c.Ready())

	answer, err := c.Ask(ctx, "third question")
	require.NoError(t, err)
	assert.Equal(t, "ok", answer)
	assert.Len(t, c.History(), 1)
}

func TestDocumentsListsPDFNamesOnly(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "guide.pdf"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Upper.PDF"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	eng := engine.New(chunker.NewWindowChunker(1024, 20), fakeEmbedder{}, memory.NewStorage(), &fakeGenerator{}, log)
	c := New(dir, &fakeSource{}, eng, engine.QueryOptions{}, log)

	names := c.Documents()
	assert.ElementsMatch(t, []string{"guide.pdf", "Upper.PDF"}, names)
}

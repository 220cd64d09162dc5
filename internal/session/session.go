// Package session owns the per-session state: the current knowledge index,
// its query engine, and the question/answer transcript.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"pdfchat/internal/domain"
	"pdfchat/internal/engine"
)

var (
	// ErrNotReady is returned by Ask before the first successful Rebuild.
	ErrNotReady = errors.New("knowledge base not built yet; rebuild it first")
	// ErrEmptyQuestion is returned by Ask for blank input.
	ErrEmptyQuestion = errors.New("please enter a question")
)

// DocumentSource loads document records from the knowledge-base directory.
type DocumentSource interface {
	Load(dir string) ([]domain.Document, error)
}

// Exchange is one question/answer pair in the transcript.
type Exchange struct {
	Question string
	Answer   string
}

// Controller orchestrates rebuild-on-demand and query-on-demand for one
// interactive session. It is driven by a single actor; no locking. Front ends
// must serialize access: while a Rebuild or Ask is in flight, no other method
// may be called.
type Controller struct {
	dir     string
	source  DocumentSource
	engine  *engine.Engine
	opts    engine.QueryOptions
	query   *engine.QueryEngine
	history []Exchange
	log     *slog.Logger
}

func New(dir string, source DocumentSource, eng *engine.Engine, opts engine.QueryOptions, log *slog.Logger) *Controller {
	if log == nil {
		log = slog.Default()
	}
	return &Controller{dir: dir, source: source, engine: eng, opts: opts, log: log}
}

// Ready reports whether a query engine exists, i.e. whether Ask may be called.
func (c *Controller) Ready() bool { return c.query != nil }

// Rebuild loads the knowledge-base directory and builds a fresh index. On
// success the previous index and query engine are replaced outright; on
// failure the session is left with no usable engine and the error is returned
// for display.
func (c *Controller) Rebuild(ctx context.Context) error {
	docs, err := c.source.Load(c.dir)
	if err != nil {
		c.query = nil
		return fmt.Errorf("loading documents: %w", err)
	}
	idx, err := c.engine.Build(ctx, docs)
	if err != nil {
		c.query = nil
		if errors.Is(err, engine.ErrNoDocuments) {
			return fmt.Errorf("no usable documents in %s: add PDF files and rebuild", c.dir)
		}
		return fmt.Errorf("building knowledge base: %w", err)
	}
	c.query = idx.QueryEngine(c.opts)
	c.log.Info("knowledge base rebuilt", "documents", idx.Documents(), "chunks", idx.Chunks())
	return nil
}

// Ask answers a question against the current index and records the exchange.
// It is rejected before the first successful Rebuild and for blank questions.
// Engine failures are converted to a user-visible answer string so the
// session survives them.
func (c *Controller) Ask(ctx context.Context, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", ErrEmptyQuestion
	}
	if c.query == nil {
		return "", ErrNotReady
	}
	answer, err := c.query.Answer(ctx, question)
	if err != nil {
		c.log.Error("query failed", "question", question, "error", err)
		answer = "I encountered an error while processing your question: " + err.Error()
	}
	c.history = append(c.history, Exchange{Question: question, Answer: answer})
	return answer, nil
}

// ClearHistory empties the transcript. The index and query engine are
// unaffected.
func (c *Controller) ClearHistory() { c.history = nil }

// History returns a copy of the transcript in order.
func (c *Controller) History() []Exchange {
	out := make([]Exchange, len(c.history))
	copy(out, c.history)
	return out
}

// Documents lists the PDF file names currently in the knowledge-base
// directory. This is a plain re-scan for display, independent of what the
// index was built from.
func (c *Controller) Documents() []string {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), ".pdf") {
			continue
		}
		names = append(names, e.Name())
	}
	return names
}

// Dir returns the knowledge-base directory.
func (c *Controller) Dir() string { return c.dir }

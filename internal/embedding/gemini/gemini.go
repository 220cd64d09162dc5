// Package gemini provides an embeddings client backed by the Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const (
	DefaultModel     = "text-embedding-004"
	DefaultBatchSize = 32

	maxRetries = 3
)

// Config configures the Gemini embeddings client.
type Config struct {
	APIKey    string
	Model     string
	BatchSize int
}

// Client embeds text through the Gemini embeddings endpoint.
type Client struct {
	client    *genai.Client
	model     *genai.EmbeddingModel
	batchSize int
}

// NewClient creates a new embeddings client using the provided configuration.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini embeddings: missing API key")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("gemini embeddings: %w", err)
	}
	return &Client{
		client:    client,
		model:     client.EmbeddingModel(cfg.Model),
		batchSize: cfg.BatchSize,
	}, nil
}

// Embed returns an embedding vector for the given text.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	var resp *genai.EmbedContentResponse
	err := withRetry(ctx, func() error {
		var err error
		resp, err = c.model.EmbedContent(ctx, genai.Text(text))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("embedding content: %w", err)
	}
	if resp.Embedding == nil || len(resp.Embedding.Values) == 0 {
		return nil, errors.New("no embedding returned")
	}
	return resp.Embedding.Values, nil
}

// EmbedBatch embeds texts in batches to bound request sizes.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += c.batchSize {
		end := start + c.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch := c.model.NewBatch()
		for _, t := range texts[start:end] {
			batch.AddContent(genai.Text(t))
		}
		var resp *genai.BatchEmbedContentsResponse
		err := withRetry(ctx, func() error {
			var err error
			resp, err = c.model.BatchEmbedContents(ctx, batch)
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("embedding batch at %d: %w", start, err)
		}
		if len(resp.Embeddings) != end-start {
			return nil, fmt.Errorf("embedding batch at %d: got %d vectors for %d inputs", start, len(resp.Embeddings), end-start)
		}
		for _, e := range resp.Embeddings {
			if e == nil || len(e.Values) == 0 {
				return nil, errors.New("empty embedding in batch response")
			}
			vectors = append(vectors, e.Values)
		}
	}
	return vectors, nil
}

// Close releases the underlying API client.
func (c *Client) Close() error { return c.client.Close() }

func withRetry(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if !retryable(err) || attempt == maxRetries {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryDelay(attempt)):
		}
	}
	return err
}

// retryable reports whether the call is worth repeating: rate limits, server
// errors and transport-level failures. Client errors (bad key, malformed
// request) fail on the first attempt.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code == http.StatusTooManyRequests || gerr.Code >= http.StatusInternalServerError
	}
	// no API status at all means the request never got through
	return true
}

func retryDelay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	base := 200 * time.Millisecond
	// exponential backoff capped at 5s
	d := base << attempt
	if d > 5*time.Second {
		d = 5 * time.Second
	}
	return d
}

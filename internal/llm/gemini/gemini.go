// Package gemini provides answer generation through the Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"pdfchat/internal/llm"
)

// Ensure Client implements the interface.
var _ llm.Generator = (*Client)(nil)

// Default configuration values.
const (
	DefaultModel           = "gemini-1.5-flash"
	DefaultTemperature     = 0.5
	DefaultMaxOutputTokens = 2048
)

// Config configures the Gemini generation client.
type Config struct {
	APIKey          string
	Model           string
	Temperature     float32
	MaxOutputTokens int32
}

// Client generates answers with a fixed temperature and output-length cap.
type Client struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewClient creates a generation client using the provided configuration.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini generation: missing API key")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	// zero is a valid temperature (greedy decoding); only reject nonsense
	if cfg.Temperature < 0 {
		cfg.Temperature = DefaultTemperature
	}
	if cfg.MaxOutputTokens <= 0 {
		cfg.MaxOutputTokens = DefaultMaxOutputTokens
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("gemini generation: %w", err)
	}
	model := client.GenerativeModel(cfg.Model)
	model.SetTemperature(cfg.Temperature)
	model.SetMaxOutputTokens(cfg.MaxOutputTokens)
	return &Client{client: client, model: model}, nil
}

// Generate returns the model's text output for the prompt. A response with no
// text parts yields an empty string, which the caller maps to its fallback.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := c.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("generating content: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", nil
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return b.String(), nil
}

// Close releases the underlying API client.
func (c *Client) Close() error { return c.client.Close() }

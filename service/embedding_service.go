package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/generative-ai-go/genai"
)

const (
	embeddingModelName = "text-embedding-004"

	// Provider token limits approximated by a character cap; truncation keeps the prefix
	maxEmbeddingChars = 8000

	maxRetries     = 3
	initialBackoff = time.Second
)

// ErrNoEmbedding indicates the provider returned no vector for the input text
var ErrNoEmbedding = errors.New("embedding provider returned no vector")

// Embedder turns text into a fixed-length dense vector
type Embedder interface {
	EmbedText(ctx context.Context, text string) ([]float64, error)
}

// GeminiEmbedder generates embeddings via the Gemini embedding model
type GeminiEmbedder struct {
	client *genai.Client
	model  string
}

// NewGeminiEmbedder creates an embedder backed by a Gemini client
func NewGeminiEmbedder(client *genai.Client) *GeminiEmbedder {
	return &GeminiEmbedder{
		client: client,
		model:  embeddingModelName,
	}
}

// EmbedText generates an embedding for the given text, truncated to the
// provider character budget. Transient failures are retried with exponential
// backoff before giving up.
func (e *GeminiEmbedder) EmbedText(ctx context.Context, text string) ([]float64, error) {
	if e.client == nil {
		return nil, errors.New("gemini client not set")
	}

	if len(text) > maxEmbeddingChars {
		text = text[:maxEmbeddingChars]
	}

	em := e.client.EmbeddingModel(e.model)
	em.TaskType = genai.TaskTypeRetrievalQuery

	var lastErr error
	backoff := initialBackoff
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			backoff *= 2
		}

		res, err := em.EmbedContent(ctx, genai.Text(text))
		if err != nil {
			lastErr = err
			continue
		}

		if res.Embedding == nil || len(res.Embedding.Values) == 0 {
			return nil, ErrNoEmbedding
		}

		embedding := make([]float64, len(res.Embedding.Values))
		for i, v := range res.Embedding.Values {
			embedding[i] = float64(v)
		}
		return embedding, nil
	}

	return nil, fmt.Errorf("embedding request failed after %d attempts: %w", maxRetries, lastErr)
}

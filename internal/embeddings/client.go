// Package embeddings generates text embeddings for startups and investors.
package embeddings

import (
	"context"

	"golang.org/x/time/rate"
)

// Client defines the interface for generating text embeddings.
type Client interface {
	// GetEmbedding generates an embedding vector for the given text.
	GetEmbedding(ctx context.Context, text string) ([]float32, error)

	// GetEmbeddings generates embedding vectors for multiple texts in a batch.
	// More efficient than calling GetEmbedding multiple times.
	GetEmbeddings(ctx context.Context, texts []string) ([][]float32, error)
}

// RateLimitedClient wraps a Client with a request-rate limiter so backfill
// jobs stay under the provider's requests-per-minute cap.
type RateLimitedClient struct {
	inner   Client
	limiter *rate.Limiter
}

// Ensure RateLimitedClient implements Client interface
var _ Client = (*RateLimitedClient)(nil)

// NewRateLimitedClient wraps inner, allowing requestsPerSecond with the given burst.
func NewRateLimitedClient(inner Client, requestsPerSecond float64, burst int) *RateLimitedClient {
	return &RateLimitedClient{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
	}
}

// GetEmbedding waits for a rate token, then delegates.
func (c *RateLimitedClient) GetEmbedding(ctx context.Context, text string) ([]float32, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	return c.inner.GetEmbedding(ctx, text)
}

// GetEmbeddings waits for a rate token, then delegates. A batch counts as
// one request against the limit.
func (c *RateLimitedClient) GetEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	return c.inner.GetEmbeddings(ctx, texts)
}

package embeddings

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

// OpenAIClient implements the Client interface using OpenAI's embedding API.
// text-embedding-3-small (1536 dimensions) is the production model; startup
// and investor vectors must come from the same model for cosine distance to
// mean anything.
type OpenAIClient struct {
	client *openai.Client
	model  openai.EmbeddingModel
}

// Ensure OpenAIClient implements Client interface
var _ Client = (*OpenAIClient)(nil)

// NewOpenAIClient creates an OpenAI embedding client using text-embedding-3-small.
// Panics if apiKey is empty.
func NewOpenAIClient(apiKey string) *OpenAIClient {
	return NewOpenAIClientWithModel(apiKey, openai.SmallEmbedding3)
}

// NewOpenAIClientWithModel creates an OpenAI embedding client with a custom model.
// Panics if apiKey is empty.
func NewOpenAIClientWithModel(apiKey string, model openai.EmbeddingModel) *OpenAIClient {
	if apiKey == "" {
		panic("embeddings: OpenAI API key cannot be empty")
	}

	return &OpenAIClient{
		client: openai.NewClient(apiKey),
		model:  model,
	}
}

// GetEmbedding generates an embedding vector for the given text.
func (c *OpenAIClient) GetEmbedding(ctx context.Context, text string) ([]float32, error) {
	vecs, err := c.GetEmbeddings(ctx, []string{text})
	if err != nil {
		return nil, err
	}

	return vecs[0], nil
}

// GetEmbeddings generates embedding vectors for multiple texts in one API call.
// Returns an error if any text in the input is empty.
func (c *OpenAIClient) GetEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("texts cannot be empty")
	}

	for i, t := range texts {
		if t == "" {
			return nil, fmt.Errorf("text at index %d cannot be empty", i)
		}
	}

	resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: c.model,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create embeddings: %w", err)
	}

	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("unexpected number of embeddings returned: got %d, expected %d", len(resp.Data), len(texts))
	}

	embeddings := make([][]float32, len(resp.Data))
	for i, data := range resp.Data {
		embeddings[i] = data.Embedding
	}

	return embeddings, nil
}

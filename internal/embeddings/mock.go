package embeddings

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	vecutil "github.com/ugobe007/hotmatch/pkg/embeddings"
)

// MockClient implements the Client interface for local runs and tests.
// Vectors are derived from a SHA-256 hash of the text, so the same startup
// or investor text always embeds to the same vector without an API key.
type MockClient struct {
	dimensions int
}

// Ensure MockClient implements Client interface
var _ Client = (*MockClient)(nil)

// NewMockClient creates a mock embedding client with 1536 dimensions,
// matching text-embedding-3-small.
func NewMockClient() *MockClient {
	return &MockClient{dimensions: 1536}
}

// NewMockClientWithDimensions creates a mock client with custom dimensions.
func NewMockClientWithDimensions(dimensions int) *MockClient {
	return &MockClient{dimensions: dimensions}
}

// GetEmbedding generates a deterministic embedding from the text hash.
func (c *MockClient) GetEmbedding(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("text cannot be empty")
	}

	return c.deterministicEmbedding(text), nil
}

// GetEmbeddings generates deterministic embeddings for multiple texts.
// Returns an error if any text is empty.
func (c *MockClient) GetEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("texts cannot be empty")
	}

	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		if text == "" {
			return nil, fmt.Errorf("text at index %d cannot be empty", i)
		}

		embeddings[i] = c.deterministicEmbedding(text)
	}

	return embeddings, nil
}

// deterministicEmbedding expands the text hash into a unit-length vector.
// Each dimension is re-hashed with its index so dimensions beyond the first
// 32 do not just repeat the hash bytes.
func (c *MockClient) deterministicEmbedding(text string) []float32 {
	seed := sha256.Sum256([]byte(text))
	embedding := make([]float32, c.dimensions)

	var buf [40]byte
	copy(buf[:32], seed[:])

	for i := 0; i < c.dimensions; i += 32 {
		binary.BigEndian.PutUint64(buf[32:], uint64(i))
		block := sha256.Sum256(buf[:])

		for j := 0; j < 32 && i+j < c.dimensions; j++ {
			// Map the byte into [-1, 1].
			embedding[i+j] = (float32(block[j]) / 127.5) - 1.0
		}
	}

	vecutil.NormalizeL2(embedding)

	return embedding
}

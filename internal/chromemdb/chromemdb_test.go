package chromemdb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"pdf-rag/internal/models"
)

func testChunks() ([]models.Chunk, [][]float32) {
	chunks := []models.Chunk{
		{Content: "alpha", PageNumber: 1, ChunkID: 1},
		{Content: "beta", PageNumber: 1, ChunkID: 2},
		{Content: "gamma", PageNumber: 2, ChunkID: 1},
	}
	vectors := [][]float32{
		{1, 0, 0},
		{0.8, 0.6, 0},
		{0, 0, 1},
	}
	return chunks, vectors
}

func TestIndexQueryRanksBySimilarity(t *testing.T) {
	ctx := context.Background()
	index, err := NewIndex("test")
	require.NoError(t, err)

	chunks, vectors := testChunks()
	require.NoError(t, index.Add(ctx, "a.pdf", chunks, vectors))

	results, err := index.Query(ctx, []float32{1, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.Equal(t, "alpha", results[0].Content)
	require.Equal(t, "beta", results[1].Content)
	require.Greater(t, results[0].Similarity, results[1].Similarity)
	require.Equal(t, "a.pdf", results[0].Metadata["source"])
	require.Equal(t, "1", results[0].Metadata["page"])
}

func TestIndexQueryClampsTopK(t *testing.T) {
	ctx := context.Background()
	index, err := NewIndex("test")
	require.NoError(t, err)

	chunks, vectors := testChunks()
	require.NoError(t, index.Add(ctx, "a.pdf", chunks, vectors))

	results, err := index.Query(ctx, []float32{1, 0, 0}, 10)
	require.NoError(t, err)
	require.Len(t, results, 3)
}

func TestIndexAddLengthMismatch(t *testing.T) {
	index, err := NewIndex("test")
	require.NoError(t, err)

	chunks, vectors := testChunks()
	err = index.Add(context.Background(), "a.pdf", chunks, vectors[:2])
	require.ErrorContains(t, err, "length mismatch")
}

func TestIndexQueryRequiresEmbedding(t *testing.T) {
	index, err := NewIndex("test")
	require.NoError(t, err)

	_, err = index.Query(context.Background(), nil, 4)
	require.Error(t, err)
}

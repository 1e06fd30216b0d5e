package chromemdb

import (
	"context"
	"fmt"
	"strconv"

	"github.com/philippgille/chromem-go"

	"pdf-rag/internal/models"
)

// Index is an ephemeral in-memory vector index over one document's chunks.
// It is built fresh per document, owned exclusively by that document's
// processing step, and never persisted or reused.
type Index struct {
	db         *chromem.DB
	collection *chromem.Collection
}

// NewIndex creates an empty in-memory index with the given collection name.
func NewIndex(collectionName string) (*Index, error) {
	db := chromem.NewDB()
	c, err := db.GetOrCreateCollection(collectionName, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create collection: %w", err)
	}
	return &Index{db: db, collection: c}, nil
}

// Add inserts the chunks with their precomputed embeddings. Vectors must be
// aligned with chunks. Insertion concurrency is fixed at 1 to keep the
// pipeline strictly sequential.
func (ix *Index) Add(ctx context.Context, source string, chunks []models.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("chunks and vectors length mismatch: %d != %d", len(chunks), len(vectors))
	}

	docs := make([]chromem.Document, 0, len(chunks))
	for i, chunk := range chunks {
		docs = append(docs, chromem.Document{
			ID:      fmt.Sprintf("%s-%d-%d", source, chunk.PageNumber, chunk.ChunkID),
			Content: chunk.Content,
			Metadata: map[string]string{
				"source": source,
				"page":   strconv.Itoa(chunk.PageNumber),
			},
			Embedding: vectors[i],
		})
	}

	if err := ix.collection.AddDocuments(ctx, docs, 1); err != nil {
		return fmt.Errorf("failed to add documents: %w", err)
	}
	return nil
}

// Query returns up to topK chunks most similar to the query embedding, best
// match first. topK is clamped to the collection size.
func (ix *Index) Query(ctx context.Context, queryEmbedding []float32, topK int) ([]chromem.Result, error) {
	if queryEmbedding == nil {
		return nil, fmt.Errorf("query embedding must be provided")
	}
	if count := ix.collection.Count(); topK > count {
		topK = count
	}
	if topK <= 0 {
		return nil, nil
	}

	results, err := ix.collection.QueryWithOptions(ctx, chromem.QueryOptions{
		QueryEmbedding: queryEmbedding,
		NResults:       topK,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query by similarity: %w", err)
	}
	return results, nil
}

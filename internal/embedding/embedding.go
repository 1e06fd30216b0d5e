package embedding

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"

	"pdf-rag/internal/models"
)

// NewOllamaEmbedder builds an embedder backed by a local ollama server.
// The model identifier selects the embedding model; the same identifier
// always yields vectors of the same dimensionality.
func NewOllamaEmbedder(serverURL, model string) (*embeddings.EmbedderImpl, error) {
	log.Debug().
		Str("server_url", serverURL).
		Str("embedding_model", model).
		Msg("Initializing embedder")

	llm, err := ollama.New(
		ollama.WithServerURL(serverURL),
		ollama.WithModel(model),
	)
	if err != nil {
		return nil, err
	}
	return embeddings.NewEmbedder(llm)
}

// EmbedChunks embeds each chunk in order and returns the vectors aligned
// with the input slice. Chunks are embedded one at a time; the pipeline is
// strictly sequential.
func EmbedChunks(ctx context.Context, embedder embeddings.Embedder, chunks []models.Chunk) ([][]float32, error) {
	if len(chunks) == 0 {
		log.Info().Msg("No chunks generated from content")
		return nil, nil
	}

	vectors := make([][]float32, 0, len(chunks))
	for _, chunk := range chunks {
		vector, err := embedder.EmbedQuery(ctx, chunk.Content)
		if err != nil {
			return nil, err
		}
		vectors = append(vectors, vector)
	}
	return vectors, nil
}

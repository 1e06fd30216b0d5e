package rag

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/prompts"

	"pdf-rag/internal/chromemdb"
	"pdf-rag/internal/embedding"
	"pdf-rag/internal/helper"
	"pdf-rag/internal/models"
)

// Generator produces a text completion for a fully rendered prompt.
type Generator interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// RAG answers a question against one document's chunks at a time. The
// embedder and generator are shared across documents; the vector index is
// rebuilt per call and discarded.
type RAG struct {
	embedder embeddings.Embedder
	llm      Generator
	prompt   prompts.PromptTemplate
	topK     int
}

func NewRAG(embedder embeddings.Embedder, llm Generator, topK int) *RAG {
	return &RAG{
		embedder: embedder,
		llm:      llm,
		prompt:   buildPrompt(),
		topK:     topK,
	}
}

func buildPrompt() prompts.PromptTemplate {
	return prompts.PromptTemplate{
		Template:       models.RAGPromptTemplate,
		InputVariables: []string{"context", "question"},
		TemplateFormat: prompts.TemplateFormatGoTemplate,
	}
}

// QueryDocument embeds the chunks, builds an ephemeral index over them,
// retrieves the chunks most similar to the query embedding, and generates
// an answer conditioned on them.
func (r *RAG) QueryDocument(ctx context.Context, source string, chunks []models.Chunk, question string, queryEmbedding []float32) (*models.Answer, error) {
	log.Debug().Str("source", source).Int("chunks", len(chunks)).Msg("Embedding chunks")
	vectors, err := embedding.EmbedChunks(ctx, r.embedder, chunks)
	if err != nil {
		return nil, err
	}

	collectionName, err := helper.GenerateUUID()
	if err != nil {
		return nil, err
	}
	index, err := chromemdb.NewIndex(collectionName)
	if err != nil {
		return nil, err
	}
	if err := index.Add(ctx, source, chunks, vectors); err != nil {
		return nil, err
	}

	log.Debug().Str("source", source).Int("top_k", r.topK).Msg("Retrieving chunks")
	results, err := index.Query(ctx, queryEmbedding, r.topK)
	if err != nil {
		return nil, err
	}

	retrieved := make([]string, 0, len(results))
	for _, result := range results {
		retrieved = append(retrieved, result.Content)
	}
	contextText := strings.Join(retrieved, models.ContextSeparator)

	promptText, err := r.prompt.Format(map[string]any{
		"context":  contextText,
		"question": question,
	})
	if err != nil {
		return nil, err
	}

	log.Debug().Str("source", source).Msg("Generating answer")
	content, err := r.llm.Complete(ctx, promptText)
	if err != nil {
		return nil, err
	}

	return &models.Answer{
		Query:   question,
		Source:  contextText,
		Content: strings.TrimSpace(content),
	}, nil
}

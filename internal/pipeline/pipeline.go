package pipeline

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"

	"pdf-rag/internal/helper"
	"pdf-rag/internal/models"
)

// Extractor turns one PDF file into overlapping text chunks.
type Extractor func(path string) ([]models.Chunk, error)

// Answerer answers the question against one document's chunks.
type Answerer interface {
	QueryDocument(ctx context.Context, source string, chunks []models.Chunk, question string, queryEmbedding []float32) (*models.Answer, error)
}

// Runner processes discovered PDFs one at a time, in order. A failure in one
// document is reported and never aborts the rest of the run.
type Runner struct {
	RAG     Answerer
	Extract Extractor
	Out     io.Writer
}

// Run walks the sorted paths sequentially. Each document gets exactly one
// outcome on Out: an answer, a skip notice, or a failure notice.
func (r *Runner) Run(ctx context.Context, paths []string, question string, queryEmbedding []float32) {
	for _, path := range paths {
		r.processOne(ctx, path, question, queryEmbedding)
	}
}

func (r *Runner) processOne(ctx context.Context, path, question string, queryEmbedding []float32) {
	fmt.Fprintf(r.Out, "\nProcessing File: %s\n", path)

	chunks, err := r.Extract(path)
	if err != nil {
		log.Debug().Err(err).Str("path", path).Msg("Extraction failed")
		fmt.Fprintf(r.Out, "Failed to process %s: %v\n", path, err)
		return
	}
	if len(chunks) == 0 {
		fmt.Fprintln(r.Out, "No text extracted; skipping.")
		return
	}

	answer, err := r.RAG.QueryDocument(ctx, path, chunks, question, queryEmbedding)
	if err != nil {
		log.Debug().Err(err).Str("path", path).Msg("Query failed")
		fmt.Fprintf(r.Out, "Failed to process %s: %v\n", path, err)
		return
	}

	if answer.Content != "" {
		fmt.Fprintln(r.Out, answer.Content)
		return
	}
	// No answer text came back; dump the raw result instead.
	helper.PrettyPrint(r.Out, answer)
}

package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"pdf-rag/internal/models"
)

type stubAnswerer struct {
	answers map[string]*models.Answer
	errs    map[string]error
	calls   []string
}

func (s *stubAnswerer) QueryDocument(_ context.Context, source string, _ []models.Chunk, question string, _ []float32) (*models.Answer, error) {
	s.calls = append(s.calls, source)
	if err := s.errs[source]; err != nil {
		return nil, err
	}
	if a, ok := s.answers[source]; ok {
		return a, nil
	}
	return &models.Answer{Query: question, Content: "answer for " + source}, nil
}

func oneChunk() []models.Chunk {
	return []models.Chunk{{Content: "some text", PageNumber: 1, ChunkID: 1}}
}

func TestRunProcessesEveryFileInOrder(t *testing.T) {
	var out bytes.Buffer
	answerer := &stubAnswerer{}
	runner := &Runner{
		RAG:     answerer,
		Extract: func(string) ([]models.Chunk, error) { return oneChunk(), nil },
		Out:     &out,
	}

	paths := []string{"pdf/a.pdf", "pdf/b.pdf", "pdf/c.pdf"}
	runner.Run(context.Background(), paths, "q", []float32{1})

	require.Equal(t, paths, answerer.calls)
	text := out.String()
	require.Equal(t, 3, strings.Count(text, "Processing File: "))
	for _, path := range paths {
		require.Contains(t, text, fmt.Sprintf("\nProcessing File: %s\nanswer for %s\n", path, path))
	}
	require.Less(t, strings.Index(text, "a.pdf"), strings.Index(text, "b.pdf"))
	require.Less(t, strings.Index(text, "b.pdf"), strings.Index(text, "c.pdf"))
}

func TestRunIsolatesExtractionFailure(t *testing.T) {
	var out bytes.Buffer
	answerer := &stubAnswerer{}
	runner := &Runner{
		RAG: answerer,
		Extract: func(path string) ([]models.Chunk, error) {
			if path == "pdf/b.pdf" {
				return nil, errors.New("malformed pdf")
			}
			return oneChunk(), nil
		},
		Out: &out,
	}

	runner.Run(context.Background(), []string{"pdf/a.pdf", "pdf/b.pdf", "pdf/c.pdf"}, "q", []float32{1})

	text := out.String()
	require.Contains(t, text, "Failed to process pdf/b.pdf: malformed pdf")
	require.Contains(t, text, "answer for pdf/a.pdf")
	require.Contains(t, text, "answer for pdf/c.pdf")
	// The failed file never reaches the embedding step.
	require.Equal(t, []string{"pdf/a.pdf", "pdf/c.pdf"}, answerer.calls)
}

func TestRunIsolatesQueryFailure(t *testing.T) {
	var out bytes.Buffer
	answerer := &stubAnswerer{errs: map[string]error{"pdf/a.pdf": errors.New("generation failed")}}
	runner := &Runner{
		RAG:     answerer,
		Extract: func(string) ([]models.Chunk, error) { return oneChunk(), nil },
		Out:     &out,
	}

	runner.Run(context.Background(), []string{"pdf/a.pdf", "pdf/b.pdf"}, "q", []float32{1})

	text := out.String()
	require.Contains(t, text, "Failed to process pdf/a.pdf: generation failed")
	require.Contains(t, text, "answer for pdf/b.pdf")
}

func TestRunSkipsEmptyDocuments(t *testing.T) {
	var out bytes.Buffer
	answerer := &stubAnswerer{}
	runner := &Runner{
		RAG:     answerer,
		Extract: func(string) ([]models.Chunk, error) { return nil, nil },
		Out:     &out,
	}

	runner.Run(context.Background(), []string{"pdf/scan.pdf"}, "q", []float32{1})

	require.Contains(t, out.String(), "No text extracted; skipping.")
	// Skipped documents never reach the embedding step.
	require.Empty(t, answerer.calls)
}

func TestRunFallsBackToRawResult(t *testing.T) {
	var out bytes.Buffer
	answerer := &stubAnswerer{answers: map[string]*models.Answer{
		"pdf/a.pdf": {Query: "q", Source: "ctx", Content: ""},
	}}
	runner := &Runner{
		RAG:     answerer,
		Extract: func(string) ([]models.Chunk, error) { return oneChunk(), nil },
		Out:     &out,
	}

	runner.Run(context.Background(), []string{"pdf/a.pdf"}, "q", []float32{1})

	// Raw result dump instead of an answer line.
	require.Contains(t, out.String(), `"Query": "q"`)
	require.Contains(t, out.String(), `"Source": "ctx"`)
}

func TestRunOneOutcomePerFile(t *testing.T) {
	var out bytes.Buffer
	answerer := &stubAnswerer{errs: map[string]error{"pdf/b.pdf": errors.New("boom")}}
	runner := &Runner{
		RAG: answerer,
		Extract: func(path string) ([]models.Chunk, error) {
			if path == "pdf/c.pdf" {
				return nil, nil
			}
			return oneChunk(), nil
		},
		Out: &out,
	}

	runner.Run(context.Background(), []string{"pdf/a.pdf", "pdf/b.pdf", "pdf/c.pdf"}, "q", []float32{1})

	text := out.String()
	require.Equal(t, 3, strings.Count(text, "Processing File: "))
	outcomes := strings.Count(text, "answer for ") +
		strings.Count(text, "Failed to process ") +
		strings.Count(text, "No text extracted; skipping.")
	require.Equal(t, 3, outcomes)
}

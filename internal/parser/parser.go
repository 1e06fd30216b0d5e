package parser

import (
	"fmt"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/tmc/langchaingo/textsplitter"

	"pdf-rag/internal/models"
)

const (
	defaultChunkSize    = 500 // characters
	defaultChunkOverlap = 200 // characters
)

// ExtractChunks loads one PDF, pulls the plain text of each page in order,
// and splits it into overlapping chunks. A scanned or otherwise text-free PDF
// yields an empty chunk slice, not an error.
func ExtractChunks(filePath string) ([]models.Chunk, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}

	reader, err := pdf.NewReader(f, stat.Size())
	if err != nil {
		return nil, fmt.Errorf("reading pdf: %w", err)
	}

	splitter := newSplitter()

	var chunks []models.Chunk
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("extracting page %d: %w", i, err)
		}
		pageChunks, err := chunkText(splitter, pageText, i)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, pageChunks...)
	}
	return chunks, nil
}

func newSplitter() textsplitter.RecursiveCharacter {
	// Default separators split at paragraph, then line, then word
	// boundaries before falling back to raw character cuts.
	return textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(defaultChunkSize),
		textsplitter.WithChunkOverlap(defaultChunkOverlap),
	)
}

// chunkText splits one page's text into chunks tagged with the page number.
// Whitespace-only pieces are dropped.
func chunkText(splitter textsplitter.RecursiveCharacter, text string, pageNumber int) ([]models.Chunk, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	pieces, err := splitter.SplitText(text)
	if err != nil {
		return nil, fmt.Errorf("splitting page %d: %w", pageNumber, err)
	}
	var chunks []models.Chunk
	for i, piece := range pieces {
		piece = strings.TrimSpace(piece)
		if piece == "" {
			continue
		}
		chunks = append(chunks, models.Chunk{
			Content:    piece,
			PageNumber: pageNumber,
			ChunkID:    i + 1,
		})
	}
	return chunks, nil
}

package models

// Chunk represents a parsed chunk with metadata
type Chunk struct {
	Content    string
	PageNumber int
	ChunkID    int
}

// Answer is the result of answering the question against one document.
// Source holds the retrieved context the model was conditioned on.
type Answer struct {
	Query   string
	Source  string
	Content string
}

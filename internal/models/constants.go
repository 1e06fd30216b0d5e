package models

const (
	// ContextSeparator joins retrieved chunks, in retrieval-rank order,
	// inside the prompt's context slot.
	ContextSeparator = "\n\n"
)

var (
	// RAGPromptTemplate is the fixed generation prompt. The turn delimiters
	// match the chat format of Phi-style instruct models; the template is
	// deliberately not configurable per run.
	RAGPromptTemplate = `<|user|>
Relevant information:
{{.context}}

Provide a concise answer the following question using the relevant information provided above:
{{.question}}<|end|>
<|assistant|>`
)

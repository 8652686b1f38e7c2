package rag

import (
	"fmt"
	"strings"

	"github.com/desertflora/plantrag/internal/plants"
)

// promptHeader sets the model's role before the retrieved context.
const promptHeader = "You are an expert on Arizona desert plants. " +
	"Answer the user's question based on the provided context from authoritative sources."

// promptInstructions constrain the model to the supplied context and ask
// for citations back to the numbered documents.
const promptInstructions = `Instructions:
- Provide a clear, detailed answer based on the context above
- If the context contains scientific names, include them
- If mentioning care instructions, be specific about Arizona conditions
- If the context doesn't fully answer the question, say so
- Cite which document(s) you're drawing from (e.g., "According to Document 1...")`

// buildPrompt renders the question and the retrieved documents into a single
// prompt. Each document is numbered and delimited with its score, title,
// source, and content so the model can cite it.
func buildPrompt(question string, docs []plants.RetrievalResult) string {
	var b strings.Builder

	b.WriteString(promptHeader)
	b.WriteString("\n\nContext from relevant documents:\n")

	for i, res := range docs {
		fmt.Fprintf(&b, "Document %d (Score: %.3f):\n", i+1, res.Score)
		fmt.Fprintf(&b, "Title: %s\n", res.Document.Title)
		fmt.Fprintf(&b, "Source: %s\n", res.Document.Source)
		fmt.Fprintf(&b, "Content: %s\n", res.Document.Content)
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "User Question: %s\n\n", question)
	b.WriteString(promptInstructions)
	b.WriteString("\n\nAnswer:")

	return b.String()
}

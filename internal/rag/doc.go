// Package rag implements the retrieval-augmented answer pipeline:
// embed the question, find the most similar documents in the vector store,
// assemble a grounded prompt, and ask the hosted model to compose an answer
// with citations.
//
// The pipeline is stateless; every call is independent and side-effect-free
// aside from outbound calls to the embedding model, the vector store, and
// the LLM provider.
package rag

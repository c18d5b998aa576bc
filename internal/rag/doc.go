// Package rag holds the types shared by the retrieval-augmented generation
// pipeline behind the shopping assistant.
//
// The pipeline is strictly linear per request:
//   - Embedder turns the user's question into a vector
//   - Retriever finds the nearest product snippets in the vector index
//   - the prompt assembler joins snippets and prior turns into one block
//   - Generator calls the chat model and filters hedging answers
//
// None of the components keep state between requests.
package rag

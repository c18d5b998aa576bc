package rag

import "context"

// Sender identifies who wrote a chat message.
type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

// ChatMessage is one turn of the conversation held by the chat widget.
type ChatMessage struct {
	Sender  Sender `json:"sender"`
	Content string `json:"content"`
}

// Embedding is a fixed-length vector representation of text.
type Embedding []float32

// Match is a retrieved snippet with its similarity score.
type Match struct {
	ID      string
	Content string
	Score   float64
}

// AssembledPrompt is the prompt material for a single request.
type AssembledPrompt struct {
	SystemInstruction   string
	ContextText         string
	ConversationHistory string
	Question            string
}

// Embedder generates vector embeddings for text.
type Embedder interface {
	Embed(ctx context.Context, text string) (Embedding, error)
}

// Retriever fetches the top-k nearest snippets for a query vector.
type Retriever interface {
	Retrieve(ctx context.Context, vector Embedding, k int) ([]Match, error)
}

// Generator produces the final answer for an assembled prompt context and question.
type Generator interface {
	Generate(ctx context.Context, promptContext, question string) (string, error)
}

// Body renders the context block that precedes the question in the user turn.
func (p AssembledPrompt) Body() string {
	body := p.ContextText + "\n\n"
	if p.ConversationHistory != "" {
		body += "Conversation:\n" + p.ConversationHistory
	}
	return body
}

package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/varys-hq/varys/internal/index"
	"github.com/varys-hq/varys/internal/llm"
	"github.com/varys-hq/varys/internal/models"
	"github.com/varys-hq/varys/internal/storage"
)

// Conversation roles as persisted in chat history.
const (
	RoleUser = "user"
	RoleAI   = "ai"
)

// ConversationStore persists and reads back conversation turns.
type ConversationStore interface {
	AppendTurn(ctx context.Context, sessionID, company, role, message string) error
	History(ctx context.Context, sessionID, company string) ([]models.ConversationTurn, error)
}

// Engine answers free-form questions about a company's mentions using
// the company's semantic index plus persisted conversation history. It
// is stateless between calls except via durable storage.
type Engine struct {
	turns    ConversationStore
	indexes  storage.Interface
	model    llm.ChatModel
	embedder llm.Embedder
	topK     int
}

// NewEngine creates a conversational retrieval engine. topK is the
// number of documents retrieved per query.
func NewEngine(turns ConversationStore, indexes storage.Interface, model llm.ChatModel, embedder llm.Embedder, topK int) *Engine {
	return &Engine{turns: turns, indexes: indexes, model: model, embedder: embedder, topK: topK}
}

// Ask answers one query and appends the question and the generated
// answer to the session's history. A company with no built index fails
// with index.ErrNotFound before any turn is written. If the answer-turn
// write fails after the question turn succeeded the history keeps a
// dangling question; the store is not transactional across turns.
func (e *Engine) Ask(ctx context.Context, company, query, sessionID string) (string, error) {
	history, err := e.turns.History(ctx, sessionID, company)
	if err != nil {
		return "", fmt.Errorf("failed to load conversation history: %w", err)
	}

	ix, err := index.Load(e.indexes, company)
	if err != nil {
		return "", err
	}

	docs, err := ix.Search(ctx, e.embedder, query, e.topK)
	if err != nil {
		return "", fmt.Errorf("retrieval failed for %s: %w", company, err)
	}

	answer, err := e.model.Complete(ctx, llm.AnswerSystem(), buildPrompt(company, query, docs, history))
	if err != nil {
		return "", fmt.Errorf("answer generation failed: %w", err)
	}

	if err := e.turns.AppendTurn(ctx, sessionID, company, RoleUser, query); err != nil {
		return "", err
	}
	if err := e.turns.AppendTurn(ctx, sessionID, company, RoleAI, answer); err != nil {
		logrus.Errorf("Failed to persist answer turn for session %s: %v", sessionID, err)
		return "", err
	}

	return answer, nil
}

// History returns all turns for a (session, company) pair in timestamp
// order, with no side effects.
func (e *Engine) History(ctx context.Context, sessionID, company string) ([]models.ConversationTurn, error) {
	return e.turns.History(ctx, sessionID, company)
}

func buildPrompt(company, query string, docs []index.Document, history []models.ConversationTurn) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Mention excerpts about %s:\n", company)
	for i, doc := range docs {
		fmt.Fprintf(&b, "%d. [%s, %s] %s\n", i+1, doc.Metadata.Type, doc.Metadata.Sentiment, doc.Content)
	}

	if len(history) > 0 {
		b.WriteString("\nConversation so far:\n")
		for _, turn := range history {
			label := "User"
			if turn.Role == RoleAI {
				label = "Assistant"
			}
			fmt.Fprintf(&b, "%s: %s\n", label, turn.Message)
		}
	}

	fmt.Fprintf(&b, "\nQuestion: %s", query)
	return b.String()
}

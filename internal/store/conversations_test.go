package store

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConversation_RoundTripPreservesOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	messages := []struct{ role, message string }{
		{"user", "what do people say about pay?"},
		{"ai", "mostly positive"},
		{"user", "and about culture?"},
		{"ai", "mixed"},
	}
	for _, m := range messages {
		require.NoError(t, s.AppendTurn(ctx, "sess-1", "Acme", m.role, m.message))
	}

	turns, err := s.History(ctx, "sess-1", "Acme")
	require.NoError(t, err)
	require.Len(t, turns, 4)

	for i, m := range messages {
		assert.Equal(t, m.role, turns[i].Role)
		assert.Equal(t, m.message, turns[i].Message)
		assert.Equal(t, "sess-1", turns[i].SessionID)
		assert.Equal(t, "Acme", turns[i].Company)
	}
	for i := 1; i < len(turns); i++ {
		assert.False(t, turns[i].Timestamp.Before(turns[i-1].Timestamp))
	}
}

func TestConversation_ScopedBySessionAndCompany(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AppendTurn(ctx, "sess-1", "Acme", "user", "about Acme"))
	require.NoError(t, s.AppendTurn(ctx, "sess-1", "Globex", "user", "about Globex"))
	require.NoError(t, s.AppendTurn(ctx, "sess-2", "Acme", "user", "other session"))

	turns, err := s.History(ctx, "sess-1", "Acme")
	require.NoError(t, err)
	require.Len(t, turns, 1)
	assert.Equal(t, "about Acme", turns[0].Message)
}

func TestConversation_EmptyHistory(t *testing.T) {
	s := newTestStore(t)

	turns, err := s.History(context.Background(), "nope", "Acme")
	require.NoError(t, err)
	assert.Empty(t, turns)
}

func TestConversation_ManyTurnsStayOrdered(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		role := "user"
		if i%2 == 1 {
			role = "ai"
		}
		require.NoError(t, s.AppendTurn(ctx, "sess-long", "Acme", role, fmt.Sprintf("turn %02d", i)))
	}

	turns, err := s.History(ctx, "sess-long", "Acme")
	require.NoError(t, err)
	require.Len(t, turns, 20)
	for i, turn := range turns {
		assert.Equal(t, fmt.Sprintf("turn %02d", i), turn.Message)
	}
}

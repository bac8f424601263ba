package store

import (
	"context"
	"fmt"
	"time"

	"github.com/varys-hq/varys/internal/models"
)

// AppendTurn records one conversation utterance. The timestamp is
// assigned here at write time so turns read back in insertion order.
func (s *Store) AppendTurn(ctx context.Context, sessionID, company, role, message string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO chat_sessions (session_id, company, role, message, timestamp)
		 VALUES ($1, $2, $3, $4, $5)`,
		sessionID, company, role, message, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to append %s turn: %w", role, err)
	}
	return nil
}

// History returns all turns for a (session, company) pair ordered by
// timestamp ascending, id breaking ties for turns written within the
// same clock tick.
func (s *Store) History(ctx context.Context, sessionID, company string) ([]models.ConversationTurn, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT session_id, company, role, message, timestamp
		 FROM chat_sessions
		 WHERE session_id = $1 AND company = $2
		 ORDER BY timestamp ASC, id ASC`,
		sessionID, company,
	)
	if err != nil {
		return nil, fmt.Errorf("history query failed: %w", err)
	}
	defer rows.Close()

	var turns []models.ConversationTurn
	for rows.Next() {
		var t models.ConversationTurn
		if err := rows.Scan(&t.SessionID, &t.Company, &t.Role, &t.Message, &t.Timestamp); err != nil {
			return nil, fmt.Errorf("turn scan failed: %w", err)
		}
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

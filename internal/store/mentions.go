package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"
	"github.com/varys-hq/varys/internal/models"
)

// InsertOutcome reports what happened to one mention write.
type InsertOutcome int

const (
	// Inserted means a new row was written.
	Inserted InsertOutcome = iota
	// SkippedDuplicate means a row with the same (company, text) already
	// exists; nothing was written. Not an error.
	SkippedDuplicate
	// Failed means the write did not complete.
	Failed
)

// String returns the outcome label used in logs and reports.
func (o InsertOutcome) String() string {
	switch o {
	case Inserted:
		return "inserted"
	case SkippedDuplicate:
		return "skipped"
	default:
		return "failed"
	}
}

// InsertMention persists one enriched mention. Inside one transaction it
// checks for an existing row with the same (company, text) and skips the
// write when found. The schema-level unique constraint backstops the
// check: a unique violation on commit is reported as a duplicate skip,
// not a failure.
func (s *Store) InsertMention(ctx context.Context, m models.EnrichedMention) (InsertOutcome, error) {
	if err := m.Validate(); err != nil {
		return Failed, err
	}

	keywords := m.Keywords
	if keywords == nil {
		keywords = []string{}
	}
	keywordsJSON, err := json.Marshal(keywords)
	if err != nil {
		return Failed, fmt.Errorf("failed to serialize keywords: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Failed, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx,
		`SELECT 1 FROM mentions WHERE company = $1 AND text = $2 LIMIT 1`,
		m.Company, m.Text,
	).Scan(&exists)
	if err == nil {
		logrus.Debugf("Mention for %s already exists, skipped", m.Company)
		return SkippedDuplicate, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return Failed, fmt.Errorf("duplicate check failed: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO mentions (company, source, type, sentiment, keywords, text, translated, rating)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		m.Company, m.Source, m.Type, m.Sentiment, string(keywordsJSON), m.Text, m.Translated, m.Rating,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return SkippedDuplicate, nil
		}
		return Failed, fmt.Errorf("insert failed: %w", err)
	}

	if err := tx.Commit(); err != nil {
		if isUniqueViolation(err) {
			return SkippedDuplicate, nil
		}
		return Failed, fmt.Errorf("commit failed: %w", err)
	}
	return Inserted, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique")
}

// MentionFilter narrows a mention listing. Company is required.
type MentionFilter struct {
	Company   string
	Type      string
	Sentiment string
	Keyword   string
	Limit     int
}

// ListMentions returns persisted mentions matching the filter, newest
// first, with rows carrying duplicate text collapsed to the first seen.
func (s *Store) ListMentions(ctx context.Context, f MentionFilter) ([]models.Mention, error) {
	if f.Company == "" {
		return nil, fmt.Errorf("company is required")
	}
	if f.Limit <= 0 {
		f.Limit = 10
	}

	query := `SELECT company, source, type, sentiment, keywords, text, translated, rating
		FROM mentions WHERE company = $1`
	args := []any{f.Company}

	if f.Type != "" {
		args = append(args, f.Type)
		query += fmt.Sprintf(" AND type = $%d", len(args))
	}
	if f.Sentiment != "" {
		args = append(args, f.Sentiment)
		query += fmt.Sprintf(" AND sentiment = $%d", len(args))
	}
	if f.Keyword != "" {
		args = append(args, "%"+strings.ToLower(f.Keyword)+"%")
		query += fmt.Sprintf(" AND LOWER(keywords) LIKE $%d", len(args))
	}

	args = append(args, f.Limit)
	query += fmt.Sprintf(" ORDER BY id DESC LIMIT $%d", len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("mention query failed: %w", err)
	}
	defer rows.Close()

	seen := make(map[string]bool)
	var mentions []models.Mention
	for rows.Next() {
		m, err := scanMention(rows)
		if err != nil {
			return nil, err
		}
		if seen[m.Text] {
			continue
		}
		seen[m.Text] = true
		mentions = append(mentions, m)
	}
	return mentions, rows.Err()
}

// MentionsForCompany returns every persisted mention for one company, in
// insertion order. Used by the semantic index builder.
func (s *Store) MentionsForCompany(ctx context.Context, company string) ([]models.Mention, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT company, source, type, sentiment, keywords, text, translated, rating
		 FROM mentions WHERE company = $1 ORDER BY id`,
		company,
	)
	if err != nil {
		return nil, fmt.Errorf("mention query failed: %w", err)
	}
	defer rows.Close()

	var mentions []models.Mention
	for rows.Next() {
		m, err := scanMention(rows)
		if err != nil {
			return nil, err
		}
		mentions = append(mentions, m)
	}
	return mentions, rows.Err()
}

func scanMention(rows *sql.Rows) (models.Mention, error) {
	var m models.Mention
	var source, mentionType, sentiment, keywordsJSON, translated sql.NullString
	var rating sql.NullFloat64

	if err := rows.Scan(&m.Company, &source, &mentionType, &sentiment, &keywordsJSON, &m.Text, &translated, &rating); err != nil {
		return models.Mention{}, fmt.Errorf("mention scan failed: %w", err)
	}

	m.Source = source.String
	m.Type = mentionType.String
	m.Sentiment = sentiment.String
	m.Translated = translated.String
	if rating.Valid {
		r := rating.Float64
		m.Rating = &r
	}
	if keywordsJSON.String != "" {
		if err := json.Unmarshal([]byte(keywordsJSON.String), &m.Keywords); err != nil {
			logrus.Warnf("Malformed keywords for mention of %s: %v", m.Company, err)
		}
	}
	return m, nil
}

// BreakdownEntry is one bucket of an aggregate count.
type BreakdownEntry struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// SentimentBreakdown returns mention counts per sentiment for a company,
// most frequent first.
func (s *Store) SentimentBreakdown(ctx context.Context, company string) ([]BreakdownEntry, error) {
	return s.breakdown(ctx, "sentiment", company)
}

// TypeBreakdown returns mention counts per type for a company, most
// frequent first.
func (s *Store) TypeBreakdown(ctx context.Context, company string) ([]BreakdownEntry, error) {
	return s.breakdown(ctx, "type", company)
}

func (s *Store) breakdown(ctx context.Context, column, company string) ([]BreakdownEntry, error) {
	query := fmt.Sprintf(
		`SELECT %s, COUNT(*) AS count FROM mentions WHERE company = $1 GROUP BY %s ORDER BY count DESC`,
		column, column,
	)
	rows, err := s.db.QueryContext(ctx, query, company)
	if err != nil {
		return nil, fmt.Errorf("%s breakdown failed: %w", column, err)
	}
	defer rows.Close()

	var entries []BreakdownEntry
	for rows.Next() {
		var e BreakdownEntry
		var label sql.NullString
		if err := rows.Scan(&label, &e.Count); err != nil {
			return nil, err
		}
		e.Label = label.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

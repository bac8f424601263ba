package models

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// ScrapedPost is one Reddit submission gathered by a scraper, together with
// the comments that mention the tracked company.
type ScrapedPost struct {
	Source   string    `json:"source"`
	Company  string    `json:"company"`
	Review   string    `json:"review"`
	Comments []string  `json:"comments"`
	Date     time.Time `json:"date"`
	PostURL  string    `json:"post_url"`
}

// RawMention is one unit of scraped text before enrichment.
type RawMention struct {
	ID     string `json:"id,omitempty"`
	Source string `json:"source"`
	Text   string `json:"text"`
	Type   string `json:"type,omitempty"` // "post" or "comment" hint
}

// DedupKey returns the identity used to collapse duplicate raw mentions
// within one enrichment run: the external id when present, otherwise a
// content hash of the text. An upstream source that reuses ids for
// different content will silently collapse them (last occurrence wins).
func (m RawMention) DedupKey() string {
	if m.ID != "" {
		return m.ID
	}
	sum := sha256.Sum256([]byte(m.Text))
	return hex.EncodeToString(sum[:])
}

// Enrichment holds the model-derived attributes for one text unit. All
// fields are plain strings as returned by the model; Keywords is a
// comma-delimited string until the batch enricher normalizes it.
type Enrichment struct {
	Translated    string `json:"translated"`
	Type          string `json:"type"`
	Sentiment     string `json:"sentiment"`
	Keywords      string `json:"keywords"`
	FocusedReview string `json:"focused_review,omitempty"`
}

// EnrichedMention is a RawMention merged with its enrichment output.
type EnrichedMention struct {
	ID            string   `json:"id,omitempty"`
	Company       string   `json:"company"`
	Source        string   `json:"source"`
	Text          string   `json:"text"`
	Type          string   `json:"type"`
	Translated    string   `json:"translated"`
	Sentiment     string   `json:"sentiment"`
	Keywords      []string `json:"keywords"`
	FocusedReview string   `json:"focused_review,omitempty"`
	Rating        *float64 `json:"rating,omitempty"`
}

// Validate checks the fields that form the mention store's natural key.
func (m *EnrichedMention) Validate() error {
	if m.Company == "" {
		return fmt.Errorf("mention is missing company")
	}
	if m.Text == "" {
		return fmt.Errorf("mention is missing text")
	}
	return nil
}

// Mention is one persisted row in the mention store.
type Mention struct {
	Company    string   `json:"company"`
	Source     string   `json:"source"`
	Type       string   `json:"type"`
	Sentiment  string   `json:"sentiment"`
	Keywords   []string `json:"keywords"`
	Text       string   `json:"text"`
	Translated string   `json:"translated,omitempty"`
	Rating     *float64 `json:"rating,omitempty"`
}

// ConversationTurn is one recorded utterance in a company-scoped chat
// session. Role is "user" or "ai".
type ConversationTurn struct {
	SessionID string    `json:"session_id"`
	Company   string    `json:"company"`
	Role      string    `json:"role"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Company status labels, last write wins.
const (
	StatusPreparing  = "Preparing"
	StatusScraping   = "Scraping"
	StatusEnriching  = "Enriching"
	StatusPopulating = "Populating"
	StatusIndexing   = "Indexing"
	StatusReady      = "Ready"
	StatusFailed     = "Failed"
)

// RunReport summarizes one pipeline run for a company.
type RunReport struct {
	RunID       string        `json:"run_id"`
	Company     string        `json:"company"`
	StartedAt   time.Time     `json:"started_at"`
	Duration    time.Duration `json:"duration"`
	Scraped     int           `json:"scraped"`
	RawMentions int           `json:"raw_mentions"`
	Enriched    int           `json:"enriched"`
	Inserted    int           `json:"inserted"`
	Skipped     int           `json:"skipped"`
	Failed      int           `json:"failed"`
	Indexed     int           `json:"indexed"`
	Err         string        `json:"error,omitempty"`
}

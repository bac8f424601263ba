package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/varys-hq/varys/internal/index"
	"github.com/varys-hq/varys/internal/models"
	"github.com/varys-hq/varys/internal/store"
)

// MentionReader is the read-only slice of the relational store served by
// the API.
type MentionReader interface {
	ListMentions(ctx context.Context, f store.MentionFilter) ([]models.Mention, error)
	SentimentBreakdown(ctx context.Context, company string) ([]store.BreakdownEntry, error)
	TypeBreakdown(ctx context.Context, company string) ([]store.BreakdownEntry, error)
	GetCompanyStatus(ctx context.Context, name string) (store.CompanyStatus, error)
	ListCompanies(ctx context.Context) ([]store.CompanyStatus, error)
}

// ChatEngine answers conversational queries and serves history.
type ChatEngine interface {
	Ask(ctx context.Context, company, query, sessionID string) (string, error)
	History(ctx context.Context, sessionID, company string) ([]models.ConversationTurn, error)
}

// PipelineRunner runs the full pipeline for one company.
type PipelineRunner interface {
	Run(ctx context.Context, company string, limit int) (*models.RunReport, error)
}

// Handler exposes the HTTP surface.
type Handler struct {
	mentions    MentionReader
	chat        ChatEngine
	pipeline    PipelineRunner
	scrapeLimit int
}

// NewHandler creates the API handler.
func NewHandler(mentions MentionReader, chat ChatEngine, pipeline PipelineRunner, scrapeLimit int) *Handler {
	return &Handler{mentions: mentions, chat: chat, pipeline: pipeline, scrapeLimit: scrapeLimit}
}

// Router builds the route table.
func (h *Handler) Router() *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/health", h.health).Methods("GET")
	router.HandleFunc("/mentions", h.listMentions).Methods("GET")
	router.HandleFunc("/sentiment-breakdown", h.sentimentBreakdown).Methods("GET")
	router.HandleFunc("/mention-types", h.typeBreakdown).Methods("GET")
	router.HandleFunc("/chat", h.askChat).Methods("POST")
	router.HandleFunc("/chat/history", h.chatHistory).Methods("GET")
	router.HandleFunc("/companies", h.listCompanies).Methods("GET")
	router.HandleFunc("/companies/{name}/run", h.triggerRun).Methods("POST")
	router.HandleFunc("/companies/{name}/status", h.companyStatus).Methods("GET")
	return router
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func (h *Handler) listMentions(w http.ResponseWriter, r *http.Request) {
	company := r.URL.Query().Get("company")
	if company == "" {
		writeError(w, http.StatusBadRequest, "company is required")
		return
	}

	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	mentions, err := h.mentions.ListMentions(r.Context(), store.MentionFilter{
		Company:   company,
		Type:      r.URL.Query().Get("type"),
		Sentiment: r.URL.Query().Get("sentiment"),
		Keyword:   r.URL.Query().Get("keyword"),
		Limit:     limit,
	})
	if err != nil {
		logrus.Errorf("Mention listing failed: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list mentions")
		return
	}
	if mentions == nil {
		mentions = []models.Mention{}
	}
	writeJSON(w, http.StatusOK, mentions)
}

func (h *Handler) sentimentBreakdown(w http.ResponseWriter, r *http.Request) {
	h.breakdown(w, r, h.mentions.SentimentBreakdown)
}

func (h *Handler) typeBreakdown(w http.ResponseWriter, r *http.Request) {
	h.breakdown(w, r, h.mentions.TypeBreakdown)
}

func (h *Handler) breakdown(w http.ResponseWriter, r *http.Request, fn func(context.Context, string) ([]store.BreakdownEntry, error)) {
	company := r.URL.Query().Get("company")
	if company == "" {
		writeError(w, http.StatusBadRequest, "company is required")
		return
	}

	entries, err := fn(r.Context(), company)
	if err != nil {
		logrus.Errorf("Breakdown query failed: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to compute breakdown")
		return
	}
	if entries == nil {
		entries = []store.BreakdownEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// chatRequest is the conversational query payload.
type chatRequest struct {
	Company   string `json:"company"`
	Query     string `json:"query"`
	SessionID string `json:"session_id"`
}

func (h *Handler) askChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Company == "" || req.Query == "" || req.SessionID == "" {
		writeError(w, http.StatusBadRequest, "company, query and session_id are required")
		return
	}

	answer, err := h.chat.Ask(r.Context(), req.Company, req.Query, req.SessionID)
	if err != nil {
		if errors.Is(err, index.ErrNotFound) {
			writeError(w, http.StatusNotFound, "no semantic index built for this company")
			return
		}
		logrus.Errorf("Chat query failed for %s: %v", req.Company, err)
		writeError(w, http.StatusInternalServerError, "failed to answer query")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"answer": answer})
}

func (h *Handler) chatHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	company := r.URL.Query().Get("company")
	if sessionID == "" || company == "" {
		writeError(w, http.StatusBadRequest, "session_id and company are required")
		return
	}

	turns, err := h.chat.History(r.Context(), sessionID, company)
	if err != nil {
		logrus.Errorf("History query failed: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to load history")
		return
	}
	if turns == nil {
		turns = []models.ConversationTurn{}
	}
	writeJSON(w, http.StatusOK, turns)
}

func (h *Handler) listCompanies(w http.ResponseWriter, r *http.Request) {
	companies, err := h.mentions.ListCompanies(r.Context())
	if err != nil {
		logrus.Errorf("Company listing failed: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list companies")
		return
	}
	if companies == nil {
		companies = []store.CompanyStatus{}
	}
	writeJSON(w, http.StatusOK, companies)
}

func (h *Handler) triggerRun(w http.ResponseWriter, r *http.Request) {
	company := mux.Vars(r)["name"]

	go func() {
		if _, err := h.pipeline.Run(context.Background(), company, h.scrapeLimit); err != nil {
			logrus.Errorf("Triggered pipeline run failed for %s: %v", company, err)
		}
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{
		"message": "pipeline run triggered",
		"company": company,
	})
}

func (h *Handler) companyStatus(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	status, err := h.mentions.GetCompanyStatus(r.Context(), name)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "unknown company")
			return
		}
		logrus.Errorf("Status query failed for %s: %v", name, err)
		writeError(w, http.StatusInternalServerError, "failed to load status")
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.Errorf("Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

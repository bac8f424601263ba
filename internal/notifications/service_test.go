package notifications

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/varys-hq/varys/internal/config"
	"github.com/varys-hq/varys/internal/models"
)

func testReport() *models.RunReport {
	return &models.RunReport{
		RunID:       "run-1",
		Company:     "Acme",
		StartedAt:   time.Date(2026, 6, 1, 6, 0, 0, 0, time.UTC),
		Duration:    42 * time.Second,
		Scraped:     10,
		RawMentions: 7,
		Enriched:    6,
		Inserted:    5,
		Skipped:     1,
		Indexed:     5,
	}
}

func TestSendRunReport_Webhook(t *testing.T) {
	var received webhookMessage
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &received))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	service := NewService(&config.Config{WebhookURL: server.URL})
	require.NoError(t, service.SendRunReport(testReport()))

	assert.Equal(t, "Mention pipeline run for Acme", received.Title)
	assert.Contains(t, received.Text, "5 inserted")
	assert.Contains(t, received.Text, "1 skipped")
	assert.Equal(t, "run-1", received.Facts["run_id"])
	assert.Equal(t, "10", received.Facts["scraped"])
}

func TestSendRunReport_WebhookFailedRun(t *testing.T) {
	var received webhookMessage
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &received))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	report := testReport()
	report.Err = "scraping failed: rate limited"

	service := NewService(&config.Config{WebhookURL: server.URL})
	require.NoError(t, service.SendRunReport(report))

	assert.Equal(t, "Mention pipeline run for Acme FAILED", received.Title)
	assert.Equal(t, "scraping failed: rate limited", received.Text)
}

func TestSendRunReport_WebhookErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	service := NewService(&config.Config{WebhookURL: server.URL})
	err := service.SendRunReport(testReport())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "webhook")
}

func TestSendRunReport_NoChannelsConfigured(t *testing.T) {
	service := NewService(&config.Config{})
	assert.NoError(t, service.SendRunReport(testReport()))
}

func TestBuildEmailBody(t *testing.T) {
	service := NewService(&config.Config{})

	body := service.buildEmailBody(testReport())
	assert.Contains(t, body, "Pipeline run for Acme")
	assert.Contains(t, body, "Inserted: 5")
	assert.Contains(t, body, "Skipped (duplicate): 1")

	failed := testReport()
	failed.Err = "index build failed"
	body = service.buildEmailBody(failed)
	assert.Contains(t, body, "Run failed:")
	assert.NotContains(t, body, "<ul>")
}

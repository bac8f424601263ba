package notifications

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"github.com/varys-hq/varys/internal/config"
	"github.com/varys-hq/varys/internal/models"
	"gopkg.in/gomail.v2"
)

// Service delivers pipeline run reports via a webhook and/or email.
type Service struct {
	config *config.Config
	client *resty.Client
}

// Ensure Service implements NotificationInterface
var _ NotificationInterface = (*Service)(nil)

// webhookMessage is the JSON payload posted to the configured webhook.
type webhookMessage struct {
	Title string            `json:"title"`
	Text  string            `json:"text"`
	Facts map[string]string `json:"facts,omitempty"`
}

// NewService creates a new notification service
func NewService(cfg *config.Config) *Service {
	return &Service{
		config: cfg,
		client: resty.New().SetTimeout(30 * time.Second),
	}
}

// SendRunReport sends a run summary via the configured channels. A
// channel failing does not stop the others.
func (s *Service) SendRunReport(report *models.RunReport) error {
	var errors []string

	if s.config.WebhookURL != "" {
		if err := s.sendToWebhook(report); err != nil {
			logrus.Errorf("Failed to send webhook notification: %v", err)
			errors = append(errors, fmt.Sprintf("webhook: %v", err))
		} else {
			logrus.Info("Successfully sent run report to webhook")
		}
	}

	if s.config.NotificationEmail != "" {
		if err := s.sendEmail(report); err != nil {
			logrus.Errorf("Failed to send email notification: %v", err)
			errors = append(errors, fmt.Sprintf("email: %v", err))
		} else {
			logrus.Info("Successfully sent run report via email")
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("notification errors: %s", strings.Join(errors, "; "))
	}

	return nil
}

func (s *Service) sendToWebhook(report *models.RunReport) error {
	message := s.buildWebhookMessage(report)

	resp, err := s.client.R().
		SetHeader("Content-Type", "application/json").
		SetBody(message).
		Post(s.config.WebhookURL)

	if err != nil {
		return fmt.Errorf("failed to post webhook message: %w", err)
	}

	if resp.StatusCode() != 200 {
		return fmt.Errorf("webhook returned status %d: %s", resp.StatusCode(), string(resp.Body()))
	}

	return nil
}

func (s *Service) buildWebhookMessage(report *models.RunReport) *webhookMessage {
	title := fmt.Sprintf("Mention pipeline run for %s", report.Company)
	text := fmt.Sprintf("Enriched %d mentions: %d inserted, %d skipped, %d failed",
		report.Enriched, report.Inserted, report.Skipped, report.Failed)
	if report.Err != "" {
		title = fmt.Sprintf("Mention pipeline run for %s FAILED", report.Company)
		text = report.Err
	}

	return &webhookMessage{
		Title: title,
		Text:  text,
		Facts: map[string]string{
			"run_id":       report.RunID,
			"started_at":   report.StartedAt.Format(time.RFC3339),
			"duration":     report.Duration.String(),
			"scraped":      fmt.Sprintf("%d", report.Scraped),
			"raw_mentions": fmt.Sprintf("%d", report.RawMentions),
			"indexed":      fmt.Sprintf("%d", report.Indexed),
		},
	}
}

func (s *Service) sendEmail(report *models.RunReport) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.config.SMTPUsername)
	m.SetHeader("To", s.config.NotificationEmail)

	subject := fmt.Sprintf("Varys run report - %s", report.Company)
	if report.Err != "" {
		subject = fmt.Sprintf("Varys run FAILED - %s", report.Company)
	}
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", s.buildEmailBody(report))

	d := gomail.NewDialer(s.config.SMTPHost, s.config.SMTPPort, s.config.SMTPUsername, s.config.SMTPPassword)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}

func (s *Service) buildEmailBody(report *models.RunReport) string {
	var b strings.Builder

	fmt.Fprintf(&b, "<h2>Pipeline run for %s</h2>", report.Company)
	fmt.Fprintf(&b, "<p>Run %s started %s, took %s.</p>",
		report.RunID, report.StartedAt.Format("2006-01-02 15:04:05 UTC"), report.Duration)

	if report.Err != "" {
		fmt.Fprintf(&b, "<p><b>Run failed:</b> %s</p>", report.Err)
		return b.String()
	}

	b.WriteString("<ul>")
	fmt.Fprintf(&b, "<li>Posts scraped: %d</li>", report.Scraped)
	fmt.Fprintf(&b, "<li>Raw mentions: %d</li>", report.RawMentions)
	fmt.Fprintf(&b, "<li>Enriched: %d</li>", report.Enriched)
	fmt.Fprintf(&b, "<li>Inserted: %d</li>", report.Inserted)
	fmt.Fprintf(&b, "<li>Skipped (duplicate): %d</li>", report.Skipped)
	fmt.Fprintf(&b, "<li>Failed: %d</li>", report.Failed)
	fmt.Fprintf(&b, "<li>Indexed documents: %d</li>", report.Indexed)
	b.WriteString("</ul>")

	return b.String()
}

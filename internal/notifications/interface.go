package notifications

import "github.com/varys-hq/varys/internal/models"

// NotificationInterface defines the contract for run-report delivery
type NotificationInterface interface {
	SendRunReport(report *models.RunReport) error
}

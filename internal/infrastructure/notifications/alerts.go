// Package notifications sends operational alert emails.
package notifications

import (
	"fmt"
	"time"

	"github.com/resendlabs/resend-go"

	"github.com/CametIO/camet-analytics-go/internal/infrastructure/observability/logging"
	"github.com/CametIO/camet-analytics-go/pkg/config"
)

// Service defines the interface for sending operational alerts, allowing
// for mock implementations in tests.
type Service interface {
	SendPartitionSweepAlert(tenantID, detail string, cause error) error
	SendSlowOperationAlert(operation, tenantID string, duration time.Duration) error
}

// ResendClient sends alerts through the Resend API.
type ResendClient struct {
	client    *resend.Client
	fromEmail string
	toEmail   string
	logger    *logging.ChanneledLogger
}

// NewService creates the alert mailer. Alerts are disabled when no
// recipient or API key is configured; callers get a no-op client so
// the wiring stays unconditional.
func NewService(logger *logging.ChanneledLogger) Service {
	if config.ResendAPIKey == "" || config.AlertEmailTo == "" {
		if logger != nil {
			logger.System().Info("Ops alert email disabled, no recipient or API key configured")
		}
		return &noopClient{}
	}

	return &ResendClient{
		client:    resend.NewClient(config.ResendAPIKey),
		fromEmail: config.AlertEmailFrom,
		toEmail:   config.AlertEmailTo,
		logger:    logger,
	}
}

// SendPartitionSweepAlert reports a failed partition maintenance pass.
func (c *ResendClient) SendPartitionSweepAlert(tenantID, detail string, cause error) error {
	subject := fmt.Sprintf("[camet] partition sweep failed for %s", tenantID)
	html := fmt.Sprintf(
		"<h3>Partition sweep failure</h3>"+
			"<p>Tenant: <strong>%s</strong><br>Detail: %s<br>Error: %v</p>"+
			"<p>New detections land in the catch-all partition until the sweep succeeds, "+
			"which degrades partition pruning for this tenant.</p>",
		tenantID, detail, cause)
	return c.send(subject, html)
}

// SendSlowOperationAlert reports an operation that exceeded the very
// slow threshold.
func (c *ResendClient) SendSlowOperationAlert(operation, tenantID string, duration time.Duration) error {
	subject := fmt.Sprintf("[camet] very slow operation on %s", tenantID)
	html := fmt.Sprintf(
		"<h3>Very slow operation</h3>"+
			"<p>Tenant: <strong>%s</strong><br>Operation: <strong>%s</strong><br>Duration: %s</p>",
		tenantID, operation, duration.Round(time.Millisecond))
	return c.send(subject, html)
}

func (c *ResendClient) send(subject, html string) error {
	params := &resend.SendEmailRequest{
		From:    fmt.Sprintf("Camet Analytics <%s>", c.fromEmail),
		To:      []string{c.toEmail},
		Subject: subject,
		Html:    html,
	}

	_, err := c.client.Emails.Send(params)
	if err != nil {
		if c.logger != nil {
			c.logger.Alert().Error("Failed to send ops alert", "subject", subject, "error", err.Error())
		}
		return fmt.Errorf("sending ops alert via Resend: %w", err)
	}

	if c.logger != nil {
		c.logger.Alert().Info("Ops alert sent", "subject", subject, "to", c.toEmail)
	}
	return nil
}

// noopClient satisfies Service when alerting is not configured.
type noopClient struct{}

func (*noopClient) SendPartitionSweepAlert(string, string, error) error { return nil }

func (*noopClient) SendSlowOperationAlert(string, string, time.Duration) error { return nil }

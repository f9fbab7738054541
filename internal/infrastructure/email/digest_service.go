package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/sirupsen/logrus"

	"github.com/endemicgrants/grant-discovery/internal/core/domain/grant"
	"github.com/endemicgrants/grant-discovery/internal/core/ports"
)

// DigestConfig holds digest email configuration
type DigestConfig struct {
	SendGridAPIKey string
	FromEmail      string
	FromName       string
	// DigestEmail receives the post-run summary of newly discovered grants.
	DigestEmail string
}

// DigestService mails a summary of newly published grants after a discovery
// run.
type DigestService struct {
	config *DigestConfig
	logger *logrus.Logger
	client *sendgrid.Client
}

var digestTemplate = template.Must(template.New("digest").Parse(`
<h2>New grant opportunities discovered</h2>
<p>{{len .Grants}} new grants were published on {{.Date}}.</p>
<table border="0" cellpadding="6">
  <tr><th align="left">Grant</th><th align="left">Organization</th><th align="left">Score</th><th align="left">Status</th></tr>
  {{range .Grants}}
  <tr>
    <td><a href="{{.URL}}">{{.Title}}</a></td>
    <td>{{.Organization}}</td>
    <td>{{printf "%.1f" .PriorityScore}}</td>
    <td>{{.Status}}</td>
  </tr>
  {{end}}
</table>
`))

// NewDigestService creates a new digest email service instance
func NewDigestService(config *DigestConfig, logger *logrus.Logger) ports.DigestSender {
	return &DigestService{
		config: config,
		logger: logger,
		client: sendgrid.NewSendClient(config.SendGridAPIKey),
	}
}

type digestData struct {
	Date   string
	Grants []*grant.Grant
}

// SendDiscoveryDigest sends the digest for one run. A missing recipient
// disables the digest rather than failing the run.
func (e *DigestService) SendDiscoveryDigest(ctx context.Context, grants []*grant.Grant) error {
	if e.config.DigestEmail == "" {
		e.logger.Debug("no digest recipient configured, skipping digest email")
		return nil
	}
	if len(grants) == 0 {
		return nil
	}

	var buf bytes.Buffer
	data := digestData{
		Date:   time.Now().Format("January 2, 2006"),
		Grants: grants,
	}
	if err := digestTemplate.Execute(&buf, data); err != nil {
		return fmt.Errorf("failed to render digest template: %w", err)
	}

	subject := fmt.Sprintf("Grant Discovery: %d new opportunities", len(grants))
	from := mail.NewEmail(e.config.FromName, e.config.FromEmail)
	recipient := mail.NewEmail("", e.config.DigestEmail)
	message := mail.NewSingleEmail(from, subject, recipient, "", buf.String())

	response, err := e.client.Send(message)
	if err != nil {
		e.logger.WithFields(logrus.Fields{
			"to":    e.config.DigestEmail,
			"error": err,
		}).Error("Failed to send digest email")
		return fmt.Errorf("failed to send digest email: %w", err)
	}

	e.logger.WithFields(logrus.Fields{
		"to":          e.config.DigestEmail,
		"grants":      len(grants),
		"status_code": response.StatusCode,
	}).Info("Digest email sent successfully")

	return nil
}

package ses

import (
	"context"
	"fmt"
	"html"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"taxdesk/internal/port"
)

type sesSender struct {
	client      *sesv2.Client
	fromAddress string
	fromName    string
	frontendURL string
}

// NewSESSender creates a new SES-backed EmailSender.
func NewSESSender(region, fromAddress, fromName, frontendURL string) (port.EmailSender, error) {
	cfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config for SES: %w", err)
	}
	return &sesSender{
		client:      sesv2.NewFromConfig(cfg),
		fromAddress: fromAddress,
		fromName:    fromName,
		frontendURL: frontendURL,
	}, nil
}

func (s *sesSender) SendDocumentStatusEmail(ctx context.Context, notice port.StatusNotice) error {
	subject := fmt.Sprintf("Your %s was %s", notice.Subject, statusWord(notice.Status))
	link := s.frontendURL + "/dashboard/documents"
	return s.send(ctx, notice, subject, link)
}

func (s *sesSender) SendFilingStatusEmail(ctx context.Context, notice port.StatusNotice) error {
	subject := fmt.Sprintf("%s: %s", notice.Subject, statusWord(notice.Status))
	link := s.frontendURL + "/dashboard/tax-filings"
	return s.send(ctx, notice, subject, link)
}

func (s *sesSender) send(ctx context.Context, notice port.StatusNotice, subject, link string) error {
	htmlBody := buildStatusHTML(notice, link)
	textBody := buildStatusText(notice, link)
	from := fmt.Sprintf("%s <%s>", s.fromName, s.fromAddress)

	_, err := s.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: &from,
		Destination: &types.Destination{
			ToAddresses: []string{notice.ToEmail},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: &subject},
				Body: &types.Body{
					Html: &types.Content{Data: &htmlBody},
					Text: &types.Content{Data: &textBody},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("SES SendEmail: %w", err)
	}
	return nil
}

func statusWord(status string) string {
	return strings.ReplaceAll(status, "_", " ")
}

func buildStatusText(n port.StatusNotice, link string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\nThe status of your %s is now: %s.\n", n.ToName, n.Subject, statusWord(n.Status))
	if n.Reason != "" {
		fmt.Fprintf(&b, "\nReason: %s\n", n.Reason)
	}
	fmt.Fprintf(&b, "\nView the details at:\n%s\n\nTaxDesk Team", link)
	return b.String()
}

func buildStatusHTML(n port.StatusNotice, link string) string {
	reason := ""
	if n.Reason != "" {
		reason = fmt.Sprintf(`<p><strong>Reason:</strong> %s</p>`, html.EscapeString(n.Reason))
	}
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h2 style="color: #333;">%s update</h2>
  <p>Hi %s,</p>
  <p>The status of your %s is now <strong>%s</strong>.</p>
  %s
  <p style="text-align: center; margin: 30px 0;">
    <a href="%s" style="background-color: #047857; color: white; padding: 12px 24px; text-decoration: none; border-radius: 6px; display: inline-block;">View details</a>
  </p>
  <hr style="border: none; border-top: 1px solid #eee; margin: 20px 0;">
  <p style="color: #999; font-size: 12px;">TaxDesk - Tax Filing Services</p>
</body>
</html>`,
		html.EscapeString(n.Subject), html.EscapeString(n.ToName), html.EscapeString(n.Subject),
		html.EscapeString(statusWord(n.Status)), reason, link)
}

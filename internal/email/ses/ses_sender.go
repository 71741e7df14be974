package ses

import (
	"context"
	"fmt"
	"html"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"propval/internal/domain"
	"propval/internal/port"
)

type sesSender struct {
	client      *sesv2.Client
	fromAddress string
	fromName    string
}

// NewSESSender creates a new SES-backed EmailSender.
func NewSESSender(region, fromAddress, fromName string) (port.EmailSender, error) {
	cfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config for SES: %w", err)
	}
	client := sesv2.NewFromConfig(cfg)
	return &sesSender{
		client:      client,
		fromAddress: fromAddress,
		fromName:    fromName,
	}, nil
}

func (s *sesSender) SendDecisionEmail(ctx context.Context, n port.DecisionNotification) error {
	subject := subjectFor(n)
	htmlBody := buildDecisionHTML(n)
	textBody := buildDecisionText(n)

	from := fmt.Sprintf("%s <%s>", s.fromName, s.fromAddress)

	_, err := s.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: &from,
		Destination: &types.Destination{
			ToAddresses: []string{n.ToEmail},
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

func subjectFor(n port.DecisionNotification) string {
	switch n.State {
	case domain.StateApproved:
		return fmt.Sprintf("Valuation report %s approved", n.UniqueID)
	case domain.StateRejected:
		return fmt.Sprintf("Valuation report %s rejected", n.UniqueID)
	case domain.StateRework:
		return fmt.Sprintf("Rework requested on valuation report %s", n.UniqueID)
	default:
		return fmt.Sprintf("Valuation report %s updated", n.UniqueID)
	}
}

func buildDecisionText(n port.DecisionNotification) string {
	body := fmt.Sprintf("Hi %s,\n\nYour %s valuation report %s is now %s (reviewed by %s).",
		n.ToName, n.Variant, n.UniqueID, n.State, n.DecidedBy)
	if n.Feedback != "" {
		body += fmt.Sprintf("\n\nReviewer comments:\n%s", n.Feedback)
	}
	return body + "\n\nPlease log in to view the report.\n"
}

func buildDecisionHTML(n port.DecisionNotification) string {
	feedback := ""
	if n.Feedback != "" {
		feedback = fmt.Sprintf(`<p><strong>Reviewer comments:</strong></p>
  <blockquote style="border-left: 3px solid #ccc; margin: 10px 0; padding-left: 12px; color: #555;">%s</blockquote>`,
			html.EscapeString(n.Feedback))
	}
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h2 style="color: #333;">Valuation report %s</h2>
  <p>Hi %s,</p>
  <p>Your %s valuation report <strong>%s</strong> is now <strong>%s</strong> (reviewed by %s).</p>
  %s
  <p>Please log in to view the report.</p>
</body>
</html>`,
		html.EscapeString(n.UniqueID),
		html.EscapeString(n.ToName),
		html.EscapeString(string(n.Variant)),
		html.EscapeString(n.UniqueID),
		html.EscapeString(string(n.State)),
		html.EscapeString(n.DecidedBy),
		feedback)
}

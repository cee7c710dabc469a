package email

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// SendGridProvider implements the Provider interface using SendGrid
type SendGridProvider struct {
	fromEmail string
	fromName  string
	client    *sendgrid.Client
}

func NewSendGridProvider(apiKey, fromEmail, fromName string) *SendGridProvider {
	return &SendGridProvider{
		fromEmail: fromEmail,
		fromName:  fromName,
		client:    sendgrid.NewSendClient(apiKey),
	}
}

func (p *SendGridProvider) Send(ctx context.Context, msg Message) error {
	response, err := p.client.SendWithContext(ctx, p.build(msg))
	if err != nil {
		return fmt.Errorf("sendgrid error: %w", err)
	}

	// SendGrid returns 2xx for success
	if response.StatusCode >= 300 {
		return fmt.Errorf("sendgrid returned status %d: %s", response.StatusCode, response.Body)
	}

	return nil
}

// build puts every recipient in a single personalization so they all receive
// the same message, as with SMTP.
func (p *SendGridProvider) build(msg Message) *mail.SGMailV3 {
	message := mail.NewV3Mail()
	message.SetFrom(mail.NewEmail(p.fromName, p.fromEmail))
	message.Subject = msg.Subject

	personalization := mail.NewPersonalization()
	for _, to := range msg.To {
		personalization.AddTos(mail.NewEmail("", to))
	}
	message.AddPersonalizations(personalization)

	if msg.IsHTML {
		message.AddContent(mail.NewContent("text/html", msg.Body))
	} else {
		message.AddContent(mail.NewContent("text/plain", msg.Body))
	}

	for _, a := range msg.Attachments {
		attachment := mail.NewAttachment()
		attachment.SetContent(base64.StdEncoding.EncodeToString(a.Content))
		attachment.SetType(a.ContentType)
		attachment.SetFilename(a.Filename)
		attachment.SetDisposition("attachment")
		message.AddAttachment(attachment)
	}

	return message
}

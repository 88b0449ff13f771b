package mailer

import (
	"context"
	"fmt"
	"time"

	"github.com/mailersend/mailersend-go"
)

type MailerSendClient struct {
	client  *mailersend.Mailersend
	from    mailersend.From
	enabled bool
}

func NewMailerSend(apiKey, fromName, fromEmail string) *MailerSendClient {
	m := &MailerSendClient{
		enabled: apiKey != "" && fromEmail != "",
		from: mailersend.From{
			Name:  fromName,
			Email: fromEmail,
		},
	}

	if m.enabled {
		m.client = mailersend.NewMailersend(apiKey)
	}

	return m
}

func (m *MailerSendClient) SendGuestInviteEmail(toEmail, projectName, accessCode, joinURL string) error {
	if !m.enabled {
		return fmt.Errorf("MailerSend not configured")
	}

	subject := fmt.Sprintf("You're invited to collaborate on %s", projectName)
	text := fmt.Sprintf("You've been invited to join %s as a guest.\n\nAccess code: %s\n\nJoin here: %s", projectName, accessCode, joinURL)
	html := fmt.Sprintf(`
		<h2>You're invited to %s</h2>
		<p>You've been invited to join this project as a guest.</p>
		<p>Your access code is: <strong style="font-size: 24px;">%s</strong></p>
		<p><a href="%s" style="background-color: #4CAF50; color: white; padding: 10px 20px; text-decoration: none; border-radius: 5px;">Join Project</a></p>
		<p>If you weren't expecting this invitation, you can ignore this email.</p>
	`, projectName, accessCode, joinURL)

	return m.sendEmail(toEmail, subject, text, html)
}

func (m *MailerSendClient) SendHostLobbyEmail(toEmail, guestName, projectName string) error {
	if !m.enabled {
		return fmt.Errorf("MailerSend not configured")
	}

	subject := fmt.Sprintf("%s is waiting in the lobby of %s", guestName, projectName)
	text := fmt.Sprintf("%s is waiting in the lobby of %s. Open the project to admit or reject them.", guestName, projectName)
	html := fmt.Sprintf(`
		<h2>Guest waiting in your lobby</h2>
		<p><strong>%s</strong> is waiting to join <strong>%s</strong>.</p>
		<p>Open the project to admit or reject them.</p>
	`, guestName, projectName)

	return m.sendEmail(toEmail, subject, text, html)
}

func (m *MailerSendClient) sendEmail(toEmail, subject, text, html string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	recipients := []mailersend.Recipient{{Email: toEmail}}

	message := m.client.Email.NewMessage()
	message.SetFrom(m.from)
	message.SetRecipients(recipients)
	message.SetSubject(subject)
	message.SetText(text)
	message.SetHTML(html)

	_, err := m.client.Email.Send(ctx, message)
	if err != nil {
		return fmt.Errorf("mailersend send failed: %w", err)
	}
	return nil
}

// Package notify emails ticket owners when staff reply to or resolve their
// ticket.
package notify

import (
	"context"
	"fmt"
	"html"
	"log/slog"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

type Message struct {
	ToEmail string
	ToName  string
	Subject string
	Text    string
}

type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}

type SendGridNotifier struct {
	client   *sendgrid.Client
	fromName string
	fromAddr string
}

func NewSendGridNotifier(apiKey, fromAddr, fromName string) *SendGridNotifier {
	return &SendGridNotifier{
		client:   sendgrid.NewSendClient(apiKey),
		fromName: fromName,
		fromAddr: fromAddr,
	}
}

func (n *SendGridNotifier) Notify(ctx context.Context, msg Message) error {
	from := mail.NewEmail(n.fromName, n.fromAddr)
	to := mail.NewEmail(msg.ToName, msg.ToEmail)
	email := mail.NewSingleEmail(from, msg.Subject, to, msg.Text, "<p>"+html.EscapeString(msg.Text)+"</p>")

	resp, err := n.client.SendWithContext(ctx, email)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid returned status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}

// LogNotifier writes notifications to the log. Used when no SendGrid key is
// configured.
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, msg Message) error {
	slog.Info("notification", "to", msg.ToEmail, "subject", msg.Subject)
	return nil
}

// Async sends on a background goroutine so request handlers never wait on
// the mail provider. Failures are logged.
func Async(n Notifier, msg Message) {
	if n == nil {
		return
	}
	go func() {
		if err := n.Notify(context.Background(), msg); err != nil {
			slog.Error("notification failed", "to", msg.ToEmail, "subject", msg.Subject, "error", err)
		}
	}()
}

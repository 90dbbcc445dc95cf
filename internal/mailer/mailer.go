/**
 * @description
 * Outbound email for the marketplace: OTP codes, welcome mail, transaction
 * notifications, and contact-form relay. The `Mailer` interface is the
 * transport boundary; the SMTP implementation sits behind it so the service
 * layer and tests never touch a socket.
 *
 * @dependencies
 * - github.com/wneessen/go-mail: SMTP client.
 */

package mailer

import (
	"context"
	"fmt"

	"github.com/wneessen/go-mail"
)

// SenderName is the display name on every outbound message.
const SenderName = "Pyman Ethereum Marketplace"

// Mailer sends a single HTML email. Implementations must be safe for
// concurrent use; dispatch is synchronous and errors surface to the caller.
type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// SMTPConfig carries the SMTP transport settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPMailer delivers mail over authenticated SMTP with STARTTLS.
type SMTPMailer struct {
	client *mail.Client
	from   string
}

// NewSMTPMailer creates an SMTP-backed Mailer.
func NewSMTPMailer(cfg SMTPConfig) (*SMTPMailer, error) {
	client, err := mail.NewClient(cfg.Host,
		mail.WithPort(cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.Username),
		mail.WithPassword(cfg.Password),
		mail.WithTLSPolicy(mail.TLSMandatory),
	)
	if err != nil {
		return nil, fmt.Errorf("smtp client init: %w", err)
	}
	return &SMTPMailer{client: client, from: cfg.From}, nil
}

func (m *SMTPMailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	msg := mail.NewMsg()
	if err := msg.FromFormat(SenderName, m.from); err != nil {
		return err
	}
	if err := msg.To(to); err != nil {
		return err
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, htmlBody)

	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("mail dispatch to %s: %w", to, err)
	}
	return nil
}

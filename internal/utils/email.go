package utils

import (
	"context"
	"errors"
	"log"

	"github.com/wneessen/go-mail"

	"kaari_back_end/internal/config"
)

var ErrMailerDisabled = errors.New("SMTP non configuré")

// Mailer envoie les e-mails transactionnels via SMTP
type Mailer struct {
	host     string
	port     int
	username string
	password string
	from     string
}

// NewMailer retourne nil si SMTP_HOST n'est pas configuré
func NewMailer(cfg *config.Config) *Mailer {
	if cfg.SMTPHost == "" {
		log.Println("⚠️ SMTP_HOST non configuré, e-mails désactivés")
		return nil
	}
	return &Mailer{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		username: cfg.SMTPUsername,
		password: cfg.SMTPPassword,
		from:     cfg.MailFrom,
	}
}

// SendHTML envoie un e-mail HTML
func (m *Mailer) SendHTML(ctx context.Context, to, subject, htmlBody string) error {
	if m == nil {
		return ErrMailerDisabled
	}
	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return err
	}
	if err := msg.To(to); err != nil {
		return err
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, htmlBody)

	opts := []mail.Option{
		mail.WithPort(m.port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if m.username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthLogin),
			mail.WithUsername(m.username),
			mail.WithPassword(m.password),
		)
	}
	client, err := mail.NewClient(m.host, opts...)
	if err != nil {
		return err
	}

	log.Println("📤 Envoi de l'e-mail à", to)
	return client.DialAndSendWithContext(ctx, msg)
}

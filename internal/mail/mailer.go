package mail

import (
	"context"
	"log"

	"thinkwise/internal/errors"
	"thinkwise/ports"

	gomail "github.com/wneessen/go-mail"
)

// NewMailer creates a mailer from config. Without an SMTP host it falls
// back to the log mailer so local runs never need mail credentials.
func NewMailer(host string, port int, username, password, from string) ports.Mailer {
	if host == "" {
		log.Printf("[Mailer] No SMTP host configured; outgoing mail will be logged only")
		return &LogMailer{}
	}
	return NewSMTPMailer(host, port, username, password, from)
}

// LogMailer writes outgoing mail to the process log instead of sending
type LogMailer struct{}

func (m *LogMailer) Send(ctx context.Context, to, subject, markdownBody string) error {
	log.Printf("[Mailer] (log only) to=%s subject=%q\n%s", to, subject, markdownBody)
	return nil
}

// SMTPMailer delivers transactional email over SMTP with the Markdown
// body rendered to HTML and attached as a multipart alternative.
type SMTPMailer struct {
	host     string
	port     int
	username string
	password string
	from     string
}

// NewSMTPMailer creates an SMTP-backed mailer
func NewSMTPMailer(host string, port int, username, password, from string) *SMTPMailer {
	return &SMTPMailer{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
	}
}

// Send delivers one message
func (m *SMTPMailer) Send(ctx context.Context, to, subject, markdownBody string) error {
	msg := gomail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return errors.Wrap(err, "invalid sender address")
	}
	if err := msg.To(to); err != nil {
		return errors.Wrap(err, "invalid recipient address")
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextPlain, markdownBody)
	msg.AddAlternativeString(gomail.TypeTextHTML, RenderMarkdown(markdownBody))

	opts := []gomail.Option{
		gomail.WithPort(m.port),
		gomail.WithTLSPolicy(gomail.TLSOpportunistic),
	}
	if m.username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(m.username),
			gomail.WithPassword(m.password),
		)
	}

	client, err := gomail.NewClient(m.host, opts...)
	if err != nil {
		return errors.Wrap(err, "failed to create SMTP client")
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return errors.Wrapf(err, "failed to send mail to %s", to)
	}

	log.Printf("[Mailer] ✅ Sent %q to %s", subject, to)
	return nil
}

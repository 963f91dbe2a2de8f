package accounts

import (
	"context"
	"fmt"

	"github.com/wneessen/go-mail"
)

// SMTPConfig holds SMTPMailer configuration.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string

	// TLS enables mandatory TLS: implicit TLS on port 465, STARTTLS
	// otherwise.
	TLS bool
}

// SMTPMailer is a Mailer delivering through an SMTP relay.
type SMTPMailer struct {
	cfg SMTPConfig
}

// NewSMTPMailer creates a new SMTPMailer.
func NewSMTPMailer(cfg SMTPConfig) (*SMTPMailer, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("%w: SMTP host must not be empty", ErrInvalidArgument)
	}
	return &SMTPMailer{cfg: cfg}, nil
}

// Send implements Mailer.
func (m *SMTPMailer) Send(ctx context.Context, msg *Message) error {
	mailMsg, err := buildMail(msg)
	if err != nil {
		return err
	}

	opts := []mail.Option{
		mail.WithPort(m.cfg.Port),
	}
	if m.cfg.TLS {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
		if m.cfg.Port == 465 {
			opts = append(opts, mail.WithSSL())
		}
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	}
	if m.cfg.Username != "" && m.cfg.Password != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(m.cfg.Username),
			mail.WithPassword(m.cfg.Password),
		)
	}

	client, err := mail.NewClient(m.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("creating mail client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, mailMsg); err != nil {
		return fmt.Errorf("sending email: %w", err)
	}
	return nil
}

// buildMail maps a Message onto a go-mail message.
func buildMail(msg *Message) (*mail.Msg, error) {
	mailMsg := mail.NewMsg()

	if err := mailMsg.From(msg.From); err != nil {
		return nil, fmt.Errorf("setting from address: %w", err)
	}
	if err := mailMsg.To(msg.To); err != nil {
		return nil, fmt.Errorf("setting to address: %w", err)
	}

	mailMsg.Subject(msg.Subject)
	for name, value := range msg.Headers {
		mailMsg.SetGenHeader(mail.Header(name), value)
	}

	switch {
	case msg.Text != "" && msg.HTML != "":
		mailMsg.SetBodyString(mail.TypeTextPlain, msg.Text)
		mailMsg.AddAlternativeString(mail.TypeTextHTML, msg.HTML)
	case msg.HTML != "":
		mailMsg.SetBodyString(mail.TypeTextHTML, msg.HTML)
	default:
		mailMsg.SetBodyString(mail.TypeTextPlain, msg.Text)
	}

	return mailMsg, nil
}

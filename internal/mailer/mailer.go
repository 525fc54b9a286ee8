package mailer

import (
	"context"
	"fmt"

	"github.com/wneessen/go-mail"

	"prod-dashboard/internal/apperr"
	"prod-dashboard/internal/config"
	"prod-dashboard/internal/service/alerting"
)

// SMTP sends breach notifications through a relay.
type SMTP struct {
	client     *mail.Client
	from       string
	recipients []string
}

func New(cfg config.SMTP, recipients []string) (*SMTP, error) {
	const op = "mailer.New"

	if cfg.Host == "" {
		return nil, fmt.Errorf("%s: smtp host is empty", op)
	}
	if len(recipients) == 0 {
		return nil, fmt.Errorf("%s: no recipients", op)
	}

	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if cfg.Timeout > 0 {
		opts = append(opts, mail.WithTimeout(cfg.Timeout))
	}
	if cfg.User != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.User),
			mail.WithPassword(cfg.Password),
		)
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	from := cfg.From
	if from == "" {
		from = cfg.User
	}

	return &SMTP{client: client, from: from, recipients: recipients}, nil
}

func (s *SMTP) Send(ctx context.Context, n alerting.Notification) error {
	const op = "mailer.SMTP.Send"

	msg, err := s.message(n)
	if err != nil {
		return fmt.Errorf("%s: %w", op, apperr.Notification("cannot build message", apperr.WithCause(err)))
	}

	if err := s.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("%s: %w", op, apperr.Notification("smtp delivery failed", apperr.WithCause(err)))
	}

	return nil
}

func (s *SMTP) message(n alerting.Notification) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(s.from); err != nil {
		return nil, err
	}
	if err := msg.To(s.recipients...); err != nil {
		return nil, err
	}
	msg.Subject(n.Subject)
	msg.SetMessageID()
	msg.SetImportance(importance(n.Severity))
	msg.SetBodyString(mail.TypeTextPlain, n.Text)
	msg.AddAlternativeString(mail.TypeTextHTML, n.HTML)
	return msg, nil
}

func importance(s alerting.Severity) mail.Importance {
	switch s {
	case alerting.SeverityCritical:
		return mail.ImportanceUrgent
	case alerting.SeverityHigh:
		return mail.ImportanceHigh
	default:
		return mail.ImportanceNormal
	}
}

package email

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"gopkg.in/gomail.v2"

	"github.com/joao-fontenele/beverageshop/internal/config"
)

var meter = otel.Meter("beverageshop/email")

var sentCounter, _ = meter.Int64Counter("emails.sent",
	metric.WithDescription("Outgoing emails by template and result"),
)

// Inline is an attachment rendered in the HTML body through cid:ContentID.
type Inline struct {
	Name        string
	ContentID   string
	ContentType string
	Data        []byte
}

type Message struct {
	To       string
	Subject  string
	Template string
	HTMLBody string
	Inline   []Inline
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPMailer(cfg *config.Config) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword),
		from:   cfg.MailFrom,
	}
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	gm := buildMessage(m.from, msg)
	if err := m.dialer.DialAndSend(gm); err != nil {
		sentCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String("template", msg.Template),
			attribute.String("result", "error"),
		))
		return fmt.Errorf("send %s email to %s: %w", msg.Template, msg.To, err)
	}

	sentCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("template", msg.Template),
		attribute.String("result", "sent"),
	))
	return nil
}

func buildMessage(from string, msg Message) *gomail.Message {
	gm := gomail.NewMessage()
	gm.SetHeader("From", from)
	gm.SetHeader("To", msg.To)
	gm.SetHeader("Subject", msg.Subject)
	gm.SetBody("text/html", msg.HTMLBody)

	for _, in := range msg.Inline {
		data := in.Data
		gm.Embed(in.Name,
			gomail.SetCopyFunc(func(w io.Writer) error {
				_, err := w.Write(data)
				return err
			}),
			gomail.SetHeader(map[string][]string{
				"Content-Type":        {in.ContentType},
				"Content-ID":          {"<" + in.ContentID + ">"},
				"Content-Disposition": {"inline"},
			}),
		)
	}
	return gm
}

// LogMailer stands in for SMTP when no host is configured.
type LogMailer struct {
	logger *slog.Logger
}

func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Send(ctx context.Context, msg Message) error {
	m.logger.InfoContext(ctx, "email not sent, smtp disabled",
		"to", msg.To,
		"subject", msg.Subject,
		"template", msg.Template,
		"inline", len(msg.Inline),
	)
	sentCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("template", msg.Template),
		attribute.String("result", "logged"),
	))
	return nil
}

// New picks the SMTP mailer when a host is configured.
func New(cfg *config.Config, logger *slog.Logger) Mailer {
	if cfg.MailEnabled() {
		return NewSMTPMailer(cfg)
	}
	return NewLogMailer(logger)
}

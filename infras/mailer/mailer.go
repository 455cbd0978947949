package mailer

//go:generate go run go.uber.org/mock/mockgen -source=./mailer.go -destination=./mocks/mailer_mock.go -package=mocks

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strings"

	"cleanbook/config"
	"cleanbook/infras/otel"
	"cleanbook/shared/constant"
	"cleanbook/shared/timezone"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var (
	ErrNoRecipient       = errors.New("mail has no recipient")
	ErrMailNotConfigured = errors.New("mail server is not configured")
)

type Message struct {
	To       []string `json:"to"`
	ReplyTo  string   `json:"reply_to,omitempty"`
	Subject  string   `json:"subject"`
	HTMLBody string   `json:"html_body"`
	TextBody string   `json:"text_body"`
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

type mailerImpl struct {
	cfg  *config.Config
	otel otel.Otel
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func New(cfg *config.Config, otl otel.Otel) Mailer {
	return &mailerImpl{
		cfg:  cfg,
		otel: otl,
		send: smtp.SendMail,
	}
}

func (m *mailerImpl) Send(ctx context.Context, msg Message) (err error) {
	_, scope := m.otel.NewScope(ctx, constant.OtelMailScopeName, constant.OtelMailScopeName+".Send")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	mailCfg := m.cfg.External.Mail
	if mailCfg.Host == constant.Empty {
		return ErrMailNotConfigured
	}

	if len(msg.To) == 0 {
		return ErrNoRecipient
	}

	var auth smtp.Auth
	if mailCfg.Username != constant.Empty {
		auth = smtp.PlainAuth(constant.Empty, mailCfg.Username, mailCfg.Password, mailCfg.Host)
	}

	addr := net.JoinHostPort(mailCfg.Host, mailCfg.Port)

	if err = m.send(addr, auth, mailCfg.From, msg.To, compose(mailCfg.From, msg)); err != nil {
		log.Error().Err(err).Strs("to", msg.To).Str("subject", msg.Subject).Msg("failed to send mail")

		return fmt.Errorf("failed to send mail: %w", err)
	}

	log.Info().Strs("to", msg.To).Str("subject", msg.Subject).Msg("mail sent")

	return nil
}

func compose(from string, msg Message) []byte {
	boundary := uuid.NewString()

	var buf bytes.Buffer

	fmt.Fprintf(&buf, "From: %s\r\n", from)
	fmt.Fprintf(&buf, "To: %s\r\n", strings.Join(msg.To, ", "))

	if msg.ReplyTo != constant.Empty {
		fmt.Fprintf(&buf, "Reply-To: %s\r\n", msg.ReplyTo)
	}

	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", msg.Subject))
	fmt.Fprintf(&buf, "Date: %s\r\n", timezone.Now().Format("Mon, 02 Jan 2006 15:04:05 -0700"))
	buf.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: multipart/alternative; boundary=%q\r\n\r\n", boundary)

	fmt.Fprintf(&buf, "--%s\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s\r\n", boundary, msg.TextBody)
	fmt.Fprintf(&buf, "--%s\r\nContent-Type: text/html; charset=utf-8\r\n\r\n%s\r\n", boundary, msg.HTMLBody)
	fmt.Fprintf(&buf, "--%s--\r\n", boundary)

	return buf.Bytes()
}

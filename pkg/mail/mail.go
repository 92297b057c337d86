// Package mail sends e-mail over SMTP.
//
//	m := mail.NewMailer(mail.SMTP{Host: "smtp.mailtrap.io", Port: "587", ...})
//	err := m.Send(ctx, mail.Message{
//	    To:      []string{"admin@example.com"},
//	    Subject: "New order from: alice - alice@example.com",
//	    HTML:    body,
//	})
package mail

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/logger"
)

// Sender delivers a message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SMTP holds connection settings.
type SMTP struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	FromName string
}

// Message is one e-mail. HTML wins over Text when both are set.
type Message struct {
	To      []string
	Subject string
	HTML    string
	Text    string
}

// Render executes an html/template source with data.
func Render(tmpl string, data any) (string, error) {
	t, err := template.New("mail").Parse(tmpl)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Mailer sends through an SMTP server.
type Mailer struct {
	cfg SMTP
}

func NewMailer(cfg SMTP) *Mailer {
	if cfg.Port == "" {
		cfg.Port = "587"
	}
	return &Mailer{cfg: cfg}
}

// Send delivers msg. Port 465 uses implicit TLS, anything else STARTTLS
// through smtp.SendMail.
func (m *Mailer) Send(ctx context.Context, msg Message) error {
	if len(msg.To) == 0 {
		return errors.New("mail: no recipients")
	}
	cfg := m.cfg
	raw := buildRaw(cfg, msg)
	addr := net.JoinHostPort(cfg.Host, cfg.Port)

	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}

	done := make(chan error, 1)
	go func() {
		if cfg.Port == "465" {
			done <- sendTLS(addr, cfg.Host, auth, cfg.From, msg.To, raw)
			return
		}
		done <- smtp.SendMail(addr, auth, cfg.From, msg.To, raw)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("mail: send to %s: %w", strings.Join(msg.To, ","), err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func sendTLS(addr, host string, auth smtp.Auth, from string, to []string, raw []byte) error {
	conn, err := tls.DialWithDialer(&net.Dialer{Timeout: 10 * time.Second}, "tcp", addr, &tls.Config{ServerName: host})
	if err != nil {
		return fmt.Errorf("tls dial: %w", err)
	}
	client, err := smtp.NewClient(conn, host)
	if err != nil {
		return err
	}
	defer client.Quit() //nolint:errcheck

	if auth != nil {
		if err := client.Auth(auth); err != nil {
			return err
		}
	}
	if err := client.Mail(from); err != nil {
		return err
	}
	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return err
		}
	}
	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(raw); err != nil {
		return err
	}
	return w.Close()
}

func buildRaw(cfg SMTP, msg Message) []byte {
	contentType, body := "text/plain", msg.Text
	if msg.HTML != "" {
		contentType, body = "text/html", msg.HTML
	}
	from := cfg.From
	if cfg.FromName != "" {
		from = fmt.Sprintf("%s <%s>", cfg.FromName, cfg.From)
	}

	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + strings.Join(msg.To, ", ") + "\r\n")
	b.WriteString("Subject: " + msg.Subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&b, "Content-Type: %s; charset=\"UTF-8\"\r\n\r\n", contentType)
	b.WriteString(body)
	return []byte(b.String())
}

// LogSender writes messages to the log instead of sending them. It is used
// when no SMTP host is configured.
type LogSender struct{}

func (LogSender) Send(ctx context.Context, msg Message) error {
	logger.WithCtx(ctx).Info("mail (not sent, no MAIL_HOST)", "to", msg.To, "subject", msg.Subject)
	return nil
}

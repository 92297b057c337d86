// Package notification fans a notification out over mail, Slack and webhooks.
//
// A notification lists its channels in Via and implements the matching
// To<Channel> method:
//
//	func (n *OrderPlaced) Via() []string { return []string{"mail", "slack"} }
//	func (n *OrderPlaced) ToMail() notification.MailData { ... }
//	func (n *OrderPlaced) ToSlack() notification.SlackData { ... }
//
//	err := dispatcher.Send(ctx, cfg.AdminEmail, &OrderPlaced{...})
package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/logger"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/mail"
)

// MailData is the mail channel payload.
type MailData struct {
	To      string
	Subject string
	Body    string
	Text    string
}

// SlackData is the Slack channel payload.
type SlackData struct {
	WebhookURL  string
	Text        string
	Attachments []SlackAttachment
}

type SlackAttachment struct {
	Color  string `json:"color,omitempty"`
	Title  string `json:"title,omitempty"`
	Text   string `json:"text,omitempty"`
	Footer string `json:"footer,omitempty"`
}

// WebhookData is an arbitrary JSON POST.
type WebhookData struct {
	URL     string
	Payload any
	Headers map[string]string
}

// Notification names the channels it goes out on.
type Notification interface {
	Via() []string
}

type Mailable interface{ ToMail() MailData }
type Slackable interface{ ToSlack() SlackData }
type Webhookable interface{ ToWebhook() WebhookData }

// Dispatcher delivers notifications.
type Dispatcher struct {
	mailer   mail.Sender
	slackURL string
	client   *http.Client
}

// NewDispatcher returns a Dispatcher. An empty slackURL skips the Slack
// channel unless the notification carries its own webhook URL.
func NewDispatcher(mailer mail.Sender, slackURL string) *Dispatcher {
	return &Dispatcher{
		mailer:   mailer,
		slackURL: slackURL,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

// SlackConfigured reports whether a default Slack webhook is set.
func (d *Dispatcher) SlackConfigured() bool { return d.slackURL != "" }

// Send delivers n over every channel in Via and joins the failures.
func (d *Dispatcher) Send(ctx context.Context, address string, n Notification) error {
	var errs []error
	for _, channel := range n.Via() {
		if err := d.dispatch(ctx, address, channel, n); err != nil {
			logger.WithCtx(ctx).Error("notification: channel failed", "channel", channel, "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (d *Dispatcher) dispatch(ctx context.Context, address, channel string, n Notification) error {
	switch channel {
	case "mail":
		m, ok := n.(Mailable)
		if !ok {
			return fmt.Errorf("notification: %T does not implement Mailable", n)
		}
		return d.sendMail(ctx, address, m.ToMail())
	case "slack":
		s, ok := n.(Slackable)
		if !ok {
			return fmt.Errorf("notification: %T does not implement Slackable", n)
		}
		return d.sendSlack(ctx, s.ToSlack())
	case "webhook":
		wh, ok := n.(Webhookable)
		if !ok {
			return fmt.Errorf("notification: %T does not implement Webhookable", n)
		}
		data := wh.ToWebhook()
		return d.post(ctx, data.URL, data.Payload, data.Headers)
	}
	return fmt.Errorf("notification: unknown channel %q", channel)
}

func (d *Dispatcher) sendMail(ctx context.Context, address string, m MailData) error {
	to := m.To
	if to == "" {
		to = address
	}
	if to == "" {
		return errors.New("notification: no mail recipient")
	}
	return d.mailer.Send(ctx, mail.Message{To: []string{to}, Subject: m.Subject, HTML: m.Body, Text: m.Text})
}

func (d *Dispatcher) sendSlack(ctx context.Context, s SlackData) error {
	url := s.WebhookURL
	if url == "" {
		url = d.slackURL
	}
	if url == "" {
		return errors.New("notification: slack webhook URL not configured")
	}
	payload := struct {
		Text        string            `json:"text,omitempty"`
		Attachments []SlackAttachment `json:"attachments,omitempty"`
	}{s.Text, s.Attachments}
	return d.post(ctx, url, payload, nil)
}

func (d *Dispatcher) post(ctx context.Context, url string, payload any, headers map[string]string) error {
	if url == "" {
		return errors.New("notification: webhook URL is empty")
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("notification: marshal: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("notification: request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("notification: post: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("notification: %s returned HTTP %d", url, resp.StatusCode)
	}
	return nil
}

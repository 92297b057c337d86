package notification_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/mail"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/notification"
)

type captureSender struct{ sent []mail.Message }

func (c *captureSender) Send(_ context.Context, m mail.Message) error {
	c.sent = append(c.sent, m)
	return nil
}

type orderPlaced struct{}

func (orderPlaced) Via() []string { return []string{"mail", "slack"} }
func (orderPlaced) ToMail() notification.MailData {
	return notification.MailData{Subject: "New order", Body: "<p>1 item</p>"}
}
func (orderPlaced) ToSlack() notification.SlackData {
	return notification.SlackData{Text: "New order"}
}

func TestSendMailAndSlack(t *testing.T) {
	var slackBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&slackBody))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	sender := &captureSender{}
	d := notification.NewDispatcher(sender, srv.URL)

	require.NoError(t, d.Send(context.Background(), "admin@example.com", orderPlaced{}))
	require.Len(t, sender.sent, 1)
	assert.Equal(t, []string{"admin@example.com"}, sender.sent[0].To)
	assert.Equal(t, "New order", sender.sent[0].Subject)
	assert.Equal(t, "New order", slackBody["text"])
}

func TestSendReportsSlackFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	sender := &captureSender{}
	err := notification.NewDispatcher(sender, srv.URL).Send(context.Background(), "admin@example.com", orderPlaced{})
	assert.Error(t, err)
	assert.Len(t, sender.sent, 1)
}

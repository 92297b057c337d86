package mail

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildRawHeaders(t *testing.T) {
	raw := string(buildRaw(
		SMTP{From: "shop@example.com", FromName: "Shop"},
		Message{To: []string{"admin@example.com"}, Subject: "New order from: alice - a@x.io", HTML: "<p>hi</p>"},
	))

	assert.Contains(t, raw, "From: Shop <shop@example.com>\r\n")
	assert.Contains(t, raw, "To: admin@example.com\r\n")
	assert.Contains(t, raw, "Subject: New order from: alice - a@x.io\r\n")
	assert.Contains(t, raw, `Content-Type: text/html; charset="UTF-8"`)
	assert.True(t, strings.HasSuffix(raw, "<p>hi</p>"))
}

func TestRender(t *testing.T) {
	out, err := Render(`<b>{{.Name}}</b>`, map[string]string{"Name": "<alice>"})
	require.NoError(t, err)
	assert.Equal(t, "<b>&lt;alice&gt;</b>", out)
}

func TestSendRequiresRecipients(t *testing.T) {
	err := NewMailer(SMTP{Host: "localhost"}).Send(context.Background(), Message{Subject: "x"})
	assert.Error(t, err)
}

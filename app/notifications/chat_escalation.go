package notifications

import (
	"fmt"

	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/mail"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/notification"
)

// ChatEscalation forwards a chat message that asked for an administrator.
type ChatEscalation struct {
	Username string
	Email    string
	Message  string
}

func (n *ChatEscalation) Via() []string { return []string{"mail"} }

func (n *ChatEscalation) ToMail() notification.MailData {
	text := fmt.Sprintf("Message from: %s; content: %s", n.Email, n.Message)
	html, err := mail.Render("<p>{{.}}</p>", text)
	if err != nil {
		html = ""
	}
	return notification.MailData{
		Subject: fmt.Sprintf("Support request from: %s - %s", n.Username, n.Email),
		Text:    text,
		Body:    html,
	}
}

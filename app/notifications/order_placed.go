// Package notifications defines the messages sent to the shop administrator.
package notifications

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/mail"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/notification"
)

// Line is one ordered product.
type Line struct {
	ProductID uint            `json:"product_id"`
	Name      string          `json:"name"`
	Amount    int             `json:"amount"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// OrderPlaced tells the administrator about a new order.
type OrderPlaced struct {
	OrderID  uint
	Username string
	Email    string
	Lines    []Line
	Total    decimal.Decimal
	Slack    bool
}

func (n *OrderPlaced) Via() []string {
	if n.Slack {
		return []string{"mail", "slack"}
	}
	return []string{"mail"}
}

// Subject is "New order from: <username> - <email>".
func (n *OrderPlaced) Subject() string {
	return fmt.Sprintf("New order from: %s - %s", n.Username, n.Email)
}

const orderPlacedHTML = `<h2>Order #{{.OrderID}}</h2>
<table>
<tr><th>Product</th><th>Amount</th><th>Unit price</th></tr>
{{range .Lines}}<tr><td>{{.Name}} (#{{.ProductID}})</td><td>{{.Amount}}</td><td>{{.UnitPrice.StringFixed 2}}</td></tr>
{{end}}</table>
<p><strong>Total: {{.Total.StringFixed 2}}</strong></p>`

func (n *OrderPlaced) text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Order #%d\n", n.OrderID)
	for _, l := range n.Lines {
		fmt.Fprintf(&b, "- %s (#%d) x%d at %s\n", l.Name, l.ProductID, l.Amount, l.UnitPrice.StringFixed(2))
	}
	fmt.Fprintf(&b, "Total: %s\n", n.Total.StringFixed(2))
	return b.String()
}

func (n *OrderPlaced) ToMail() notification.MailData {
	text := n.text()
	html, err := mail.Render(orderPlacedHTML, n)
	if err != nil {
		html = "<pre>" + text + "</pre>"
	}
	return notification.MailData{Subject: n.Subject(), Body: html, Text: text}
}

func (n *OrderPlaced) ToSlack() notification.SlackData {
	return notification.SlackData{
		Text: n.Subject(),
		Attachments: []notification.SlackAttachment{{
			Color:  "#36a64f",
			Title:  fmt.Sprintf("Order #%d", n.OrderID),
			Text:   n.text(),
			Footer: "shop",
		}},
	}
}

package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/fakush/CoderHouse-Backend-EntregaFinal/app/models"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/app/repositories"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/apperr"
)

// HelpText is the fallback reply.
const HelpText = "To get a proper response please enter one of the following options:\n" +
	"  * Stock: to get a list of all our products stock\n" +
	"  * Order: to get your last order\n" +
	"  * Cart: to get your current cart content"

// Rule answers messages that Match. Reply receives the author's user id.
type Rule struct {
	Name  string
	Match func(text string) bool
	Reply func(ctx context.Context, userID uint) (string, error)
}

// Contains matches texts that contain word, ignoring case.
func Contains(word string) func(string) bool {
	word = strings.ToLower(word)
	return func(text string) bool { return strings.Contains(strings.ToLower(text), word) }
}

// Responder picks the first matching rule; no match yields HelpText.
type Responder struct {
	rules []Rule
}

func NewResponder(rules ...Rule) *Responder {
	return &Responder{rules: rules}
}

// Reply returns the answer and the name of the rule that produced it.
func (r *Responder) Reply(ctx context.Context, userID uint, text string) (string, string, error) {
	for _, rule := range r.rules {
		if rule.Match(text) {
			reply, err := rule.Reply(ctx, userID)
			return reply, rule.Name, err
		}
	}
	return HelpText, "help", nil
}

type productLister interface {
	Query(ctx context.Context, q repositories.ProductQuery) ([]models.Product, error)
}

type lastOrderFinder interface {
	LastOrder(ctx context.Context, userID uint) (*models.Order, error)
}

type cartReader interface {
	GetCart(ctx context.Context, userID uint) (*models.Cart, error)
}

// DefaultRules is stock, order, cart and help, in that priority.
func DefaultRules(products productLister, orders lastOrderFinder, carts cartReader) []Rule {
	return []Rule{
		{Name: "stock", Match: Contains("stock"), Reply: stockReply(products)},
		{Name: "order", Match: Contains("order"), Reply: orderReply(orders)},
		{Name: "cart", Match: Contains("cart"), Reply: cartReply(carts)},
		{Name: "help", Match: Contains("help"), Reply: func(context.Context, uint) (string, error) { return HelpText, nil }},
	}
}

func stockReply(products productLister) func(context.Context, uint) (string, error) {
	return func(ctx context.Context, _ uint) (string, error) {
		list, err := products.Query(ctx, repositories.ProductQuery{})
		if err != nil {
			return "", err
		}
		if len(list) == 0 {
			return "There are no products in the catalog.", nil
		}
		var b strings.Builder
		b.WriteString("Stock:")
		for _, p := range list {
			fmt.Fprintf(&b, "\n  * %s: %d", p.Name, p.Stock)
		}
		return b.String(), nil
	}
}

func orderReply(orders lastOrderFinder) func(context.Context, uint) (string, error) {
	return func(ctx context.Context, userID uint) (string, error) {
		o, err := orders.LastOrder(ctx, userID)
		if err != nil {
			return "", err
		}
		if o == nil {
			return "You have no orders yet.", nil
		}
		var b strings.Builder
		fmt.Fprintf(&b, "Last order #%d (%s), total %s:", o.ID, o.Status, o.Total.StringFixed(2))
		for _, it := range o.Items {
			fmt.Fprintf(&b, "\n  * product %d x%d at %s", it.ProductID, it.Amount, it.UnitPrice.StringFixed(2))
		}
		return b.String(), nil
	}
}

func cartReply(carts cartReader) func(context.Context, uint) (string, error) {
	return func(ctx context.Context, userID uint) (string, error) {
		cart, err := carts.GetCart(ctx, userID)
		if apperr.Is(err, apperr.NotFound) {
			return "Your cart is empty.", nil
		}
		if err != nil {
			return "", err
		}
		if len(cart.Items) == 0 {
			return "Your cart is empty.", nil
		}
		var b strings.Builder
		b.WriteString("Cart:")
		for _, it := range cart.Items {
			fmt.Fprintf(&b, "\n  * product %d x%d", it.ProductID, it.Amount)
		}
		return b.String(), nil
	}
}

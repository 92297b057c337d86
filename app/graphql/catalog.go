// Package graphql exposes the catalog as a read-only GraphQL schema.
package graphql

import (
	"context"

	"github.com/graphql-go/graphql"
	"github.com/shopspring/decimal"

	"github.com/fakush/CoderHouse-Backend-EntregaFinal/app/models"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/app/repositories"
	shopgql "github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/graphql"
)

// Catalog is the read side the schema resolves against.
type Catalog interface {
	Query(ctx context.Context, q repositories.ProductQuery) ([]models.Product, error)
	Get(ctx context.Context, id uint) (*models.Product, error)
}

var productType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Product",
	Fields: graphql.Fields{
		"id":          &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		"name":        &graphql.Field{Type: graphql.String},
		"description": &graphql.Field{Type: graphql.String},
		"category":    &graphql.Field{Type: graphql.String},
		"price": &graphql.Field{
			Type:        graphql.String,
			Description: "Decimal price with two digits.",
			Resolve: func(p graphql.ResolveParams) (any, error) {
				return p.Source.(models.Product).Price.StringFixed(2), nil
			},
		},
		"stock":  &graphql.Field{Type: graphql.Int},
		"images": &graphql.Field{Type: graphql.NewList(graphql.String)},
	},
})

// NewSchema builds the schema over catalog.
func NewSchema(catalog Catalog) (graphql.Schema, error) {
	query := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"products": &graphql.Field{
				Type: graphql.NewList(productType),
				Args: graphql.FieldConfigArgument{
					"name":        &graphql.ArgumentConfig{Type: graphql.String},
					"description": &graphql.ArgumentConfig{Type: graphql.String},
					"category":    &graphql.ArgumentConfig{Type: graphql.String},
					"price":       &graphql.ArgumentConfig{Type: graphql.Float},
					"price_min":   &graphql.ArgumentConfig{Type: graphql.Float},
					"price_max":   &graphql.ArgumentConfig{Type: graphql.Float},
					"stock":       &graphql.ArgumentConfig{Type: graphql.Int},
					"stock_min":   &graphql.ArgumentConfig{Type: graphql.Int},
					"stock_max":   &graphql.ArgumentConfig{Type: graphql.Int},
				},
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return catalog.Query(p.Context, queryFromArgs(p.Args))
				},
			},
			"product": &graphql.Field{
				Type: productType,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
				},
				Resolve: func(p graphql.ResolveParams) (any, error) {
					id, _ := p.Args["id"].(int)
					if id <= 0 {
						return nil, nil
					}
					product, err := catalog.Get(p.Context, uint(id))
					if err != nil {
						return nil, err
					}
					return *product, nil
				},
			},
		},
	})
	return shopgql.NewSchema(query)
}

func queryFromArgs(args map[string]any) repositories.ProductQuery {
	q := repositories.ProductQuery{}
	q.Name, _ = args["name"].(string)
	q.Description, _ = args["description"].(string)
	q.Category, _ = args["category"].(string)

	dec := func(key string) *decimal.Decimal {
		f, ok := args[key].(float64)
		if !ok {
			return nil
		}
		d := decimal.NewFromFloat(f)
		return &d
	}
	num := func(key string) *int {
		n, ok := args[key].(int)
		if !ok {
			return nil
		}
		return &n
	}
	q.Price, q.PriceMin, q.PriceMax = dec("price"), dec("price_min"), dec("price_max")
	q.Stock, q.StockMin, q.StockMax = num("stock"), num("stock_min"), num("stock_max")
	return q
}

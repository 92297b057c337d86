// Package routes maps URLs to controllers.
package routes

import (
	"net/http"

	gql "github.com/graphql-go/graphql"

	"github.com/fakush/CoderHouse-Backend-EntregaFinal/app/controllers"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/ctx"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/graphql"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/middleware"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/router"
)

// Deps are the handlers the routes point at.
type Deps struct {
	Auth     *controllers.AuthController
	Products *controllers.ProductController
	Carts    *controllers.CartController
	Orders   *controllers.OrderController
	Chat     *controllers.ChatController

	Verifier middleware.Verifier
	ChatWS   http.HandlerFunc
	Schema   gql.Schema
	// Files serves the local storage disk; nil when images live on S3.
	Files http.Handler
}

// RegisterAPI registers every application route on r.
func RegisterAPI(r *router.Router, d Deps) {
	authed := middleware.Auth(d.Verifier)
	admin := []router.Middleware{authed, middleware.RequireAdmin}

	api := r.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/signup", "auth.signup", ctx.Wrap(d.Auth.Signup))
	auth.Post("/login", "auth.login", ctx.Wrap(d.Auth.Login))
	auth.Post("/logout", "auth.logout", ctx.Wrap(d.Auth.Logout), authed)
	auth.Get("/me", "auth.me", ctx.Wrap(d.Auth.Me), authed)

	api.Delete("/users/{id}", "users.destroy", ctx.Wrap(d.Auth.DeleteUser), admin...)

	products := api.Group("/products")
	products.Get("/", "products.index", ctx.Wrap(d.Products.Index))
	products.Get("/export", "products.export", ctx.Wrap(d.Products.Export), admin...)
	products.Get("/{id}", "products.show", ctx.Wrap(d.Products.Show))
	products.Post("/", "products.store", ctx.Wrap(d.Products.Store), admin...)
	products.Put("/{id}", "products.update", ctx.Wrap(d.Products.Update), admin...)
	products.Delete("/{id}", "products.destroy", ctx.Wrap(d.Products.Destroy), admin...)
	products.Post("/{id}/images", "products.images.store", ctx.Wrap(d.Products.UploadImage), admin...)
	products.Delete("/{id}/images", "products.images.destroy", ctx.Wrap(d.Products.DeleteImage), admin...)

	cart := api.Group("/cart", authed)
	cart.Get("/", "cart.show", ctx.Wrap(d.Carts.Show))
	cart.Post("/", "cart.store", ctx.Wrap(d.Carts.Create))
	cart.Delete("/", "cart.empty", ctx.Wrap(d.Carts.Empty))
	cart.Post("/items", "cart.items.store", ctx.Wrap(d.Carts.AddItem))
	cart.Delete("/items", "cart.items.destroy", ctx.Wrap(d.Carts.RemoveItem))

	orders := api.Group("/orders", authed)
	orders.Post("/", "orders.store", ctx.Wrap(d.Orders.Store))
	orders.Get("/", "orders.index", ctx.Wrap(d.Orders.Index))
	orders.Get("/{id}", "orders.show", ctx.Wrap(d.Orders.Show))
	orders.Patch("/{id}/status", "orders.status", ctx.Wrap(d.Orders.UpdateStatus), middleware.RequireAdmin)
	orders.Delete("/{id}", "orders.destroy", ctx.Wrap(d.Orders.Destroy), middleware.RequireAdmin)

	api.Get("/chat", "chat.log", ctx.Wrap(d.Chat.Log), authed)
	r.Get("/ws/chat", "chat.ws", d.ChatWS)

	gh := graphql.Handler(d.Schema)
	r.Post("/graphql", "graphql", gh)
	r.Get("/graphql", "graphql.get", gh)

	if d.Files != nil {
		r.Mount("/storage", "storage", http.StripPrefix("/storage", d.Files))
	}
}

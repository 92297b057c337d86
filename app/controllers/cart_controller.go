package controllers

import (
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/app/services"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/ctx"
)

// CartController serves the caller's own cart.
type CartController struct {
	carts *services.CartService
}

func NewCartController(carts *services.CartService) *CartController {
	return &CartController{carts: carts}
}

// Show GET /api/cart
func (c *CartController) Show(x *ctx.Context) {
	cart, err := c.carts.GetCart(x.Context(), x.Principal().UserID)
	if err != nil {
		x.Fail(err)
		return
	}
	x.Success(cart)
}

// Create POST /api/cart
func (c *CartController) Create(x *ctx.Context) {
	cart, err := c.carts.CreateCart(x.Context(), x.Principal().UserID)
	if err != nil {
		x.Fail(err)
		return
	}
	x.Created(cart)
}

// AddItem POST /api/cart/items
func (c *CartController) AddItem(x *ctx.Context) {
	var in services.CartLine
	if !x.BindJSON(&in) {
		return
	}
	cart, err := c.carts.AddItem(x.Context(), x.Principal().UserID, in.ProductID, in.Amount)
	if err != nil {
		x.Fail(err)
		return
	}
	x.Success(cart)
}

// RemoveItem DELETE /api/cart/items
func (c *CartController) RemoveItem(x *ctx.Context) {
	var in services.CartLine
	if !x.BindJSON(&in) {
		return
	}
	cart, err := c.carts.RemoveItem(x.Context(), x.Principal().UserID, in.ProductID, in.Amount)
	if err != nil {
		x.Fail(err)
		return
	}
	x.Success(cart)
}

// Empty DELETE /api/cart
func (c *CartController) Empty(x *ctx.Context) {
	cart, err := c.carts.EmptyCart(x.Context(), x.Principal().UserID)
	if err != nil {
		x.Fail(err)
		return
	}
	x.Success(cart)
}

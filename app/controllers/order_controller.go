package controllers

import (
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/app/services"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/ctx"
)

type OrderController struct {
	orders *services.OrderService
}

func NewOrderController(orders *services.OrderService) *OrderController {
	return &OrderController{orders: orders}
}

// Store POST /api/orders
func (c *OrderController) Store(x *ctx.Context) {
	order, err := c.orders.CreateOrder(x.Context(), x.Principal().UserID)
	if err != nil {
		x.Fail(err)
		return
	}
	x.Created(order)
}

// Index GET /api/orders
func (c *OrderController) Index(x *ctx.Context) {
	orders, err := c.orders.GetOrders(x.Context(), x.Principal().UserID)
	if err != nil {
		x.Fail(err)
		return
	}
	x.Success(orders)
}

// Show GET /api/orders/{id}
func (c *OrderController) Show(x *ctx.Context) {
	id, ok := x.ParamUint("id")
	if !ok {
		return
	}
	order, err := c.orders.GetOrder(x.Context(), x.Principal(), id)
	if err != nil {
		x.Fail(err)
		return
	}
	x.Success(order)
}

// UpdateStatus PATCH /api/orders/{id}/status
func (c *OrderController) UpdateStatus(x *ctx.Context) {
	id, ok := x.ParamUint("id")
	if !ok {
		return
	}
	var in services.StatusInput
	if !x.BindJSON(&in) {
		return
	}
	order, err := c.orders.UpdateStatus(x.Context(), id, in.Status)
	if err != nil {
		x.Fail(err)
		return
	}
	x.Success(order)
}

// Destroy DELETE /api/orders/{id}
func (c *OrderController) Destroy(x *ctx.Context) {
	id, ok := x.ParamUint("id")
	if !ok {
		return
	}
	if err := c.orders.DeleteOrder(x.Context(), id); err != nil {
		x.Fail(err)
		return
	}
	x.Message("order deleted")
}

// Package ctx gives handlers a single request object with helpers for params,
// binding and the JSON envelope.
//
//	func (c *OrderController) Show(x *ctx.Context) {
//	    id, ok := x.ParamUint("id")
//	    if !ok {
//	        return
//	    }
//	    order, err := c.orders.GetOrder(x.Context(), x.Principal(), id)
//	    if err != nil {
//	        x.Fail(err)
//	        return
//	    }
//	    x.Success(order)
//	}
//
//	api.Get("/orders/{id}", "orders.show", ctx.Wrap(orders.Show))
package ctx

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/apperr"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/auth"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/bind"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/response"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/validate"
)

// HandlerFunc is the context-aware handler signature.
type HandlerFunc func(c *Context)

// Wrap adapts a HandlerFunc to http.HandlerFunc.
func Wrap(h HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := acquire(w, r)
		defer release(c)
		h(c)
	}
}

// Context wraps one request/response pair.
type Context struct {
	W      http.ResponseWriter
	R      *http.Request
	status int
}

var pool = sync.Pool{New: func() any { return &Context{} }}

func acquire(w http.ResponseWriter, r *http.Request) *Context {
	c := pool.Get().(*Context)
	c.W, c.R, c.status = w, r, 0
	return c
}

func release(c *Context) {
	c.W, c.R = nil, nil
	pool.Put(c)
}

// Context returns the request context.
func (c *Context) Context() context.Context { return c.R.Context() }

// Param returns a URL path parameter.
func (c *Context) Param(key string) string { return chi.URLParam(c.R, key) }

// ParamUint parses a numeric path parameter. On failure it writes a 400 and
// returns false.
func (c *Context) ParamUint(key string) (uint, bool) {
	n, err := strconv.ParseUint(c.Param(key), 10, 64)
	if err != nil || n == 0 {
		c.Error(http.StatusBadRequest, "invalid "+key)
		return 0, false
	}
	return uint(n), true
}

// Query returns a query-string value.
func (c *Context) Query(key string) string { return c.R.URL.Query().Get(key) }

// Header returns a request header.
func (c *Context) Header(key string) string { return c.R.Header.Get(key) }

// ClientIP returns the caller address, honouring X-Forwarded-For.
func (c *Context) ClientIP() string {
	if fwd := c.R.Header.Get("X-Forwarded-For"); fwd != "" {
		ip, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(ip)
	}
	ip := c.R.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	return ip
}

// Principal returns the authenticated caller, or nil on public routes.
func (c *Context) Principal() *auth.Principal {
	p, _ := auth.FromContext(c.R.Context())
	return p
}

// BindJSON decodes and validates the body. On failure it writes the response
// (400 for bad JSON or validation errors) and returns false.
func (c *Context) BindJSON(dest any) bool {
	errs, err := bind.JSON(c.W, c.R, dest)
	if err != nil {
		c.Error(http.StatusBadRequest, err.Error())
		return false
	}
	if validate.HasErrors(errs) {
		c.status = http.StatusBadRequest
		response.ValidationError(c.W, errs)
		return false
	}
	return true
}

// SetHeader sets a response header.
func (c *Context) SetHeader(key, value string) { c.W.Header().Set(key, value) }

// Status writes a bare status code.
func (c *Context) Status(code int) {
	c.status = code
	c.W.WriteHeader(code)
}

// Success sends a 200 envelope.
func (c *Context) Success(data any) {
	c.status = http.StatusOK
	response.Success(c.W, data)
}

// Created sends a 201 envelope.
func (c *Context) Created(data any) {
	c.status = http.StatusCreated
	response.Created(c.W, data)
}

// Message sends a 200 envelope with only a message.
func (c *Context) Message(msg string) {
	c.status = http.StatusOK
	response.Write(c.W, http.StatusOK, response.Envelope{Status: http.StatusOK, Message: msg})
}

// Error sends an error envelope.
func (c *Context) Error(code int, message string) {
	c.status = code
	response.Error(c.W, code, message)
}

// Fail translates a service error through response.FromError.
func (c *Context) Fail(err error) {
	c.status = response.StatusFor(apperr.KindOf(err))
	response.FromError(c.W, c.R, err)
}

// WrittenStatus returns the status written so far, or 0.
func (c *Context) WrittenStatus() int { return c.status }

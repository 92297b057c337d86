// Package kernel builds the HTTP handler: the global middleware stack, the
// operational endpoints and the application routes.
package kernel

import (
	"context"
	"net/http"
	"time"

	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/metrics"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/middleware"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/reqid"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/response"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/router"
)

// Options configures the kernel.
type Options struct {
	// Service names the spans opened by the tracing middleware.
	Service string
	// Limiter throttles clients by IP. Nil disables rate limiting.
	Limiter *middleware.Limiter
	// Check reports dependency health for /health. Nil always reports ok.
	Check func(ctx context.Context) error
	// Routes register the application endpoints.
	Routes []func(r *router.Router)
}

// HealthStatus is the /health body.
type HealthStatus struct {
	Status string    `json:"status"`
	Time   time.Time `json:"time"`
	Error  string    `json:"error,omitempty"`
}

// NewHTTPKernel returns the router with every middleware and route attached.
func NewHTTPKernel(opts Options) *router.Router {
	if opts.Service == "" {
		opts.Service = "shop"
	}
	r := router.New()

	// Outermost first. The request id must exist before anything logs.
	r.Use(metrics.Middleware())
	r.Use(middleware.Recovery)
	r.Use(reqid.Middleware())
	r.Use(middleware.Tracing(opts.Service))
	r.Use(middleware.Logger)
	r.Use(middleware.CORS(middleware.DefaultCORSOptions()))
	if opts.Limiter != nil {
		r.Use(opts.Limiter.Middleware)
	}

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) { response.NotFound(w) })
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		response.Error(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.Get("/metrics", "metrics", metrics.Handler())
	r.Get("/health", "health", health(opts.Check))

	for _, fn := range opts.Routes {
		fn(r)
	}
	return r
}

func health(check func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := HealthStatus{Status: "ok", Time: time.Now().UTC()}
		if check != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := check(ctx); err != nil {
				body.Status, body.Error = "unavailable", err.Error()
				response.Write(w, http.StatusServiceUnavailable, response.Envelope{
					Status: http.StatusServiceUnavailable, Message: "unavailable", Data: body,
				})
				return
			}
		}
		response.Success(w, body)
	}
}

package kernel_test

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fakush/CoderHouse-Backend-EntregaFinal/internal/kernel"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/reqid"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/response"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/router"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/testkit"
)

func newKernel(check func(context.Context) error) *router.Router {
	return kernel.NewHTTPKernel(kernel.Options{
		Check: check,
		Routes: []func(*router.Router){func(r *router.Router) {
			r.Get("/api/ping", "ping", func(w http.ResponseWriter, _ *http.Request) {
				response.Success(w, "pong")
			})
			r.Get("/api/boom", "boom", func(http.ResponseWriter, *http.Request) {
				panic("boom")
			})
		}},
	})
}

func TestHealth(t *testing.T) {
	rec := testkit.Do(t, newKernel(nil).Handler(), http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(reqid.Header))

	var body kernel.HealthStatus
	testkit.DecodeEnvelope(t, rec.Body, &body)
	assert.Equal(t, "ok", body.Status)
}

func TestHealthUnavailable(t *testing.T) {
	h := newKernel(func(context.Context) error { return errors.New("database is down") })
	rec := testkit.Do(t, h.Handler(), http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body kernel.HealthStatus
	env := testkit.DecodeEnvelope(t, rec.Body, &body)
	assert.Equal(t, "unavailable", env.Message)
	assert.Equal(t, "database is down", body.Error)
}

func TestRoutesAndFallbacks(t *testing.T) {
	h := newKernel(nil)

	rec := testkit.Do(t, h.Handler(), http.MethodGet, "/api/ping", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = testkit.Do(t, h.Handler(), http.MethodGet, "/api/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	env := testkit.DecodeEnvelope(t, rec.Body, nil)
	assert.Equal(t, http.StatusNotFound, env.Status)

	rec = testkit.Do(t, h.Handler(), http.MethodDelete, "/api/ping", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = testkit.Do(t, h.Handler(), http.MethodGet, "/api/boom", "", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestMetricsAndRouteNames(t *testing.T) {
	h := newKernel(nil)
	testkit.Do(t, h.Handler(), http.MethodGet, "/api/ping", "", nil)

	rec := testkit.Do(t, h.Handler(), http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "requests_total"), "request counter exported")

	names := map[string]bool{}
	for _, ri := range h.Routes() {
		names[ri.Name] = true
	}
	for _, want := range []string{"health", "metrics", "ping", "boom"} {
		assert.True(t, names[want], want)
	}
}

package router_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/router"
)

func TestGroupMiddlewareAndNames(t *testing.T) {
	r := router.New()
	tag := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			w.Header().Set("X-Group", "api")
			next.ServeHTTP(w, req)
		})
	}
	api := r.Group("/api", tag)
	api.Patch("/orders/{id}/status", "orders.status", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	r.Get("/health", "health", func(w http.ResponseWriter, _ *http.Request) {})

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/api/orders/4/status", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "api", rec.Header().Get("X-Group"))

	url, err := r.URL("orders.status", map[string]string{"id": "4"})
	require.NoError(t, err)
	assert.Equal(t, "/api/orders/4/status", url)

	_, err = r.URL("orders.status", nil)
	assert.Error(t, err)

	routes := r.Routes()
	require.Len(t, routes, 2)
	assert.Equal(t, "/api/orders/{id}/status", routes[0].Path)
	assert.Equal(t, "/health", routes[1].Path)
}

package response_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/apperr"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/response"
)

func TestFromErrorMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
		msg    string
	}{
		{apperr.New(apperr.NotFound, "cart not found"), http.StatusNotFound, "cart not found"},
		{apperr.New(apperr.AlreadyExists, "user already exists"), http.StatusConflict, "user already exists"},
		{apperr.New(apperr.InvalidInput, "amount must be at least 1"), http.StatusBadRequest, "amount must be at least 1"},
		{apperr.New(apperr.Unauthorized, "invalid token"), http.StatusUnauthorized, "invalid token"},
		{apperr.ErrForbidden, http.StatusForbidden, "Forbidden"},
		{apperr.New(apperr.EmptyCart, "cart is empty"), http.StatusUnprocessableEntity, "cart is empty"},
		{apperr.New(apperr.Conflict, "cart changed concurrently"), http.StatusConflict, "cart changed concurrently"},
		{errors.New("dial tcp: connection refused"), http.StatusInternalServerError, "Internal Server Error"},
	}

	for _, tc := range cases {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		response.FromError(rec, req, tc.err)

		assert.Equal(t, tc.status, rec.Code)
		var env response.Envelope
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
		assert.Equal(t, tc.status, env.Status)
		assert.Equal(t, tc.msg, env.Message)
	}
}

// Package bind decodes and validates an HTTP request body into a struct.
package bind

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"

	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/validate"
)

// DefaultMaxBodyBytes caps JSON bodies when SetMaxBodyBytes was never called.
const DefaultMaxBodyBytes = 1 << 20

var maxBody atomic.Int64

// SetMaxBodyBytes changes the body cap. Non-positive values restore the default.
func SetMaxBodyBytes(n int64) {
	if n <= 0 {
		n = DefaultMaxBodyBytes
	}
	maxBody.Store(n)
}

func limit() int64 {
	if n := maxBody.Load(); n > 0 {
		return n
	}
	return DefaultMaxBodyBytes
}

// JSON decodes r.Body into dest and validates it.
// It returns (errs, nil) on validation failures and (nil, err) when the body
// is malformed or too large.
func JSON(w http.ResponseWriter, r *http.Request, dest any) (map[string]string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, limit())

	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dest); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, fmt.Errorf("request body too large (max %d bytes)", maxErr.Limit)
		}
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	if errs := validate.Struct(dest); validate.HasErrors(errs) {
		return errs, nil
	}
	return nil, nil
}

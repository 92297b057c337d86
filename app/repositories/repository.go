// Package repositories is the gorm data access layer. Lookups that find
// nothing return a nil record and a nil error; services decide whether that
// is a NotFound.
package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/apperr"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/logger"
)

// readRetry runs a read and repeats it once on a transient store error.
func readRetry[T any](ctx context.Context, read func() (T, error)) (T, error) {
	v, err := read()
	if err == nil || errors.Is(err, gorm.ErrRecordNotFound) || ctx.Err() != nil {
		return v, err
	}
	logger.WithCtx(ctx).Warn("repository: read failed, retrying", "error", err)
	return read()
}

// storeErr hides driver details behind an Internal error.
func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return err
	}
	return apperr.Wrap(apperr.Internal, op, err)
}

// first loads one row into dest and maps "no row" to (false, nil).
func first(q *gorm.DB, dest any) (bool, error) {
	err := q.First(dest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return err == nil, err
}

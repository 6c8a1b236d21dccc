package database

import (
	"database/sql"
	"errors"

	"github.com/lib/pq"

	appErrors "github.com/salaedu/sala-api/pkg/errors"
)

// Postgres error classes the translator understands. Constraint violations
// map by class, not by pre-checking, so concurrent writers racing on the same
// key still surface the right taxonomy entry.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgNotNullViolation    = "23502"
	pgCheckViolation      = "23514"
	pgTooManyConnections  = "53300"
)

// TranslateError is the single place store-level failures are mapped to the
// domain error taxonomy. Errors that already carry a taxonomy code pass
// through unchanged.
func TranslateError(err error) error {
	if err == nil {
		return nil
	}

	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return err
	}

	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, appErrors.ErrNotFound.Message)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case pgUniqueViolation:
			return appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, appErrors.ErrConflict.Message)
		case pgForeignKeyViolation:
			return appErrors.Wrap(err, appErrors.ErrReferential.Code, appErrors.ErrReferential.Status, appErrors.ErrReferential.Message)
		case pgNotNullViolation, pgCheckViolation:
			return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid value for required column")
		case pgTooManyConnections:
			return appErrors.Wrap(err, appErrors.ErrResourceExhausted.Code, appErrors.ErrResourceExhausted.Status, appErrors.ErrResourceExhausted.Message)
		}
	}

	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, appErrors.ErrInternal.Message)
}

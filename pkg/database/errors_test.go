package database

import (
	"database/sql"
	"fmt"
	"net/http"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/salaedu/sala-api/pkg/errors"
)

func TestTranslateErrorNil(t *testing.T) {
	assert.NoError(t, TranslateError(nil))
}

func TestTranslateErrorPqCodes(t *testing.T) {
	cases := []struct {
		code       pq.ErrorCode
		wantCode   string
		wantStatus int
	}{
		{pq.ErrorCode(pgUniqueViolation), appErrors.ErrConflict.Code, http.StatusConflict},
		{pq.ErrorCode(pgForeignKeyViolation), appErrors.ErrReferential.Code, http.StatusBadRequest},
		{pq.ErrorCode(pgNotNullViolation), appErrors.ErrValidation.Code, http.StatusBadRequest},
		{pq.ErrorCode(pgTooManyConnections), appErrors.ErrResourceExhausted.Code, http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		err := TranslateError(fmt.Errorf("exec: %w", &pq.Error{Code: tc.code}))
		appErr := appErrors.FromError(err)
		require.NotNil(t, appErr)
		assert.Equal(t, tc.wantCode, appErr.Code)
		assert.Equal(t, tc.wantStatus, appErr.Status)
	}
}

func TestTranslateErrorNoRows(t *testing.T) {
	err := TranslateError(sql.ErrNoRows)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestTranslateErrorPassesThroughTaxonomy(t *testing.T) {
	orig := appErrors.Clone(appErrors.ErrForbidden, "not your school")
	err := TranslateError(orig)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
	assert.Equal(t, "not your school", appErr.Message)
}

func TestTranslateErrorUnknownIsInternal(t *testing.T) {
	err := TranslateError(fmt.Errorf("boom"))
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErr.Code)
	assert.Equal(t, http.StatusInternalServerError, appErr.Status)
}

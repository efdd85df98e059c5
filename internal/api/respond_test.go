package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	apperrors "ambudispatch/internal/errors"

	"github.com/stretchr/testify/assert"
)

func TestWriteError_MapsTaxonomyToStatus(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{apperrors.Validation("departure_time is required"), http.StatusBadRequest},
		{apperrors.Conflict("slot already claimed"), http.StatusConflict},
		{apperrors.NotFound("occurrence 9 not found"), http.StatusNotFound},
		{apperrors.Transient("query occurrence", nil), http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		writeError(rec, tc.err)
		assert.Equal(t, tc.status, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	}
}

func TestWriteError_BodyCarriesMessage(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, apperrors.Conflict("slot already claimed"))
	assert.JSONEq(t, `{"error":"slot already claimed"}`, rec.Body.String())
}

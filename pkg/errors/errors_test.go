package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatusCodeSentinels(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{ErrContentNotFound, http.StatusNotFound},
		{ErrInvalidInput, http.StatusBadRequest},
		{ErrRebuildInProgress, http.StatusConflict},
		{ErrStorageUnavailable, http.StatusServiceUnavailable},
		{ErrInternal, http.StatusInternalServerError},
		{fmt.Errorf("wrapping: %w", ErrInvalidInput), http.StatusBadRequest},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, HTTPStatusCode(tc.err), "for %v", tc.err)
	}
}

func TestAppErrorOverridesStatus(t *testing.T) {
	err := New(ErrInvalidInput, http.StatusUnprocessableEntity, "boost factor out of range")

	assert.Equal(t, http.StatusUnprocessableEntity, HTTPStatusCode(err))
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Contains(t, err.Error(), "boost factor out of range")
}

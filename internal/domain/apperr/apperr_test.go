package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKinds_HaveDistinctCodes(t *testing.T) {
	seen := map[string]bool{}
	for _, k := range Kinds() {
		code := k.Code()
		assert.False(t, seen[code], "duplicate code %s", code)
		seen[code] = true
		assert.NotEqual(t, http.StatusInternalServerError, k.Status(), code)
	}
	assert.Equal(t, "INTERNAL_ERROR", KindUnknown.Code())
	assert.Equal(t, http.StatusInternalServerError, KindUnknown.Status())
}

func TestIs_MatchesByKind(t *testing.T) {
	err := fmt.Errorf("loading: %w", NotFound("asset", "a-1"))

	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrConflict)
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.True(t, IsKind(err, KindNotFound))
}

func TestKindOf_Unclassified(t *testing.T) {
	assert.Equal(t, KindUnknown, KindOf(errors.New("boom")))
	assert.False(t, IsKind(nil, KindUnknown))
}

func TestStorageUnavailable_Unwraps(t *testing.T) {
	cause := errors.New("connection refused")
	err := StorageUnavailable(cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "storage unavailable: connection refused", err.Error())
}

func TestValidationFailed_Message(t *testing.T) {
	err := ValidationFailed("", Violation{Path: "/issuer", Description: "required"})

	assert.Equal(t, "validation failed: /issuer: required", err.Error())
}

func TestInvalidTransition_Fields(t *testing.T) {
	err := InvalidTransition("negotiation", "REQUESTED", "AGREED")

	assert.Equal(t, "invalid negotiation transition from REQUESTED to AGREED", err.Error())
	assert.Equal(t, http.StatusConflict, err.Kind.Status())
}

package dsp

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dataspace-connector/connector/internal/domain/apperr"
)

func validMessage() map[string]interface{} {
	return map[string]interface{}{
		"id":        uuid.NewString(),
		"type":      TypeCatalogQuery,
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
		"issuer":    "did:web:consumer.example",
		"data":      map[string]interface{}{},
	}
}

func paths(r Result) []string {
	out := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		out = append(out, e.Path)
	}
	return out
}

func TestValidator_AcceptsValidMessage(t *testing.T) {
	v := MustNewValidator()

	result := v.Validate(validMessage())

	assert.True(t, result.Valid)
	assert.Empty(t, result.Errors)
	assert.NoError(t, result.Err())
}

func TestValidator_AcceptsMessageStruct(t *testing.T) {
	v := MustNewValidator()
	msg := Message{
		ID:        uuid.NewString(),
		Type:      TypeNegotiationRequest,
		Timestamp: "2026-01-01T10:00:00Z",
		Issuer:    "did:web:consumer.example",
		Data:      json.RawMessage(`{"offerId":"offer-1"}`),
	}

	result := v.Validate(msg)

	assert.True(t, result.Valid, "errors: %v", result.Errors)
}

func TestValidator_MissingIssuer(t *testing.T) {
	v := MustNewValidator()
	msg := validMessage()
	delete(msg, "issuer")

	result := v.Validate(msg)

	require.False(t, result.Valid)
	assert.Contains(t, result.Errors, apperr.Violation{Path: "/issuer", Description: "required"})
}

func TestValidator_ReportsAllViolations(t *testing.T) {
	v := MustNewValidator()
	msg := map[string]interface{}{
		"id":        "not-a-uuid",
		"timestamp": "yesterday",
		"issuer":    "",
		"data":      "payload",
		"extra":     true,
	}

	result := v.Validate(msg)

	require.False(t, result.Valid)
	p := paths(result)
	assert.Contains(t, p, "/id")
	assert.Contains(t, p, "/type")
	assert.Contains(t, p, "/timestamp")
	assert.Contains(t, p, "/issuer")
	assert.Contains(t, p, "/data")
	assert.Contains(t, result.Errors, apperr.Violation{Path: "/type", Description: "required"})
	assert.Contains(t, result.Errors, apperr.Violation{Path: "/extra", Description: "additional property not allowed"})
}

func TestValidator_RejectsNonObjectData(t *testing.T) {
	v := MustNewValidator()
	msg := validMessage()
	msg["data"] = []interface{}{1, 2}

	result := v.Validate(msg)

	require.False(t, result.Valid)
	assert.Equal(t, []string{"/data"}, paths(result))
}

func TestValidator_RejectsEmptyType(t *testing.T) {
	v := MustNewValidator()
	msg := validMessage()
	msg["type"] = ""

	result := v.Validate(msg)

	require.False(t, result.Valid)
	assert.Equal(t, []string{"/type"}, paths(result))
}

func TestValidator_RejectsNonObjectEnvelope(t *testing.T) {
	v := MustNewValidator()

	result := v.Validate("hello")

	require.False(t, result.Valid)
	assert.Equal(t, []string{"/"}, paths(result))
}

func TestValidator_ValidateJSON(t *testing.T) {
	v := MustNewValidator()

	t.Run("valid document", func(t *testing.T) {
		raw, err := json.Marshal(validMessage())
		require.NoError(t, err)
		assert.True(t, v.ValidateJSON(raw).Valid)
	})

	t.Run("malformed document", func(t *testing.T) {
		result := v.ValidateJSON([]byte(`{"id":`))
		require.False(t, result.Valid)
		assert.Equal(t, "/", result.Errors[0].Path)
	})

	t.Run("trailing data", func(t *testing.T) {
		raw, err := json.Marshal(validMessage())
		require.NoError(t, err)
		result := v.ValidateJSON(append(raw, []byte(` {}`)...))
		assert.False(t, result.Valid)
	})
}

func TestValidator_IsDeterministic(t *testing.T) {
	v := MustNewValidator()
	msg := map[string]interface{}{"extra": 1, "other": 2}

	first := v.Validate(msg)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, v.Validate(msg))
	}
	// a valid call in between does not leak state
	assert.True(t, v.Validate(validMessage()).Valid)
	assert.Equal(t, first, v.Validate(msg))
}

func TestValidator_IndependentInstances(t *testing.T) {
	a := MustNewValidator()
	b := MustNewValidator()
	msg := validMessage()
	delete(msg, "data")

	assert.Equal(t, a.Validate(msg), b.Validate(msg))
}

func TestResult_Err(t *testing.T) {
	v := MustNewValidator()
	msg := validMessage()
	delete(msg, "issuer")

	err := v.Validate(msg).Err()

	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindValidationFailed))
	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.NotEmpty(t, appErr.Violations)
}

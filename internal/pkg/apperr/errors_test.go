package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusCode(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{KindValidation, http.StatusBadRequest},
		{KindConflict, http.StatusConflict},
		{KindInfrastructure, http.StatusInternalServerError},
		{Kind(42), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, StatusCode(tt.kind))
		})
	}
}

func TestKindOf_SurvivesWrapping(t *testing.T) {
	base := Conflict("create subscription", "email already exists", errors.New("pq: duplicate key"))
	wrapped := fmt.Errorf("subscribe: %w", base)

	assert.Equal(t, KindConflict, KindOf(wrapped))
	assert.True(t, Is(wrapped, KindConflict))
	assert.False(t, Is(wrapped, KindInfrastructure))
}

func TestKindOf_UnclassifiedIsInfrastructure(t *testing.T) {
	assert.Equal(t, KindInfrastructure, KindOf(errors.New("boom")))
	assert.False(t, Is(nil, KindInfrastructure))
}

func TestPublicMessage_HidesInfrastructureDetail(t *testing.T) {
	err := Infrastructure("send email", errors.New("dial tcp 10.0.0.7:443: connection refused"))

	assert.Equal(t, "internal server error", PublicMessage(err))
	assert.Contains(t, err.Error(), "connection refused")
}

func TestPublicMessage_ClientKinds(t *testing.T) {
	assert.Equal(t, "bad name", PublicMessage(Validation("bad name")))
	assert.Equal(t, "email already exists",
		PublicMessage(Conflict("create", "email already exists", nil)))
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("timeout")
	err := Infrastructure("send email", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "send email: timeout", err.Error())
}

package errors_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	apperrors "github.com/osociohoteleiro/sistema-de-hoteis-sub003/pkg/errors"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestFromError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"not found", fmt.Errorf("usuário 7: %w", apperrors.ErrNotFound), http.StatusNotFound},
		{"duplicate", fmt.Errorf("email: %w", apperrors.ErrDuplicate), http.StatusConflict},
		{"bad request", apperrors.ErrBadRequest, http.StatusBadRequest},
		{"unauthorized", apperrors.ErrUnauthorized, http.StatusUnauthorized},
		{"forbidden", apperrors.ErrForbidden, http.StatusForbidden},
		{"timeout", apperrors.ErrTimeout, http.StatusGatewayTimeout},
		{"precondition", apperrors.Precondition("delete", "usuário sem identidade"), http.StatusPreconditionFailed},
		{"api error kept", apperrors.BadRequest("hotel_id inválido", nil), http.StatusBadRequest},
		{"unique violation", fmt.Errorf("falha ao inserir permissões: %w", gorm.ErrDuplicatedKey), http.StatusConflict},
		{"check violation", gorm.ErrCheckConstraintViolated, http.StatusBadRequest},
		{"query deadline", fmt.Errorf("listando usuários: %w", context.DeadlineExceeded), http.StatusGatewayTimeout},
		{"unknown", errors.New("connection reset"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			apiErr := apperrors.FromError(tt.err)
			assert.Equal(t, tt.code, apiErr.Code)
			assert.NotEmpty(t, apiErr.Message)
		})
	}
}

func TestFromError_PreconditionDetails(t *testing.T) {
	err := fmt.Errorf("removendo: %w", apperrors.Precondition("removeFromHotel", "usuário sem identidade"))

	apiErr := apperrors.FromError(err)

	assert.Equal(t, map[string]string{
		"operation": "removeFromHotel",
		"reason":    "usuário sem identidade",
	}, apiErr.Details)
	assert.ErrorIs(t, apiErr, apperrors.ErrPrecondition)
}

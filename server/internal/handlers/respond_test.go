package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/maynagashev/slidedeck/server/internal/services"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "Ошибка валидации", err: services.ErrValidation, want: http.StatusBadRequest},
		{name: "Неверные учетные данные", err: services.ErrInvalidCredentials, want: http.StatusUnauthorized},
		{name: "Нет прав", err: fmt.Errorf("%w: approve", services.ErrForbidden), want: http.StatusForbidden},
		{name: "Заблокирован", err: services.ErrUserInactive, want: http.StatusForbidden},
		{name: "Не найдено", err: fmt.Errorf("wrap: %w", services.ErrNotFound), want: http.StatusNotFound},
		{name: "Конфликт версий", err: services.ErrConcurrencyConflict, want: http.StatusConflict},
		{name: "Пользователь существует", err: services.ErrUserExists, want: http.StatusConflict},
		{name: "Ошибка хранилища", err: services.ErrStorage, want: http.StatusInternalServerError},
		{name: "Неизвестная ошибка", err: errors.New("boom"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}

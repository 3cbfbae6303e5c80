// Package handlers содержит HTTP обработчики API.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/maynagashev/slidedeck/models"
	"github.com/maynagashev/slidedeck/server/internal/middleware"
	"github.com/maynagashev/slidedeck/server/internal/services"
)

// Тексты ответов, которые не раскрывают внутренние детали.
const (
	msgInternal   = "Внутренняя ошибка сервера"
	msgBadRequest = "Неверный формат запроса"
)

// statusFor сопоставляет ошибку сервиса со статусом HTTP.
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrForbidden), errors.Is(err, services.ErrUserInactive):
		return http.StatusForbidden
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrConcurrencyConflict), errors.Is(err, services.ErrUserExists):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeError отправляет ошибку сервиса клиенту. Текст внутренних ошибок не раскрывается.
func writeError(w http.ResponseWriter, logger *zap.Logger, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		logger.Error("Внутренняя ошибка при обработке запроса", zap.Error(err))
		msg = msgInternal
	}
	writeJSON(w, logger, status, models.ErrorResponse{Error: msg})
}

// writeMessage отправляет ошибку с заданным текстом.
func writeMessage(w http.ResponseWriter, logger *zap.Logger, status int, msg string) {
	writeJSON(w, logger, status, models.ErrorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, logger *zap.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Клиент уже получил статус, сложно что-то изменить
		logger.Warn("Ошибка кодирования ответа", zap.Error(err))
	}
}

// decodeJSON читает тело запроса в v и отвечает 400 при ошибке.
func decodeJSON(w http.ResponseWriter, r *http.Request, logger *zap.Logger, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeMessage(w, logger, http.StatusRequestEntityTooLarge, "Превышен допустимый размер запроса")
			return false
		}
		logger.Info("Ошибка декодирования запроса", zap.String("path", r.URL.Path), zap.Error(err))
		writeMessage(w, logger, http.StatusBadRequest, msgBadRequest)
		return false
	}
	return true
}

// currentUser возвращает ID пользователя из контекста или отвечает 401.
func currentUser(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (int64, bool) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		logger.Error("Не удалось получить userID из контекста", zap.String("path", r.URL.Path))
		writeMessage(w, logger, http.StatusUnauthorized, "Требуется аутентификация")
		return 0, false
	}
	return userID, true
}

// pathInt64 читает положительный целочисленный параметр маршрута.
func pathInt64(w http.ResponseWriter, r *http.Request, logger *zap.Logger, name string) (int64, bool) {
	value, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || value <= 0 {
		writeMessage(w, logger, http.StatusBadRequest, "Неверный параметр "+name)
		return 0, false
	}
	return value, true
}

// pageParam читает номер страницы из query, по умолчанию 1.
func pageParam(r *http.Request) int {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

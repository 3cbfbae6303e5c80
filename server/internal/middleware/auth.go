// Package middleware содержит HTTP middleware сервера: аутентификацию по JWT и метрики.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/maynagashev/slidedeck/models"
	"github.com/maynagashev/slidedeck/server/internal/auth"
)

// Тип для ключа контекста.
type contextKey string

// Ключи для хранения данных пользователя в контексте.
const (
	UserIDKey   contextKey = "userID"
	UserRoleKey contextKey = "userRole"
)

// TokenParser проверяет токен доступа.
type TokenParser interface {
	Parse(token string) (*auth.Claims, error)
}

// Authenticator возвращает middleware, проверяющее JWT токен из заголовка Authorization.
// ID и роль пользователя из токена кладутся в контекст запроса.
func Authenticator(tokens TokenParser, logger *zap.Logger) func(http.Handler) http.Handler {
	logger = logger.Named("AuthMiddleware")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Получаем заголовок Authorization
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.Debug("Заголовок Authorization отсутствует", zap.String("path", r.URL.Path))
				http.Error(w, "Требуется аутентификация", http.StatusUnauthorized)
				return
			}

			// Проверяем формат "Bearer token"
			headerParts := strings.Split(authHeader, " ")
			if len(headerParts) != 2 || strings.ToLower(headerParts[0]) != "bearer" {
				logger.Info("Неверный формат заголовка Authorization")
				http.Error(w, "Неверный формат токена", http.StatusUnauthorized)
				return
			}

			claims, err := tokens.Parse(headerParts[1])
			if err != nil {
				logger.Info("Ошибка валидации токена", zap.Error(err))
				http.Error(w, "Невалидный токен", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, claims.UserID)
			ctx = context.WithValue(ctx, UserRoleKey, claims.Role)

			logger.Debug("Пользователь аутентифицирован", zap.Int64("user_id", claims.UserID))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin пропускает только запросы с ролью admin в токене.
// Сервисы повторно проверяют роль по данным из БД.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if role, _ := GetUserRoleFromContext(r.Context()); role != models.RoleAdmin {
			http.Error(w, "Требуются права администратора", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetUserIDFromContext извлекает UserID из контекста запроса.
// Возвращает ID пользователя и true, если ID найден, иначе 0 и false.
func GetUserIDFromContext(ctx context.Context) (int64, bool) {
	if ctx == nil {
		return 0, false
	}
	userID, ok := ctx.Value(UserIDKey).(int64)
	return userID, ok
}

// GetUserRoleFromContext извлекает роль пользователя из контекста запроса.
func GetUserRoleFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	role, ok := ctx.Value(UserRoleKey).(string)
	return role, ok
}

package services

import (
	"errors"
	"fmt"

	"github.com/maynagashev/slidedeck/models"
	"github.com/maynagashev/slidedeck/server/internal/domain/access"
	"github.com/maynagashev/slidedeck/server/internal/domain/review"
	"github.com/maynagashev/slidedeck/server/internal/render"
	"github.com/maynagashev/slidedeck/server/internal/repository"
	"github.com/maynagashev/slidedeck/server/internal/storage"
)

// Кастомные ошибки сервиса. Обработчики HTTP сопоставляют их со статусами ответа.
var (
	ErrValidation = errors.New("некорректные данные")
	// ErrStorage - документ не удалось записать или прочитать.
	ErrStorage = errors.New("ошибка хранилища документов")
	// ErrConcurrencyConflict - параллельная операция заняла номер версии, запрос можно повторить.
	ErrConcurrencyConflict = errors.New("конфликт параллельного изменения, повторите запрос")
	ErrNotFound            = errors.New("не найдено")
	// ErrForbidden - у пользователя нет прав на операцию.
	ErrForbidden          = errors.New("недостаточно прав")
	ErrInvalidCredentials = errors.New("неверный email или пароль")
	ErrUserExists         = errors.New("пользователь с таким именем или email уже существует")
	ErrUserInactive       = errors.New("учетная запись заблокирована")
	// ErrInconsistent - текущая версия презентации не найдена среди ее версий.
	ErrInconsistent = errors.New("нарушена целостность версий презентации")
)

var serviceErrors = []error{
	ErrValidation, ErrStorage, ErrConcurrencyConflict, ErrNotFound, ErrForbidden,
	ErrInvalidCredentials, ErrUserExists, ErrUserInactive, ErrInconsistent,
}

// translate сопоставляет ошибки нижних слоев с ошибками сервиса.
// Исходная ошибка остается в цепочке и доступна через errors.Is.
func translate(err error) error {
	if err == nil {
		return nil
	}
	for _, target := range serviceErrors {
		if errors.Is(err, target) {
			return err
		}
	}

	var kind error
	switch {
	case errors.Is(err, repository.ErrPresentationNotFound),
		errors.Is(err, repository.ErrVersionNotFound),
		errors.Is(err, repository.ErrUserNotFound),
		errors.Is(err, storage.ErrObjectNotFound):
		kind = ErrNotFound
	case errors.Is(err, repository.ErrVersionConflict):
		kind = ErrConcurrencyConflict
	case errors.Is(err, repository.ErrUsernameTaken):
		kind = ErrUserExists
	case errors.Is(err, repository.ErrBrokenReference):
		kind = ErrInconsistent
	case errors.Is(err, render.ErrStorage):
		kind = ErrStorage
	case errors.Is(err, access.ErrDenied), errors.Is(err, review.ErrAdminRequired):
		kind = ErrForbidden
	case errors.Is(err, review.ErrInvalidTransition), errors.Is(err, models.ErrMalformedSlides):
		kind = ErrValidation
	default:
		return err
	}
	return fmt.Errorf("%w: %w", kind, err)
}

// validationError создает ошибку валидации с описанием поля.
func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

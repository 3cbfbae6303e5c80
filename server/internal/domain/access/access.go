// Package access содержит правила доступа к презентациям.
//
// Права вычисляются по роли и активности пользователя и по тому, является ли он
// автором презентации. Проверки не зависят от маршрутов HTTP и вызываются сервисами.
package access

import (
	"errors"
	"fmt"

	"github.com/maynagashev/slidedeck/models"
)

// ErrDenied - у пользователя нет права на действие.
var ErrDenied = errors.New("действие запрещено")

// Action - действие над презентацией или системой.
type Action string

const (
	ActionCreate      Action = "create"       // Создание презентации
	ActionView        Action = "view"         // Просмотр и список версий
	ActionEdit        Action = "edit"         // Редактирование и генерация новой версии
	ActionDownload    Action = "download"     // Скачивание файла версии
	ActionReview      Action = "review"       // Одобрение, отклонение, сброс проверки
	ActionRollback    Action = "rollback"     // Откат на прежнюю версию
	ActionDelete      Action = "delete"       // Удаление презентации
	ActionListAll     Action = "list_all"     // Список всех презентаций и статистика
	ActionManageUsers Action = "manage_users" // Список пользователей и блокировка
)

// adminOnly - действия, доступные только администратору.
var adminOnly = map[Action]bool{
	ActionReview:      true,
	ActionRollback:    true,
	ActionDelete:      true,
	ActionListAll:     true,
	ActionManageUsers: true,
}

// Can сообщает, может ли actor выполнить действие над презентацией p.
// Для действий, не относящихся к конкретной презентации, p может быть nil.
func Can(actor *models.User, action Action, p *models.Presentation) bool {
	if actor == nil || !actor.IsActive {
		return false
	}

	if adminOnly[action] {
		return actor.IsAdmin()
	}

	switch action {
	case ActionCreate:
		// Администраторы проверяют презентации, но не создают их.
		return !actor.IsAdmin()
	case ActionView:
		return actor.IsAdmin() || isAuthor(actor, p)
	case ActionEdit:
		return isAuthor(actor, p)
	case ActionDownload:
		if actor.IsAdmin() {
			return true
		}
		return isAuthor(actor, p) && p.Status == models.StatusApproved
	default:
		return false
	}
}

// Check возвращает ErrDenied, если действие запрещено.
func Check(actor *models.User, action Action, p *models.Presentation) error {
	if Can(actor, action, p) {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrDenied, action)
}

func isAuthor(actor *models.User, p *models.Presentation) bool {
	return p != nil && p.AuthorID == actor.ID
}

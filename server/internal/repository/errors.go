package repository

import (
	"errors"
	"strings"

	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Коды ошибок PostgreSQL.
const (
	pgUniqueViolationCode     = "23505"
	pgSerializationFailure    = "40001"
	pgDeadlockDetectedCode    = "40P01"
	pgForeignKeyViolationCode = "23503"
)

// Кастомные ошибки репозитория.
var (
	ErrUserNotFound         = errors.New("пользователь не найден")
	ErrUsernameTaken        = errors.New("имя пользователя или email уже заняты")
	ErrPresentationNotFound = errors.New("презентация не найдена")
	ErrVersionNotFound      = errors.New("версия не найдена")
	// ErrVersionConflict - номер версии уже занят параллельной транзакцией.
	ErrVersionConflict = errors.New("конфликт номера версии")
	// ErrBrokenReference - текущая версия презентации ссылается на несуществующую запись.
	ErrBrokenReference = errors.New("нарушена ссылка на текущую версию")
	// ErrCommitUnknown - COMMIT вернул ошибку, не означающую отката: изменения могли быть зафиксированы.
	ErrCommitUnknown = errors.New("результат фиксации транзакции неизвестен")
)

// isUniqueViolation проверяет нарушение ограничения уникальности в PostgreSQL и SQLite.
func isUniqueViolation(err error) bool {
	var pgErr *pq.Error
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolationCode
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		case sqlite3.SQLITE_CONSTRAINT:
			return strings.Contains(liteErr.Error(), "UNIQUE")
		}
	}
	return false
}

// isContention проверяет, что транзакция проиграла конкурентной записи.
func isContention(err error) bool {
	var pgErr *pq.Error
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgSerializationFailure || pgErr.Code == pgDeadlockDetectedCode
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		primary := liteErr.Code() & 0xff //nolint:mnd // первичный код в младшем байте
		return primary == sqlite3.SQLITE_BUSY || primary == sqlite3.SQLITE_LOCKED
	}
	return false
}

// isForeignKeyViolation проверяет нарушение внешнего ключа.
func isForeignKeyViolation(err error) bool {
	var pgErr *pq.Error
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgForeignKeyViolationCode
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		// В SQLite ссылку на текущую версию проверяет триггер.
		case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY, sqlite3.SQLITE_CONSTRAINT_TRIGGER:
			return true
		case sqlite3.SQLITE_CONSTRAINT:
			msg := liteErr.Error()
			return strings.Contains(msg, "FOREIGN KEY") || strings.Contains(msg, "current_version")
		}
	}
	return false
}

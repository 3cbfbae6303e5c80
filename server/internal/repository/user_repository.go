package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/maynagashev/slidedeck/models"
)

const userColumns = `id, username, email, password_hash, role, department, is_active, created_at, last_login`

// UserRepository определяет методы для работы с данными пользователей в хранилище.
type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) (int64, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	ListUsersByRole(ctx context.Context, role string, limit, offset int) ([]models.User, error)
	CountUsersByRole(ctx context.Context, role string) (int, error)
	SetUserActive(ctx context.Context, id int64, active bool) error
	UpdateLastLogin(ctx context.Context, id int64, at time.Time) error
}

// sqlUserRepository реализует UserRepository для PostgreSQL и SQLite.
type sqlUserRepository struct {
	db     Querier
	logger *zap.Logger
}

// NewUserRepository создает новый экземпляр репозитория пользователей.
func NewUserRepository(db Querier, logger *zap.Logger) UserRepository {
	return &sqlUserRepository{db: db, logger: logger}
}

// CreateUser создает нового пользователя в базе данных.
// Возвращает ID созданного пользователя или ErrUsernameTaken, если имя или email заняты.
func (r *sqlUserRepository) CreateUser(ctx context.Context, user *models.User) (int64, error) {
	query := r.db.Rebind(`INSERT INTO users (username, email, password_hash, role, department, is_active, created_at)` +
		` VALUES (?, ?, ?, ?, ?, ?, ?) RETURNING id`)
	var userID int64

	err := r.db.QueryRowxContext(ctx, query,
		user.Username, user.Email, user.PasswordHash, user.Role, user.Department, user.IsActive, user.CreatedAt,
	).Scan(&userID)
	if err != nil {
		if isUniqueViolation(err) {
			r.logger.Info("Имя пользователя или email уже заняты", zap.String("username", user.Username))
			return 0, ErrUsernameTaken
		}
		return 0, fmt.Errorf("ошибка выполнения запроса на создание пользователя: %w", err)
	}

	r.logger.Debug("Пользователь создан", zap.String("username", user.Username), zap.Int64("user_id", userID))
	return userID, nil
}

// GetUserByID находит пользователя по ID.
func (r *sqlUserRepository) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

// GetUserByEmail находит пользователя по email.
func (r *sqlUserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
}

// GetUserByUsername находит пользователя по имени.
func (r *sqlUserRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE username = ?`, username)
}

func (r *sqlUserRepository) getOne(ctx context.Context, query string, arg any) (*models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, r.db.Rebind(query), arg)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("ошибка выполнения запроса на получение пользователя: %w", err)
	}
	return &user, nil
}

// ListUsersByRole возвращает пользователей с указанной ролью, новые первыми.
func (r *sqlUserRepository) ListUsersByRole(ctx context.Context, role string, limit, offset int) ([]models.User, error) {
	query := r.db.Rebind(`SELECT ` + userColumns + ` FROM users WHERE role = ?` +
		` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`)
	users := []models.User{}
	if err := r.db.SelectContext(ctx, &users, query, role, limit, offset); err != nil {
		return nil, fmt.Errorf("ошибка выполнения запроса на получение списка пользователей: %w", err)
	}
	return users, nil
}

// CountUsersByRole возвращает количество пользователей с указанной ролью.
func (r *sqlUserRepository) CountUsersByRole(ctx context.Context, role string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, r.db.Rebind(`SELECT COUNT(*) FROM users WHERE role = ?`), role); err != nil {
		return 0, fmt.Errorf("ошибка подсчета пользователей: %w", err)
	}
	return count, nil
}

// SetUserActive включает или блокирует пользователя.
func (r *sqlUserRepository) SetUserActive(ctx context.Context, id int64, active bool) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`UPDATE users SET is_active = ? WHERE id = ?`), active, id)
	if err != nil {
		return fmt.Errorf("ошибка обновления статуса пользователя: %w", err)
	}
	return requireAffected(res, ErrUserNotFound)
}

// UpdateLastLogin записывает время последнего входа.
func (r *sqlUserRepository) UpdateLastLogin(ctx context.Context, id int64, at time.Time) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`UPDATE users SET last_login = ? WHERE id = ?`), at, id)
	if err != nil {
		return fmt.Errorf("ошибка обновления времени входа: %w", err)
	}
	return requireAffected(res, ErrUserNotFound)
}

// requireAffected возвращает notFound, если запрос не затронул ни одной строки.
func requireAffected(res sql.Result, notFound error) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("ошибка получения количества измененных строк: %w", err)
	}
	if affected == 0 {
		return notFound
	}
	return nil
}

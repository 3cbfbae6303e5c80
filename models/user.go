package models

import "time"

// Роли пользователей.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User представляет пользователя системы.
// Тэги `db` используются для маппинга с полями БД с помощью sqlx.
// Тэги `json` используются для (де)сериализации JSON.
type User struct {
	ID           int64      `db:"id" json:"id"`
	Username     string     `db:"username" json:"username"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"` // Не отправляем хеш пароля в JSON
	Role         string     `db:"role" json:"role"`
	Department   *string    `db:"department" json:"department,omitempty"`
	IsActive     bool       `db:"is_active" json:"is_active"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	LastLogin    *time.Time `db:"last_login" json:"last_login,omitempty"`
}

// IsAdmin сообщает, обладает ли пользователь ролью администратора.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// DepartmentName возвращает отдел или пустую строку.
func (u *User) DepartmentName() string {
	if u == nil || u.Department == nil {
		return ""
	}
	return *u.Department
}

// RegisterRequest представляет тело запроса на регистрацию.
type RegisterRequest struct {
	Username   string `json:"username"`
	Email      string `json:"email"`
	Department string `json:"department"`
	Password   string `json:"password"`
}

// LoginRequest представляет тело запроса на вход.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse представляет тело ответа при успешном входе.
type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// UserPage - страница списка пользователей.
type UserPage struct {
	Items   []User `json:"items"`
	Page    int    `json:"page"`
	PerPage int    `json:"per_page"`
	Total   int    `json:"total"`
}

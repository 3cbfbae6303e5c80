// Package repotest поднимает временную базу SQLite со схемой для тестов.
package repotest

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/maynagashev/slidedeck/models"
	"github.com/maynagashev/slidedeck/server/internal/migrations"
	"github.com/maynagashev/slidedeck/server/internal/repository"
)

// NewSQLite создает базу во временном каталоге теста и применяет миграции.
func NewSQLite(t *testing.T) (*sqlx.DB, repository.Store) {
	t.Helper()

	db, dialect, err := repository.NewDB("sqlite://"+filepath.Join(t.TempDir(), "slides.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, migrations.Up(context.Background(), db.DB, dialect))
	return db, repository.NewStore(db, zap.NewNop())
}

// CreateUser добавляет пользователя с указанной ролью.
func CreateUser(t *testing.T, store repository.Store, username, role string) *models.User {
	t.Helper()

	user := &models.User{
		Username:     username,
		Email:        username + "@company.com",
		PasswordHash: "hash",
		Role:         role,
		IsActive:     true,
		CreatedAt:    time.Now().UTC(),
	}
	id, err := store.Users().CreateUser(context.Background(), user)
	require.NoError(t, err)
	user.ID = id
	return user
}

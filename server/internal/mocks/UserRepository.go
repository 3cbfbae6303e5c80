// Package mocks содержит testify моки интерфейсов сервера.
package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/maynagashev/slidedeck/models"
)

// UserRepository is a mock type for the UserRepository type
type UserRepository struct {
	mock.Mock
}

// CreateUser provides a mock function with given fields: ctx, user
func (_m *UserRepository) CreateUser(ctx context.Context, user *models.User) (int64, error) {
	ret := _m.Called(ctx, user)
	return ret.Get(0).(int64), ret.Error(1)
}

// GetUserByID provides a mock function with given fields: ctx, id
func (_m *UserRepository) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	ret := _m.Called(ctx, id)
	return userOrNil(ret.Get(0)), ret.Error(1)
}

// GetUserByEmail provides a mock function with given fields: ctx, email
func (_m *UserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	ret := _m.Called(ctx, email)
	return userOrNil(ret.Get(0)), ret.Error(1)
}

// GetUserByUsername provides a mock function with given fields: ctx, username
func (_m *UserRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	ret := _m.Called(ctx, username)
	return userOrNil(ret.Get(0)), ret.Error(1)
}

// ListUsersByRole provides a mock function with given fields: ctx, role, limit, offset
func (_m *UserRepository) ListUsersByRole(ctx context.Context, role string, limit, offset int) ([]models.User, error) {
	ret := _m.Called(ctx, role, limit, offset)
	var users []models.User
	if v := ret.Get(0); v != nil {
		users = v.([]models.User)
	}
	return users, ret.Error(1)
}

// CountUsersByRole provides a mock function with given fields: ctx, role
func (_m *UserRepository) CountUsersByRole(ctx context.Context, role string) (int, error) {
	ret := _m.Called(ctx, role)
	return ret.Int(0), ret.Error(1)
}

// SetUserActive provides a mock function with given fields: ctx, id, active
func (_m *UserRepository) SetUserActive(ctx context.Context, id int64, active bool) error {
	ret := _m.Called(ctx, id, active)
	return ret.Error(0)
}

// UpdateLastLogin provides a mock function with given fields: ctx, id, at
func (_m *UserRepository) UpdateLastLogin(ctx context.Context, id int64, at time.Time) error {
	ret := _m.Called(ctx, id, at)
	return ret.Error(0)
}

func userOrNil(v any) *models.User {
	if v == nil {
		return nil
	}
	return v.(*models.User)
}

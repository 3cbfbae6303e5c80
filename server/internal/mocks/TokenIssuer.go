package mocks

import (
	"github.com/stretchr/testify/mock"

	"github.com/maynagashev/slidedeck/models"
)

// TokenIssuer is a mock type for the TokenIssuer type
type TokenIssuer struct {
	mock.Mock
}

// Issue provides a mock function with given fields: user
func (_m *TokenIssuer) Issue(user *models.User) (string, error) {
	ret := _m.Called(user)
	return ret.String(0), ret.Error(1)
}

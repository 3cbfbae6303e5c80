package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/maynagashev/slidedeck/models"
	"github.com/maynagashev/slidedeck/server/internal/repository"
)

// Ограничения регистрационных данных.
const (
	minUsernameLength   = 4
	maxUsernameLength   = 20
	maxDepartmentLength = 100
	minPasswordLength   = 6

	// DefaultAdminUsername - имя администратора, создаваемого при первом запуске.
	DefaultAdminUsername = "admin"
)

// TokenIssuer выпускает токен доступа для пользователя.
type TokenIssuer interface {
	Issue(user *models.User) (string, error)
}

// AuthService определяет интерфейс для сервиса аутентификации.
type AuthService interface {
	Register(ctx context.Context, req models.RegisterRequest) (*models.User, error)
	// Login возвращает JWT токен и данные пользователя.
	Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error)
	// EnsureAdmin создает администратора по умолчанию, если пользователя с таким email нет.
	EnsureAdmin(ctx context.Context, email, password string) error
}

// Убедимся, что authService удовлетворяет интерфейсу AuthService.
var _ AuthService = (*authService)(nil)

type authService struct {
	userRepo repository.UserRepository
	tokens   TokenIssuer
	now      func() time.Time
	logger   *zap.Logger
}

// NewAuthService создает новый экземпляр сервиса аутентификации.
func NewAuthService(userRepo repository.UserRepository, tokens TokenIssuer, logger *zap.Logger) AuthService {
	return &authService{userRepo: userRepo, tokens: tokens, now: time.Now, logger: logger.Named("AuthService")}
}

// Register регистрирует нового пользователя с ролью user.
func (s *authService) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	if err := validateRegistration(&req); err != nil {
		return nil, err
	}

	// Хешируем пароль
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("Ошибка хеширования пароля", zap.String("username", req.Username), zap.Error(err))
		return nil, errors.New("внутренняя ошибка сервера при хешировании пароля")
	}

	department := req.Department
	user := &models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hashedPassword),
		Role:         models.RoleUser,
		Department:   &department,
		IsActive:     true,
		CreatedAt:    s.now().UTC(),
	}

	id, err := s.userRepo.CreateUser(ctx, user)
	if err != nil {
		if errors.Is(err, repository.ErrUsernameTaken) {
			s.logger.Info("Попытка регистрации с занятым именем или email", zap.String("username", req.Username))
			return nil, fmt.Errorf("%w: %w", ErrUserExists, err)
		}
		s.logger.Error("Ошибка репозитория при регистрации", zap.String("username", req.Username), zap.Error(err))
		return nil, errors.New("внутренняя ошибка сервера при создании пользователя")
	}
	user.ID = id

	s.logger.Info("Пользователь зарегистрирован", zap.Int64("user_id", id), zap.String("username", user.Username))
	return user, nil
}

// Login аутентифицирует пользователя по email и паролю.
// Заблокированный пользователь получает ту же ошибку, что и при неверном пароле.
func (s *authService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	email := strings.TrimSpace(req.Email)

	user, err := s.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			s.logger.Info("Попытка входа несуществующего пользователя", zap.String("email", email))
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("Ошибка репозитория при поиске пользователя", zap.String("email", email), zap.Error(err))
		return nil, errors.New("внутренняя ошибка сервера при поиске пользователя")
	}

	// Сравниваем предоставленный пароль с хешем из базы данных
	if err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.logger.Info("Неверный пароль", zap.Int64("user_id", user.ID))
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		s.logger.Info("Попытка входа заблокированного пользователя", zap.Int64("user_id", user.ID))
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		s.logger.Error("Ошибка генерации JWT", zap.Int64("user_id", user.ID), zap.Error(err))
		return nil, errors.New("внутренняя ошибка сервера при генерации токена")
	}

	now := s.now().UTC()
	if err = s.userRepo.UpdateLastLogin(ctx, user.ID, now); err != nil {
		s.logger.Warn("Не удалось обновить время входа", zap.Int64("user_id", user.ID), zap.Error(err))
	} else {
		user.LastLogin = &now
	}

	s.logger.Info("Пользователь аутентифицирован", zap.Int64("user_id", user.ID), zap.String("role", user.Role))
	return &models.LoginResponse{Token: token, User: *user}, nil
}

// EnsureAdmin создает администратора по умолчанию.
func (s *authService) EnsureAdmin(ctx context.Context, email, password string) error {
	existing, err := s.userRepo.GetUserByEmail(ctx, email)
	if err == nil {
		if !existing.IsAdmin() {
			s.logger.Warn("Пользователь с email администратора не является администратором",
				zap.Int64("user_id", existing.ID))
		}
		return nil
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return fmt.Errorf("ошибка поиска администратора: %w", err)
	}
	if len(password) < minPasswordLength {
		return validationError("пароль администратора короче %d символов", minPasswordLength)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("ошибка хеширования пароля администратора: %w", err)
	}
	admin := &models.User{
		Username:     DefaultAdminUsername,
		Email:        email,
		PasswordHash: string(hashedPassword),
		Role:         models.RoleAdmin,
		IsActive:     true,
		CreatedAt:    s.now().UTC(),
	}
	id, err := s.userRepo.CreateUser(ctx, admin)
	if err != nil {
		return fmt.Errorf("ошибка создания администратора: %w", translate(err))
	}

	s.logger.Info("Создан администратор по умолчанию", zap.Int64("user_id", id), zap.String("email", email))
	return nil
}

// validateRegistration нормализует и проверяет данные регистрации.
func validateRegistration(req *models.RegisterRequest) error {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	req.Department = strings.TrimSpace(req.Department)

	if n := utf8.RuneCountInString(req.Username); n < minUsernameLength || n > maxUsernameLength {
		return validationError("имя пользователя должно содержать от %d до %d символов",
			minUsernameLength, maxUsernameLength)
	}
	if addr, err := mail.ParseAddress(req.Email); err != nil || addr.Address != req.Email {
		return validationError("некорректный email")
	}
	if req.Department == "" {
		return validationError("не указан отдел")
	}
	if utf8.RuneCountInString(req.Department) > maxDepartmentLength {
		return validationError("название отдела длиннее %d символов", maxDepartmentLength)
	}
	if len(req.Password) < minPasswordLength {
		return validationError("пароль короче %d символов", minPasswordLength)
	}
	return nil
}

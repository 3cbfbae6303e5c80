package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/maynagashev/slidedeck/models"
	"github.com/maynagashev/slidedeck/server/internal/domain/access"
	"github.com/maynagashev/slidedeck/server/internal/repository"
)

// Размеры списков на панели администратора.
const (
	recentPendingLimit  = 5
	recentActivityLimit = 10
)

// AdminService - статистика и управление пользователями для администратора.
type AdminService struct {
	store    repository.Store
	pageSize int
	logger   *zap.Logger
}

// NewAdminService создает сервис администратора.
func NewAdminService(store repository.Store, pageSize int, logger *zap.Logger) *AdminService {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &AdminService{store: store, pageSize: pageSize, logger: logger.Named("AdminService")}
}

// Dashboard собирает статистику для панели администратора.
func (s *AdminService) Dashboard(ctx context.Context, actorID int64) (*models.AdminDashboard, error) {
	if _, err := s.admin(ctx, actorID, access.ActionListAll); err != nil {
		return nil, err
	}

	presentations := s.store.Presentations()
	stats, err := presentations.CountByStatus(ctx, nil)
	if err != nil {
		return nil, s.fail(err, "Ошибка подсчета презентаций")
	}
	users, err := s.store.Users().CountUsersByRole(ctx, models.RoleUser)
	if err != nil {
		return nil, s.fail(err, "Ошибка подсчета пользователей")
	}
	versions, err := s.store.Versions().CountVersions(ctx)
	if err != nil {
		return nil, s.fail(err, "Ошибка подсчета версий")
	}
	pending, err := presentations.ListPresentations(ctx, repository.PresentationFilter{
		Status: models.StatusPending,
		Order:  repository.OrderByCreated,
		Limit:  recentPendingLimit,
	})
	if err != nil {
		return nil, s.fail(err, "Ошибка получения презентаций на проверке")
	}
	activity, err := presentations.ListPresentations(ctx, repository.PresentationFilter{
		Order: repository.OrderByUpdated,
		Limit: recentActivityLimit,
	})
	if err != nil {
		return nil, s.fail(err, "Ошибка получения последних изменений")
	}

	return &models.AdminDashboard{
		Stats:          stats,
		TotalUsers:     users,
		TotalVersions:  versions,
		RecentPending:  pending,
		RecentActivity: activity,
	}, nil
}

// ListUsers возвращает страницу обычных пользователей, новые первыми.
func (s *AdminService) ListUsers(ctx context.Context, actorID int64, page int) (*models.UserPage, error) {
	if _, err := s.admin(ctx, actorID, access.ActionManageUsers); err != nil {
		return nil, err
	}
	if page < 1 {
		page = 1
	}

	total, err := s.store.Users().CountUsersByRole(ctx, models.RoleUser)
	if err != nil {
		return nil, s.fail(err, "Ошибка подсчета пользователей")
	}
	items, err := s.store.Users().ListUsersByRole(ctx, models.RoleUser, s.pageSize, (page-1)*s.pageSize)
	if err != nil {
		return nil, s.fail(err, "Ошибка получения списка пользователей")
	}
	return &models.UserPage{Items: items, Page: page, PerPage: s.pageSize, Total: total}, nil
}

// ToggleUserStatus блокирует или разблокирует пользователя.
// Администраторов блокировать нельзя.
func (s *AdminService) ToggleUserStatus(ctx context.Context, actorID, userID int64) (*models.User, error) {
	actor, err := s.admin(ctx, actorID, access.ActionManageUsers)
	if err != nil {
		return nil, err
	}

	var user *models.User
	err = s.store.WithTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		u, err := repos.Users().GetUserByID(ctx, userID)
		if err != nil {
			return err
		}
		if u.IsAdmin() {
			return fmt.Errorf("%w: нельзя изменить статус администратора", ErrForbidden)
		}
		u.IsActive = !u.IsActive
		if err = repos.Users().SetUserActive(ctx, u.ID, u.IsActive); err != nil {
			return err
		}
		user = u
		return nil
	})
	if err != nil {
		return nil, s.fail(err, "Ошибка изменения статуса пользователя")
	}

	s.logger.Info("Статус пользователя изменен",
		zap.Int64("user_id", userID), zap.Bool("active", user.IsActive), zap.Int64("admin_id", actor.ID))
	return user, nil
}

func (s *AdminService) admin(ctx context.Context, actorID int64, action access.Action) (*models.User, error) {
	actor, err := loadActor(ctx, s.store, actorID)
	if err != nil {
		return nil, err
	}
	if err = access.Check(actor, action, nil); err != nil {
		s.logger.Info("Доступ запрещен", zap.Int64("user_id", actorID), zap.String("action", string(action)))
		return nil, translate(err)
	}
	return actor, nil
}

func (s *AdminService) fail(err error, msg string) error {
	err = translate(err)
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrValidation), errors.Is(err, ErrForbidden):
		s.logger.Debug(msg, zap.Error(err))
	default:
		s.logger.Error(msg, zap.Error(err))
	}
	return err
}

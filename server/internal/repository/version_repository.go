package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/maynagashev/slidedeck/models"
)

const versionColumns = `id, presentation_id, version_number, filename, file_path, file_size, created_by,` +
	` change_description, content_snapshot, created_at`

// VersionRepository определяет методы для работы с версиями презентаций.
// Версии неизменяемы: методов обновления нет, удаляются только каскадно вместе с презентацией.
type VersionRepository interface {
	// CreateVersion сохраняет версию. Если номер уже занят - ErrVersionConflict.
	CreateVersion(ctx context.Context, v *models.PresentationVersion) (int64, error)
	GetVersion(ctx context.Context, presentationID int64, number int) (*models.PresentationVersion, error)
	ListVersions(ctx context.Context, presentationID int64) ([]models.PresentationVersion, error)
	// MaxVersionNumber возвращает наибольший номер версии или 0, если версий нет.
	MaxVersionNumber(ctx context.Context, presentationID int64) (int, error)
	VersionExists(ctx context.Context, presentationID int64, number int) (bool, error)
	CountVersions(ctx context.Context) (int, error)
}

// sqlVersionRepository реализует VersionRepository для PostgreSQL и SQLite.
type sqlVersionRepository struct {
	db     Querier
	logger *zap.Logger
}

// NewVersionRepository создает новый экземпляр репозитория версий.
func NewVersionRepository(db Querier, logger *zap.Logger) VersionRepository {
	return &sqlVersionRepository{db: db, logger: logger}
}

// CreateVersion сохраняет новую версию и возвращает ее ID.
func (r *sqlVersionRepository) CreateVersion(ctx context.Context, v *models.PresentationVersion) (int64, error) {
	query := r.db.Rebind(`INSERT INTO presentation_versions` +
		` (presentation_id, version_number, filename, file_path, file_size, created_by, change_description,` +
		` content_snapshot, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`)
	var id int64

	err := r.db.QueryRowxContext(ctx, query,
		v.PresentationID, v.VersionNumber, v.Filename, v.FilePath, v.FileSize, v.CreatedBy, v.ChangeDescription,
		v.ContentSnapshot, v.CreatedAt,
	).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) || isContention(err) {
			r.logger.Info("Номер версии уже занят",
				zap.Int64("presentation_id", v.PresentationID), zap.Int("version", v.VersionNumber))
			return 0, fmt.Errorf("%w: презентация %d, версия %d", ErrVersionConflict, v.PresentationID, v.VersionNumber)
		}
		return 0, fmt.Errorf("ошибка выполнения запроса на создание версии: %w", err)
	}

	r.logger.Debug("Версия создана",
		zap.Int64("presentation_id", v.PresentationID), zap.Int("version", v.VersionNumber), zap.Int64("version_id", id))
	return id, nil
}

// GetVersion находит версию по номеру.
func (r *sqlVersionRepository) GetVersion(
	ctx context.Context,
	presentationID int64,
	number int,
) (*models.PresentationVersion, error) {
	query := r.db.Rebind(`SELECT ` + versionColumns +
		` FROM presentation_versions WHERE presentation_id = ? AND version_number = ?`)
	var v models.PresentationVersion

	if err := r.db.GetContext(ctx, &v, query, presentationID, number); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrVersionNotFound
		}
		return nil, fmt.Errorf("ошибка выполнения запроса на получение версии: %w", err)
	}
	return &v, nil
}

// ListVersions возвращает версии презентации, новые первыми.
func (r *sqlVersionRepository) ListVersions(
	ctx context.Context,
	presentationID int64,
) ([]models.PresentationVersion, error) {
	query := r.db.Rebind(`SELECT ` + versionColumns +
		` FROM presentation_versions WHERE presentation_id = ? ORDER BY version_number DESC`)

	versions := []models.PresentationVersion{}
	if err := r.db.SelectContext(ctx, &versions, query, presentationID); err != nil {
		return nil, fmt.Errorf("ошибка выполнения запроса на получение списка версий: %w", err)
	}
	return versions, nil
}

// MaxVersionNumber возвращает наибольший номер версии презентации.
func (r *sqlVersionRepository) MaxVersionNumber(ctx context.Context, presentationID int64) (int, error) {
	query := r.db.Rebind(`SELECT COALESCE(MAX(version_number), 0) FROM presentation_versions WHERE presentation_id = ?`)
	var number int
	if err := r.db.GetContext(ctx, &number, query, presentationID); err != nil {
		return 0, fmt.Errorf("ошибка получения номера последней версии: %w", err)
	}
	return number, nil
}

// VersionExists проверяет наличие версии с указанным номером.
func (r *sqlVersionRepository) VersionExists(ctx context.Context, presentationID int64, number int) (bool, error) {
	query := r.db.Rebind(`SELECT COUNT(*) FROM presentation_versions WHERE presentation_id = ? AND version_number = ?`)
	var count int
	if err := r.db.GetContext(ctx, &count, query, presentationID, number); err != nil {
		return false, fmt.Errorf("ошибка проверки существования версии: %w", err)
	}
	return count > 0, nil
}

// CountVersions возвращает общее количество версий всех презентаций.
func (r *sqlVersionRepository) CountVersions(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM presentation_versions`); err != nil {
		return 0, fmt.Errorf("ошибка подсчета версий: %w", err)
	}
	return count, nil
}

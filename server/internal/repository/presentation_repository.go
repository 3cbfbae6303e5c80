package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/maynagashev/slidedeck/models"
)

const presentationColumns = `id, title, description, agenda, content_data, status, current_version, author_id,` +
	` reviewed_by, reviewed_at, review_notes, created_at, updated_at`

// PresentationOrder задает порядок сортировки списка презентаций.
type PresentationOrder int

const (
	// OrderByCreated - новые презентации первыми.
	OrderByCreated PresentationOrder = iota
	// OrderByUpdated - недавно измененные первыми.
	OrderByUpdated
)

// PresentationFilter - условия выборки презентаций.
type PresentationFilter struct {
	AuthorID *int64              // Только презентации автора
	Status   models.ReviewStatus // Пустое значение - любой статус
	Order    PresentationOrder
	Limit    int
	Offset   int
}

// PresentationRepository определяет методы для работы с презентациями.
// Автор презентации задается при создании и больше не меняется.
type PresentationRepository interface {
	CreatePresentation(ctx context.Context, p *models.Presentation) (int64, error)
	GetPresentation(ctx context.Context, id int64) (*models.Presentation, error)
	UpdatePresentation(ctx context.Context, p *models.Presentation) error
	DeletePresentation(ctx context.Context, id int64) error
	ListPresentations(ctx context.Context, filter PresentationFilter) ([]models.Presentation, error)
	CountPresentations(ctx context.Context, filter PresentationFilter) (int, error)
	CountByStatus(ctx context.Context, authorID *int64) (models.StatusCounts, error)
}

// sqlPresentationRepository реализует PresentationRepository для PostgreSQL и SQLite.
type sqlPresentationRepository struct {
	db     Querier
	logger *zap.Logger
}

// NewPresentationRepository создает новый экземпляр репозитория презентаций.
func NewPresentationRepository(db Querier, logger *zap.Logger) PresentationRepository {
	return &sqlPresentationRepository{db: db, logger: logger}
}

// CreatePresentation сохраняет новую презентацию и возвращает ее ID.
func (r *sqlPresentationRepository) CreatePresentation(ctx context.Context, p *models.Presentation) (int64, error) {
	query := r.db.Rebind(`INSERT INTO presentations` +
		` (title, description, agenda, content_data, status, current_version, author_id, created_at, updated_at)` +
		` VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`)
	var id int64

	err := r.db.QueryRowxContext(ctx, query,
		p.Title, p.Description, p.Agenda, p.ContentData, p.Status, p.CurrentVersion, p.AuthorID, p.CreatedAt, p.UpdatedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("ошибка выполнения запроса на создание презентации: %w", err)
	}

	r.logger.Debug("Презентация создана", zap.Int64("presentation_id", id), zap.Int64("author_id", p.AuthorID))
	return id, nil
}

// GetPresentation находит презентацию по ID.
func (r *sqlPresentationRepository) GetPresentation(ctx context.Context, id int64) (*models.Presentation, error) {
	query := r.db.Rebind(`SELECT ` + presentationColumns + ` FROM presentations WHERE id = ?`)
	var p models.Presentation

	if err := r.db.GetContext(ctx, &p, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPresentationNotFound
		}
		return nil, fmt.Errorf("ошибка выполнения запроса на получение презентации: %w", err)
	}
	return &p, nil
}

// UpdatePresentation сохраняет изменяемые поля презентации. author_id не обновляется.
func (r *sqlPresentationRepository) UpdatePresentation(ctx context.Context, p *models.Presentation) error {
	query := r.db.Rebind(`UPDATE presentations SET title = ?, description = ?, agenda = ?, content_data = ?,` +
		` status = ?, current_version = ?, reviewed_by = ?, reviewed_at = ?, review_notes = ?, updated_at = ?` +
		` WHERE id = ?`)

	res, err := r.db.ExecContext(ctx, query,
		p.Title, p.Description, p.Agenda, p.ContentData,
		p.Status, p.CurrentVersion, p.ReviewedBy, p.ReviewedAt, p.ReviewNotes, p.UpdatedAt,
		p.ID,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: %w", ErrBrokenReference, err)
		}
		return fmt.Errorf("ошибка выполнения запроса на обновление презентации: %w", err)
	}
	return requireAffected(res, ErrPresentationNotFound)
}

// DeletePresentation удаляет презентацию. Версии удаляются каскадно.
func (r *sqlPresentationRepository) DeletePresentation(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM presentations WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("ошибка выполнения запроса на удаление презентации: %w", err)
	}
	if err = requireAffected(res, ErrPresentationNotFound); err != nil {
		return err
	}

	r.logger.Debug("Презентация удалена", zap.Int64("presentation_id", id))
	return nil
}

// ListPresentations возвращает страницу презентаций по фильтру.
func (r *sqlPresentationRepository) ListPresentations(
	ctx context.Context,
	filter PresentationFilter,
) ([]models.Presentation, error) {
	where, args := filter.where()
	order := "created_at DESC, id DESC"
	if filter.Order == OrderByUpdated {
		order = "updated_at DESC, id DESC"
	}

	query := `SELECT ` + presentationColumns + ` FROM presentations` + where + ` ORDER BY ` + order
	if filter.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, filter.Limit, filter.Offset)
	}

	items := []models.Presentation{}
	if err := r.db.SelectContext(ctx, &items, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("ошибка выполнения запроса на получение списка презентаций: %w", err)
	}
	return items, nil
}

// CountPresentations возвращает количество презентаций по фильтру без учета страницы.
func (r *sqlPresentationRepository) CountPresentations(ctx context.Context, filter PresentationFilter) (int, error) {
	where, args := filter.where()
	var count int
	if err := r.db.GetContext(ctx, &count, r.db.Rebind(`SELECT COUNT(*) FROM presentations`+where), args...); err != nil {
		return 0, fmt.Errorf("ошибка подсчета презентаций: %w", err)
	}
	return count, nil
}

// CountByStatus считает презентации по статусам. Если authorID задан - только презентации автора.
func (r *sqlPresentationRepository) CountByStatus(ctx context.Context, authorID *int64) (models.StatusCounts, error) {
	query := `SELECT COUNT(*) AS total,` +
		` COALESCE(SUM(CASE WHEN status = 'pending' THEN 1 ELSE 0 END), 0) AS pending,` +
		` COALESCE(SUM(CASE WHEN status = 'approved' THEN 1 ELSE 0 END), 0) AS approved,` +
		` COALESCE(SUM(CASE WHEN status = 'rejected' THEN 1 ELSE 0 END), 0) AS rejected` +
		` FROM presentations`
	where, args := PresentationFilter{AuthorID: authorID}.where()

	var counts models.StatusCounts
	if err := r.db.GetContext(ctx, &counts, r.db.Rebind(query+where), args...); err != nil {
		return models.StatusCounts{}, fmt.Errorf("ошибка подсчета презентаций по статусам: %w", err)
	}
	return counts, nil
}

// where строит условие WHERE с плейсхолдерами '?'.
func (f PresentationFilter) where() (string, []any) {
	var (
		conds []string
		args  []any
	)
	if f.AuthorID != nil {
		conds = append(conds, "author_id = ?")
		args = append(args, *f.AuthorID)
	}
	if f.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, f.Status)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

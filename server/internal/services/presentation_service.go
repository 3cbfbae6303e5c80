package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/maynagashev/slidedeck/models"
	"github.com/maynagashev/slidedeck/server/internal/domain/access"
	"github.com/maynagashev/slidedeck/server/internal/domain/review"
	"github.com/maynagashev/slidedeck/server/internal/metrics"
	"github.com/maynagashev/slidedeck/server/internal/render"
	"github.com/maynagashev/slidedeck/server/internal/repository"
	"github.com/maynagashev/slidedeck/server/internal/storage"
)

// Ограничения полей презентации.
const (
	maxTitleLength       = 200
	maxDescriptionLength = 500
	maxNotesLength       = 1000

	// DefaultPageSize - размер страницы списков по умолчанию.
	DefaultPageSize = 10

	initialVersionDescription = "Initial version"
	editVersionDescription    = "Edited by user"
)

// Download - открытый на чтение файл версии.
type Download struct {
	Reader      io.ReadCloser
	Name        string // Имя файла для Content-Disposition
	Size        int64
	ContentType string
}

// PresentationService реализует операции над презентацией: создание, редактирование,
// проверку, откат, скачивание и удаление. Права проверяются в каждой операции.
type PresentationService struct {
	store    repository.Store
	versions *VersionStore
	files    storage.ArtifactStorage
	review   *review.Machine
	metrics  *metrics.Metrics
	pageSize int
	now      func() time.Time
	logger   *zap.Logger
}

// NewPresentationService создает сервис презентаций.
func NewPresentationService(
	store repository.Store,
	versions *VersionStore,
	files storage.ArtifactStorage,
	m *metrics.Metrics,
	pageSize int,
	logger *zap.Logger,
) *PresentationService {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &PresentationService{
		store:    store,
		versions: versions,
		files:    files,
		review:   review.NewMachine(),
		metrics:  m,
		pageSize: pageSize,
		now:      time.Now,
		logger:   logger.Named("PresentationService"),
	}
}

// WithClock подменяет источник времени.
func (s *PresentationService) WithClock(now func() time.Time) *PresentationService {
	s.now = now
	s.review = review.NewMachineWithClock(now)
	return s
}

// Create создает презентацию и ее первую версию в одной транзакции.
func (s *PresentationService) Create(
	ctx context.Context,
	actorID int64,
	in models.PresentationInput,
) (*models.Presentation, error) {
	actor, err := loadActor(ctx, s.store, actorID)
	if err != nil {
		return nil, err
	}
	if err = access.Check(actor, access.ActionCreate, nil); err != nil {
		return nil, translate(err)
	}
	fields, err := parseInput(in)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	p := &models.Presentation{
		Title:          fields.title,
		Description:    fields.description,
		Agenda:         fields.agenda,
		ContentData:    fields.slides,
		Status:         models.StatusPending,
		CurrentVersion: 1,
		AuthorID:       actor.ID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	var artifact string

	err = s.store.WithTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		id, err := repos.Presentations().CreatePresentation(ctx, p)
		if err != nil {
			return err
		}
		p.ID = id

		v, err := s.versions.createVersionTx(ctx, repos, p, fields.slides, actor.ID, initialVersionDescription)
		if v != nil {
			artifact = v.FilePath
		}
		return err
	})
	if err != nil {
		s.versions.discardUncommitted(ctx, err, artifact)
		return nil, s.fail(err, "Ошибка создания презентации", p.ID)
	}
	s.versions.verify(ctx, p.ID)

	s.logger.Info("Презентация создана",
		zap.Int64("presentation_id", p.ID), zap.Int64("author_id", actor.ID), zap.Int("slides", len(p.ContentData)))
	return p, nil
}

// Edit сохраняет новое содержимое как следующую версию и возвращает презентацию на проверку.
// Редактировать может только автор.
func (s *PresentationService) Edit(
	ctx context.Context,
	actorID int64,
	id int64,
	in models.PresentationInput,
) (*models.Presentation, error) {
	actor, err := loadActor(ctx, s.store, actorID)
	if err != nil {
		return nil, err
	}
	fields, err := parseInput(in)
	if err != nil {
		return nil, err
	}
	description := strings.TrimSpace(in.ChangeDescription)
	if description == "" {
		description = editVersionDescription
	}

	var (
		result   *models.Presentation
		artifact string
	)
	err = s.store.WithTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		p, err := repos.Presentations().GetPresentation(ctx, id)
		if err != nil {
			return err
		}
		if err = access.Check(actor, access.ActionEdit, p); err != nil {
			return err
		}

		p.Title = fields.title
		p.Description = fields.description
		p.Agenda = fields.agenda
		v, err := s.versions.createVersionTx(ctx, repos, p, fields.slides, actor.ID, description)
		if v != nil {
			artifact = v.FilePath
		}
		result = p
		return err
	})
	if err != nil {
		s.versions.discardUncommitted(ctx, err, artifact)
		return nil, s.fail(err, "Ошибка редактирования презентации", id)
	}
	s.versions.verify(ctx, id)
	return result, nil
}

// Get возвращает презентацию автору или администратору.
func (s *PresentationService) Get(ctx context.Context, actorID, id int64) (*models.Presentation, error) {
	_, p, err := s.load(ctx, actorID, id, access.ActionView)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// ListMine возвращает панель автора: статистику и страницу его презентаций.
func (s *PresentationService) ListMine(ctx context.Context, actorID int64, page int) (*models.AuthorDashboard, error) {
	actor, err := loadActor(ctx, s.store, actorID)
	if err != nil {
		return nil, err
	}

	stats, err := s.store.Presentations().CountByStatus(ctx, &actor.ID)
	if err != nil {
		return nil, s.fail(err, "Ошибка подсчета презентаций автора", 0)
	}
	list, err := s.page(ctx, repository.PresentationFilter{AuthorID: &actor.ID}, page)
	if err != nil {
		return nil, err
	}
	return &models.AuthorDashboard{Stats: stats, Presentations: *list}, nil
}

// ListAll возвращает администратору страницу всех презентаций, при необходимости
// отфильтрованных по статусу.
func (s *PresentationService) ListAll(
	ctx context.Context,
	actorID int64,
	status models.ReviewStatus,
	page int,
) (*models.PresentationPage, error) {
	actor, err := loadActor(ctx, s.store, actorID)
	if err != nil {
		return nil, err
	}
	if err = access.Check(actor, access.ActionListAll, nil); err != nil {
		return nil, translate(err)
	}
	if status != "" && !status.Valid() {
		return nil, validationError("неизвестный статус %q", status)
	}
	return s.page(ctx, repository.PresentationFilter{Status: status}, page)
}

// Versions возвращает список версий и номер текущей.
func (s *PresentationService) Versions(ctx context.Context, actorID, id int64) (*models.VersionList, error) {
	_, p, err := s.load(ctx, actorID, id, access.ActionView)
	if err != nil {
		return nil, err
	}
	versions, err := s.versions.ListVersions(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.VersionList{CurrentVersion: p.CurrentVersion, Versions: versions}, nil
}

// Review применяет решение администратора: approved или rejected.
func (s *PresentationService) Review(
	ctx context.Context,
	actorID int64,
	id int64,
	req models.ReviewRequest,
) (*models.Presentation, error) {
	if utf8.RuneCountInString(req.Notes) > maxNotesLength {
		return nil, validationError("комментарий длиннее %d символов", maxNotesLength)
	}
	return s.transition(ctx, actorID, id, func(p *models.Presentation, actor *models.User) error {
		return s.review.Decide(p, actor, req.Status, strings.TrimSpace(req.Notes))
	})
}

// Approve одобряет презентацию.
func (s *PresentationService) Approve(ctx context.Context, actorID, id int64, notes string) (*models.Presentation, error) {
	return s.Review(ctx, actorID, id, models.ReviewRequest{Status: models.StatusApproved, Notes: notes})
}

// Reject отклоняет презентацию.
func (s *PresentationService) Reject(ctx context.Context, actorID, id int64, notes string) (*models.Presentation, error) {
	return s.Review(ctx, actorID, id, models.ReviewRequest{Status: models.StatusRejected, Notes: notes})
}

// ResetReview возвращает презентацию на проверку.
func (s *PresentationService) ResetReview(ctx context.Context, actorID, id int64) (*models.Presentation, error) {
	return s.transition(ctx, actorID, id, func(p *models.Presentation, _ *models.User) error {
		s.review.ResetToPending(p)
		return nil
	})
}

// transition загружает презентацию, применяет к ней переход и сохраняет в одной транзакции.
func (s *PresentationService) transition(
	ctx context.Context,
	actorID int64,
	id int64,
	apply func(p *models.Presentation, actor *models.User) error,
) (*models.Presentation, error) {
	actor, err := loadActor(ctx, s.store, actorID)
	if err != nil {
		return nil, err
	}

	var result *models.Presentation
	err = s.store.WithTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		p, err := repos.Presentations().GetPresentation(ctx, id)
		if err != nil {
			return err
		}
		if err = access.Check(actor, access.ActionReview, p); err != nil {
			return err
		}
		if err = apply(p, actor); err != nil {
			return err
		}
		p.UpdatedAt = s.now().UTC()
		if err = repos.Presentations().UpdatePresentation(ctx, p); err != nil {
			return err
		}
		result = p
		return nil
	})
	if err != nil {
		return nil, s.fail(err, "Ошибка изменения статуса проверки", id)
	}

	s.metrics.IncReviewTransition(string(result.Status))
	s.logger.Info("Статус проверки изменен",
		zap.Int64("presentation_id", id),
		zap.String("status", string(result.Status)),
		zap.Int64("admin_id", actor.ID))
	return result, nil
}

// Rollback делает текущей прежнюю версию. Доступно только администратору.
func (s *PresentationService) Rollback(ctx context.Context, actorID, id int64, number int) (*models.Presentation, error) {
	actor, err := loadActor(ctx, s.store, actorID)
	if err != nil {
		return nil, err
	}
	if err = access.Check(actor, access.ActionRollback, nil); err != nil {
		return nil, translate(err)
	}
	return s.versions.Rollback(ctx, id, number)
}

// OpenDownload открывает файл версии на чтение. Администратор может скачать любую версию,
// автор - только одобренной презентации. Вызывающий код обязан закрыть Reader.
func (s *PresentationService) OpenDownload(ctx context.Context, actorID, id int64, number int) (*Download, error) {
	_, p, err := s.load(ctx, actorID, id, access.ActionDownload)
	if err != nil {
		return nil, err
	}
	v, err := s.versions.GetVersion(ctx, id, number)
	if err != nil {
		return nil, err
	}

	rc, size, err := s.files.Open(ctx, v.FilePath)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, s.fail(err, "Файл версии отсутствует в хранилище", id)
		}
		return nil, s.fail(fmt.Errorf("%w: %w", ErrStorage, err), "Ошибка открытия файла версии", id)
	}

	return &Download{
		Reader:      rc,
		Name:        render.DownloadName(p.Title, v.VersionNumber),
		Size:        size,
		ContentType: render.ContentType,
	}, nil
}

// Delete удаляет презентацию вместе с версиями, затем пытается удалить файлы.
// Ошибки удаления файлов не отменяют удаление записи и отражаются в результате.
func (s *PresentationService) Delete(ctx context.Context, actorID, id int64) (*models.DeleteResult, error) {
	actor, err := loadActor(ctx, s.store, actorID)
	if err != nil {
		return nil, err
	}
	if err = access.Check(actor, access.ActionDelete, nil); err != nil {
		return nil, translate(err)
	}

	var versions []models.PresentationVersion
	err = s.store.WithTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		list, err := repos.Versions().ListVersions(ctx, id)
		if err != nil {
			return err
		}
		versions = list
		return repos.Presentations().DeletePresentation(ctx, id)
	})
	if err != nil {
		return nil, s.fail(err, "Ошибка удаления презентации", id)
	}

	result := &models.DeleteResult{RecordDeleted: true, FilesDeleted: make(map[int]bool, len(versions))}
	for i := range versions {
		result.FilesDeleted[versions[i].VersionNumber] = s.versions.DeleteVersionFile(ctx, &versions[i])
	}

	s.logger.Info("Презентация удалена",
		zap.Int64("presentation_id", id), zap.Int64("admin_id", actor.ID), zap.Int("versions", len(versions)))
	return result, nil
}

// load загружает пользователя и презентацию и проверяет право на действие.
func (s *PresentationService) load(
	ctx context.Context,
	actorID int64,
	id int64,
	action access.Action,
) (*models.User, *models.Presentation, error) {
	actor, err := loadActor(ctx, s.store, actorID)
	if err != nil {
		return nil, nil, err
	}
	p, err := s.store.Presentations().GetPresentation(ctx, id)
	if err != nil {
		return nil, nil, s.fail(err, "Ошибка получения презентации", id)
	}
	if err = access.Check(actor, action, p); err != nil {
		s.logger.Info("Доступ запрещен",
			zap.Int64("presentation_id", id), zap.Int64("user_id", actorID), zap.String("action", string(action)))
		return nil, nil, translate(err)
	}
	return actor, p, nil
}

// page возвращает страницу презентаций по фильтру. Нумерация страниц с 1.
func (s *PresentationService) page(
	ctx context.Context,
	filter repository.PresentationFilter,
	page int,
) (*models.PresentationPage, error) {
	if page < 1 {
		page = 1
	}
	total, err := s.store.Presentations().CountPresentations(ctx, filter)
	if err != nil {
		return nil, s.fail(err, "Ошибка подсчета презентаций", 0)
	}

	filter.Order = repository.OrderByCreated
	filter.Limit = s.pageSize
	filter.Offset = (page - 1) * s.pageSize
	items, err := s.store.Presentations().ListPresentations(ctx, filter)
	if err != nil {
		return nil, s.fail(err, "Ошибка получения списка презентаций", 0)
	}
	return &models.PresentationPage{Items: items, Page: page, PerPage: s.pageSize, Total: total}, nil
}

func (s *PresentationService) fail(err error, msg string, id int64) error {
	return s.versions.fail(err, msg, id)
}

// presentationFields - проверенные поля запроса.
type presentationFields struct {
	title       string
	description string
	agenda      models.StringList
	slides      models.SlideList
}

// parseInput проверяет заголовок и описание и разбирает повестку и слайды.
// Некорректная повестка не считается ошибкой, некорректный slides_data - ошибка.
func parseInput(in models.PresentationInput) (*presentationFields, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, validationError("не указан заголовок")
	}
	if utf8.RuneCountInString(title) > maxTitleLength {
		return nil, validationError("заголовок длиннее %d символов", maxTitleLength)
	}
	description := strings.TrimSpace(in.Description)
	if utf8.RuneCountInString(description) > maxDescriptionLength {
		return nil, validationError("описание длиннее %d символов", maxDescriptionLength)
	}

	slides, err := models.ParseSlides(in.SlidesData)
	if err != nil {
		return nil, translate(err)
	}

	return &presentationFields{
		title:       title,
		description: description,
		agenda:      models.ParseAgenda(in.Agenda),
		slides:      slides,
	}, nil
}

// loadActor загружает пользователя, выполняющего операцию.
// Заблокированный пользователь получает ErrUserInactive.
func loadActor(ctx context.Context, store repository.Store, actorID int64) (*models.User, error) {
	actor, err := store.Users().GetUserByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, fmt.Errorf("%w: пользователь %d", ErrInvalidCredentials, actorID)
		}
		return nil, fmt.Errorf("ошибка получения пользователя: %w", err)
	}
	if !actor.IsActive {
		return nil, ErrUserInactive
	}
	return actor, nil
}

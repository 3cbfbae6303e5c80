package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/maynagashev/slidedeck/models"
	"github.com/maynagashev/slidedeck/server/internal/domain/review"
	"github.com/maynagashev/slidedeck/server/internal/metrics"
	"github.com/maynagashev/slidedeck/server/internal/render"
	"github.com/maynagashev/slidedeck/server/internal/repository"
	"github.com/maynagashev/slidedeck/server/internal/storage"
)

// DocumentGenerator рендерит презентацию и сохраняет файл в хранилище.
type DocumentGenerator interface {
	Generate(
		ctx context.Context,
		presentationID int64,
		meta render.Metadata,
		slides []models.SlideRecord,
	) (*render.Artifact, error)
}

// Проверка, что render.Generator реализует интерфейс DocumentGenerator.
var _ DocumentGenerator = (*render.Generator)(nil)

// VersionStore управляет неизменяемыми версиями презентаций.
//
// Номер новой версии равен max+1 и выделяется в той же транзакции, в которой
// вставляется запись версии и обновляется презентация. Параллельная вставка того же
// номера упирается в ограничение уникальности и возвращает ErrConcurrencyConflict.
// Файл пишется до записи в БД: при ошибке он может остаться в хранилище,
// но ни одна запись на него не ссылается.
type VersionStore struct {
	store     repository.Store
	generator DocumentGenerator
	files     storage.ArtifactStorage
	review    *review.Machine
	metrics   *metrics.Metrics
	now       func() time.Time
	logger    *zap.Logger
}

// NewVersionStore создает хранилище версий.
func NewVersionStore(
	store repository.Store,
	generator DocumentGenerator,
	files storage.ArtifactStorage,
	m *metrics.Metrics,
	logger *zap.Logger,
) *VersionStore {
	return &VersionStore{
		store:     store,
		generator: generator,
		files:     files,
		review:    review.NewMachine(),
		metrics:   m,
		now:       time.Now,
		logger:    logger.Named("VersionStore"),
	}
}

// WithClock подменяет источник времени.
func (s *VersionStore) WithClock(now func() time.Time) *VersionStore {
	s.now = now
	s.review = review.NewMachineWithClock(now)
	return s
}

// CreateVersion генерирует новую версию презентации из slides.
// Презентация перечитывается внутри транзакции, из p берется только ID:
// поля, измененные параллельной правкой, не перезаписываются.
// При успешной фиксации p заменяется актуальным состоянием.
func (s *VersionStore) CreateVersion(
	ctx context.Context,
	p *models.Presentation,
	slides models.SlideList,
	creatorID int64,
	changeDescription string,
) (*models.PresentationVersion, error) {
	var (
		version  *models.PresentationVersion
		current  *models.Presentation
		artifact string
	)

	err := s.store.WithTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		fresh, err := repos.Presentations().GetPresentation(ctx, p.ID)
		if err != nil {
			return err
		}
		v, err := s.createVersionTx(ctx, repos, fresh, slides, creatorID, changeDescription)
		if v != nil {
			artifact = v.FilePath
		}
		version = v
		current = fresh
		return err
	})
	if err != nil {
		s.discardUncommitted(ctx, err, artifact)
		return nil, s.fail(err, "Ошибка создания версии", p.ID)
	}

	*p = *current
	s.verify(ctx, p.ID)
	return version, nil
}

// createVersionTx выполняет шаги создания версии внутри транзакции repos.
// Если файл уже записан, а шаг в БД не удался, вместе с ошибкой возвращается
// подготовленная версия: по ней вызывающий код находит осиротевший файл.
func (s *VersionStore) createVersionTx(
	ctx context.Context,
	repos repository.Repositories,
	p *models.Presentation,
	slides models.SlideList,
	creatorID int64,
	changeDescription string,
) (*models.PresentationVersion, error) {
	maxNumber, err := repos.Versions().MaxVersionNumber(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	number := maxNumber + 1

	author, err := repos.Users().GetUserByID(ctx, p.AuthorID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения автора презентации: %w", err)
	}

	if slides == nil {
		slides = models.SlideList{}
	}
	meta := render.Metadata{
		Title:            p.Title,
		AuthorName:       author.Username,
		AuthorDepartment: author.DepartmentName(),
		AgendaItems:      p.Agenda,
	}

	start := time.Now()
	doc, err := s.generator.Generate(ctx, p.ID, meta, slides)
	s.metrics.ObserveGeneration(time.Since(start), err)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	v := &models.PresentationVersion{
		PresentationID:    p.ID,
		VersionNumber:     number,
		Filename:          doc.Filename,
		FilePath:          doc.Path,
		FileSize:          doc.Size,
		CreatedBy:         creatorID,
		ChangeDescription: changeDescription,
		ContentSnapshot:   slides,
		CreatedAt:         now,
	}
	id, err := repos.Versions().CreateVersion(ctx, v)
	if err != nil {
		return v, err
	}
	v.ID = id

	p.CurrentVersion = number
	p.ContentData = slides
	s.review.ResetToPending(p)
	p.UpdatedAt = now
	if err = repos.Presentations().UpdatePresentation(ctx, p); err != nil {
		return v, err
	}

	s.logger.Info("Версия создана",
		zap.Int64("presentation_id", p.ID),
		zap.Int("version", number),
		zap.Int64("created_by", creatorID),
		zap.String("filename", v.Filename))
	return v, nil
}

// ListVersions возвращает версии презентации, новые первыми.
func (s *VersionStore) ListVersions(ctx context.Context, presentationID int64) ([]models.PresentationVersion, error) {
	versions, err := s.store.Versions().ListVersions(ctx, presentationID)
	if err != nil {
		return nil, s.fail(err, "Ошибка получения списка версий", presentationID)
	}
	return versions, nil
}

// GetVersion возвращает версию по номеру или ErrNotFound.
func (s *VersionStore) GetVersion(
	ctx context.Context,
	presentationID int64,
	number int,
) (*models.PresentationVersion, error) {
	v, err := s.store.Versions().GetVersion(ctx, presentationID, number)
	if err != nil {
		return nil, s.fail(err, "Ошибка получения версии", presentationID)
	}
	return v, nil
}

// Rollback делает текущей существующую версию number. Новая версия не создается:
// содержимое восстанавливается из снимка, статус проверки сбрасывается в pending.
func (s *VersionStore) Rollback(ctx context.Context, presentationID int64, number int) (*models.Presentation, error) {
	var result *models.Presentation

	err := s.store.WithTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		p, err := repos.Presentations().GetPresentation(ctx, presentationID)
		if err != nil {
			return err
		}
		v, err := repos.Versions().GetVersion(ctx, presentationID, number)
		if err != nil {
			return err
		}

		p.CurrentVersion = v.VersionNumber
		p.ContentData = v.ContentSnapshot
		s.review.ResetToPending(p)
		p.UpdatedAt = s.now().UTC()
		if err = repos.Presentations().UpdatePresentation(ctx, p); err != nil {
			return err
		}
		result = p
		return nil
	})
	if err != nil {
		return nil, s.fail(err, "Ошибка отката версии", presentationID)
	}

	s.logger.Info("Презентация откачена на версию",
		zap.Int64("presentation_id", presentationID), zap.Int("version", number))
	s.verify(ctx, presentationID)
	return result, nil
}

// DeleteVersionFile удаляет файл версии. Ошибки не возвращаются:
// они записываются в лог, а результат сообщает, был ли файл удален.
func (s *VersionStore) DeleteVersionFile(ctx context.Context, v *models.PresentationVersion) bool {
	if err := s.files.Delete(ctx, v.FilePath); err != nil {
		s.logger.Warn("Не удалось удалить файл версии",
			zap.Int64("presentation_id", v.PresentationID),
			zap.Int("version", v.VersionNumber),
			zap.String("path", v.FilePath),
			zap.Error(err))
		return false
	}
	return true
}

// CheckInvariant проверяет, что текущая версия презентации существует.
func (s *VersionStore) CheckInvariant(ctx context.Context, presentationID int64) error {
	p, err := s.store.Presentations().GetPresentation(ctx, presentationID)
	if err != nil {
		return s.fail(err, "Ошибка проверки целостности", presentationID)
	}
	exists, err := s.store.Versions().VersionExists(ctx, presentationID, p.CurrentVersion)
	if err != nil {
		return s.fail(err, "Ошибка проверки целостности", presentationID)
	}
	if !exists {
		s.logger.Error("Текущая версия не найдена",
			zap.Int64("presentation_id", presentationID), zap.Int("version", p.CurrentVersion))
		return fmt.Errorf("%w: презентация %d, версия %d", ErrInconsistent, presentationID, p.CurrentVersion)
	}
	return nil
}

// verify при уровне логирования debug проверяет целостность после изменения версий.
// Нарушение пишется в лог, результат операции не меняется.
func (s *VersionStore) verify(ctx context.Context, presentationID int64) {
	if !s.logger.Core().Enabled(zap.DebugLevel) {
		return
	}
	if err := s.CheckInvariant(ctx, presentationID); err != nil {
		return
	}
	s.logger.Debug("Целостность версий проверена", zap.Int64("presentation_id", presentationID))
}

// discardUncommitted удаляет файл версии, если транзакция точно откатилась.
// При неизвестном результате COMMIT запись могла сохраниться, и файл остается.
func (s *VersionStore) discardUncommitted(ctx context.Context, txErr error, path string) {
	if path == "" {
		return
	}
	if errors.Is(txErr, repository.ErrCommitUnknown) {
		s.logger.Warn("Результат фиксации неизвестен, файл версии сохранен", zap.String("path", path))
		return
	}
	if err := s.files.Delete(context.WithoutCancel(ctx), path); err != nil {
		s.logger.Warn("Осиротевший файл версии не удален", zap.String("path", path), zap.Error(err))
	}
}

// fail переводит ошибку в ошибку сервиса и пишет ее в лог.
// Конфликты версий ожидаемы и учитываются в метриках.
func (s *VersionStore) fail(err error, msg string, presentationID int64) error {
	err = translate(err)
	switch {
	case errors.Is(err, ErrConcurrencyConflict):
		s.metrics.IncVersionConflict()
		s.logger.Info(msg, zap.Int64("presentation_id", presentationID), zap.Error(err))
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrValidation), errors.Is(err, ErrForbidden):
		s.logger.Debug(msg, zap.Int64("presentation_id", presentationID), zap.Error(err))
	default:
		s.logger.Error(msg, zap.Int64("presentation_id", presentationID), zap.Error(err))
	}
	return err
}

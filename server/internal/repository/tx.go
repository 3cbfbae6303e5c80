package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// Querier - подмножество методов sqlx, общее для *sqlx.DB и *sqlx.Tx.
// Репозитории работают через него и не знают, выполняются ли они в транзакции.
type Querier interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
}

// Repositories предоставляет репозитории, привязанные к одному соединению или транзакции.
type Repositories interface {
	Users() UserRepository
	Presentations() PresentationRepository
	Versions() VersionRepository
}

// Store - точка доступа к репозиториям с поддержкой транзакций.
type Store interface {
	Repositories
	// WithTx выполняет fn в транзакции. Транзакция фиксируется, если fn вернула nil,
	// и откатывается при ошибке или панике. Ошибка COMMIT, после которой изменения
	// могли остаться в БД, оборачивается в ErrCommitUnknown.
	WithTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}

// repoSet связывает репозитории с конкретным Querier.
type repoSet struct {
	users         UserRepository
	presentations PresentationRepository
	versions      VersionRepository
}

func newRepoSet(q Querier, logger *zap.Logger) *repoSet {
	return &repoSet{
		users:         NewUserRepository(q, logger),
		presentations: NewPresentationRepository(q, logger),
		versions:      NewVersionRepository(q, logger),
	}
}

func (r *repoSet) Users() UserRepository { return r.users }
func (r *repoSet) Presentations() PresentationRepository { return r.presentations }
func (r *repoSet) Versions() VersionRepository { return r.versions }

// sqlStore реализует Store поверх *sqlx.DB.
type sqlStore struct {
	*repoSet
	db     *sqlx.DB
	logger *zap.Logger
}

// Проверка, что sqlStore реализует интерфейс Store.
var _ Store = (*sqlStore)(nil)

// NewStore создает Store для указанного подключения.
func NewStore(db *sqlx.DB, logger *zap.Logger) Store {
	logger = logger.Named("Repo")
	return &sqlStore{repoSet: newRepoSet(db, logger), db: db, logger: logger}
}

// WithTx выполняет fn в транзакции.
func (s *sqlStore) WithTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) (err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		if isContention(err) {
			return fmt.Errorf("%w: %w", ErrVersionConflict, err)
		}
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, context.Canceled) {
				s.logger.Warn("Ошибка отката транзакции", zap.Error(rbErr))
			}
			return
		}
		if err = tx.Commit(); err != nil {
			err = classifyCommitError(err)
		}
	}()

	return fn(ctx, newRepoSet(tx, s.logger))
}

func classifyCommitError(err error) error {
	switch {
	case isContention(err), isUniqueViolation(err):
		return fmt.Errorf("%w: %w", ErrVersionConflict, err)
	case isForeignKeyViolation(err):
		return fmt.Errorf("%w: %w", ErrBrokenReference, err)
	default:
		return fmt.Errorf("%w: %w", ErrCommitUnknown, err)
	}
}

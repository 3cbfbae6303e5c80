package services_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/maynagashev/slidedeck/models"
	"github.com/maynagashev/slidedeck/server/internal/render"
	"github.com/maynagashev/slidedeck/server/internal/repository"
	"github.com/maynagashev/slidedeck/server/internal/repository/repotest"
	"github.com/maynagashev/slidedeck/server/internal/services"
	"github.com/maynagashev/slidedeck/server/internal/storage"
)

var fixedNow = time.Date(2024, time.July, 5, 14, 3, 9, 0, time.UTC)

func clock() time.Time { return fixedNow }

// testEnv - сервисы поверх временной SQLite и локального хранилища.
type testEnv struct {
	store         repository.Store
	files         *storage.LocalStorage
	generator     *render.Generator
	versions      *services.VersionStore
	presentations *services.PresentationService
	admin         *services.AdminService

	author *models.User
	other  *models.User
	boss   *models.User
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	_, store := repotest.NewSQLite(t)
	files, err := storage.NewLocalStorage(t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	generator := render.NewGenerator(files, zap.NewNop()).WithClock(clock)
	versions := services.NewVersionStore(store, generator, files, nil, zap.NewNop()).WithClock(clock)

	return &testEnv{
		store:         store,
		files:         files,
		generator:     generator,
		versions:      versions,
		presentations: services.NewPresentationService(store, versions, files, nil, 2, zap.NewNop()).WithClock(clock),
		admin:         services.NewAdminService(store, 2, zap.NewNop()),
		author:        repotest.CreateUser(t, store, "alice", models.RoleUser),
		other:         repotest.CreateUser(t, store, "bob", models.RoleUser),
		boss:          repotest.CreateUser(t, store, "admin", models.RoleAdmin),
	}
}

// q3Input - пример из описания генератора: повестка из двух пунктов и три слайда.
func q3Input() models.PresentationInput {
	return models.PresentationInput{
		Title:       "Q3 Report!!",
		Description: "Quarterly results",
		Agenda:      "Intro\nNumbers",
		SlidesData: `[{"title":"Intro","content":"Hello","bullet_points":["a","b"]},` +
			`{"title":"Numbers","content":"Revenue up\n\nCosts down","bullet_points":[]},` +
			`{"title":"","content":"","bullet_points":[]}]`,
	}
}

func (e *testEnv) create(t *testing.T) *models.Presentation {
	t.Helper()
	p, err := e.presentations.Create(context.Background(), e.author.ID, q3Input())
	require.NoError(t, err)
	return p
}

func (e *testEnv) reload(t *testing.T, id int64) *models.Presentation {
	t.Helper()
	p, err := e.store.Presentations().GetPresentation(context.Background(), id)
	require.NoError(t, err)
	return p
}

// staleStore подменяет MaxVersionNumber, имитируя транзакцию,
// которая прочитала номер последней версии до параллельной вставки.
type staleStore struct {
	repository.Store
	stale int
}

func (s *staleStore) WithTx(ctx context.Context, fn func(ctx context.Context, repos repository.Repositories) error) error {
	return s.Store.WithTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		return fn(ctx, &staleRepos{Repositories: repos, stale: s.stale})
	})
}

type staleRepos struct {
	repository.Repositories
	stale int
}

func (r *staleRepos) Versions() repository.VersionRepository {
	return &staleVersions{VersionRepository: r.Repositories.Versions(), stale: r.stale}
}

type staleVersions struct {
	repository.VersionRepository
	stale int
}

func (v *staleVersions) MaxVersionNumber(context.Context, int64) (int, error) {
	return v.stale, nil
}

// failingGenerator всегда возвращает ошибку записи документа.
type failingGenerator struct{}

func (failingGenerator) Generate(context.Context, int64, render.Metadata, []models.SlideRecord) (*render.Artifact, error) {
	return nil, fmt.Errorf("%w: disk full", render.ErrStorage)
}

// commitUnknownStore выполняет транзакцию и сообщает о неизвестном результате COMMIT.
// С rollback транзакция откатывается, как при обрыве до фиксации.
type commitUnknownStore struct {
	repository.Store
	rollback bool
}

func (s *commitUnknownStore) WithTx(
	ctx context.Context,
	fn func(ctx context.Context, repos repository.Repositories) error,
) error {
	errLost := errors.New("connection reset by peer")
	err := s.Store.WithTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		if err := fn(ctx, repos); err != nil {
			return err
		}
		if s.rollback {
			return errLost
		}
		return nil
	})
	if err != nil && !errors.Is(err, errLost) {
		return err
	}
	if err == nil {
		return fmt.Errorf("%w: %w", repository.ErrCommitUnknown, errLost)
	}
	return err
}

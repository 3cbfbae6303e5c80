package services_test

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/maynagashev/slidedeck/models"
	"github.com/maynagashev/slidedeck/server/internal/services"
)

func versionNumbers(t *testing.T, env *testEnv, id int64) []int {
	t.Helper()
	versions, err := env.versions.ListVersions(context.Background(), id)
	require.NoError(t, err)
	numbers := make([]int, 0, len(versions))
	for _, v := range versions {
		numbers = append(numbers, v.VersionNumber)
	}
	return numbers
}

func TestVersionStore_CreateVersionAllocatesNextNumber(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := env.create(t)

	for i := 0; i < 3; i++ {
		slides := models.SlideList{{Title: "Edit " + strconv.Itoa(i)}}
		v, err := env.versions.CreateVersion(ctx, p, slides, env.author.ID, "edit")
		require.NoError(t, err)
		assert.Equal(t, i+2, v.VersionNumber)
		assert.Equal(t, v.VersionNumber, p.CurrentVersion)
		assert.Equal(t, slides, p.ContentData)
		require.NoError(t, env.versions.CheckInvariant(ctx, p.ID))
	}

	assert.Equal(t, []int{4, 3, 2, 1}, versionNumbers(t, env, p.ID))
}

func TestVersionStore_ArtifactLayout(t *testing.T) {
	env := newTestEnv(t)
	p := env.create(t)

	v, err := env.versions.GetVersion(context.Background(), p.ID, 1)
	require.NoError(t, err)

	assert.Equal(t, "Q3_Report_20240705_140309.pptx", v.Filename)
	assert.Equal(t, filepath.Join(env.files.Root(), strconv.FormatInt(p.ID, 10), v.Filename), v.FilePath)
	assert.Equal(t, "Initial version", v.ChangeDescription)
	assert.Equal(t, env.author.ID, v.CreatedBy)

	info, err := os.Stat(v.FilePath)
	require.NoError(t, err)
	assert.Equal(t, info.Size(), v.FileSize)
	assert.Positive(t, v.FileSize)
}

func TestVersionStore_SameSecondGenerationsDoNotOverwrite(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := env.create(t)

	v2, err := env.versions.CreateVersion(ctx, p, p.ContentData, env.author.ID, "again")
	require.NoError(t, err)

	assert.Equal(t, "Q3_Report_20240705_140309_1.pptx", v2.Filename)
	_, err = os.Stat(v2.FilePath)
	require.NoError(t, err)
}

func TestVersionStore_ConcurrentAllocationConflicts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := env.create(t)

	// Первая транзакция занимает версию 2.
	_, err := env.versions.CreateVersion(ctx, p, models.SlideList{{Title: "first"}}, env.author.ID, "first")
	require.NoError(t, err)
	committed := env.reload(t, p.ID)

	// Вторая прочитала номер последней версии до первой и пытается занять тот же номер.
	loser := services.NewVersionStore(&staleStore{Store: env.store, stale: 1}, env.generator, env.files, nil, zap.NewNop())
	before := *p
	_, err = loser.CreateVersion(ctx, p, models.SlideList{{Title: "second"}}, env.author.ID, "second")
	require.ErrorIs(t, err, services.ErrConcurrencyConflict)

	assert.Equal(t, before, *p)
	assert.Equal(t, committed, env.reload(t, p.ID))
	assert.Equal(t, []int{2, 1}, versionNumbers(t, env, p.ID))

	// Повтор после конфликта получает следующий номер.
	v, err := env.versions.CreateVersion(ctx, p, models.SlideList{{Title: "second"}}, env.author.ID, "retry")
	require.NoError(t, err)
	assert.Equal(t, 3, v.VersionNumber)
}

func TestVersionStore_ParallelEditsStayGapless(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := env.create(t)

	const writers = 5
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			in := q3Input()
			in.SlidesData = `[{"title":"writer ` + strconv.Itoa(i) + `"}]`
			_, err := env.presentations.Edit(ctx, env.author.ID, p.ID, in)
			if err != nil {
				assert.ErrorIs(t, err, services.ErrConcurrencyConflict)
				return
			}
			mu.Lock()
			succeeded++
			mu.Unlock()
		}(i)
	}
	wg.Wait()

	numbers := versionNumbers(t, env, p.ID)
	require.Len(t, numbers, succeeded+1)
	for i, n := range numbers {
		assert.Equal(t, len(numbers)-i, n)
	}
	assert.Equal(t, numbers[0], env.reload(t, p.ID).CurrentVersion)
	require.NoError(t, env.versions.CheckInvariant(ctx, p.ID))
}

func TestVersionStore_RollbackRestoresSnapshot(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := env.create(t)
	original := p.ContentData

	_, err := env.versions.CreateVersion(ctx, p, models.SlideList{{Title: "Rewritten"}}, env.author.ID, "edit")
	require.NoError(t, err)
	_, err = env.presentations.Approve(ctx, env.boss.ID, p.ID, "ok")
	require.NoError(t, err)

	rolled, err := env.versions.Rollback(ctx, p.ID, 1)
	require.NoError(t, err)

	assert.Equal(t, 1, rolled.CurrentVersion)
	assert.Equal(t, original, rolled.ContentData)
	assert.Equal(t, models.StatusPending, rolled.Status)
	assert.Nil(t, rolled.ReviewedBy)
	assert.Equal(t, []int{2, 1}, versionNumbers(t, env, p.ID))

	stored := env.reload(t, p.ID)
	assert.Equal(t, original, stored.ContentData)
	assert.Equal(t, 1, stored.CurrentVersion)
	require.NoError(t, env.versions.CheckInvariant(ctx, p.ID))
}

func TestVersionStore_RollbackToMissingVersion(t *testing.T) {
	env := newTestEnv(t)
	p := env.create(t)

	_, err := env.versions.Rollback(context.Background(), p.ID, 9)
	require.ErrorIs(t, err, services.ErrNotFound)
	assert.Equal(t, 1, env.reload(t, p.ID).CurrentVersion)
}

func TestVersionStore_GetVersionNotFound(t *testing.T) {
	env := newTestEnv(t)
	p := env.create(t)

	_, err := env.versions.GetVersion(context.Background(), p.ID, 2)
	require.ErrorIs(t, err, services.ErrNotFound)
}

func TestVersionStore_DeleteVersionFile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := env.create(t)
	v, err := env.versions.GetVersion(ctx, p.ID, 1)
	require.NoError(t, err)

	assert.True(t, env.versions.DeleteVersionFile(ctx, v))
	assert.NoFileExists(t, v.FilePath)
	// Повторное удаление не паникует и не возвращает ошибку.
	assert.False(t, env.versions.DeleteVersionFile(ctx, v))
}

func TestVersionStore_FailedGenerationKeepsState(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := env.create(t)
	before := env.reload(t, p.ID)

	broken := services.NewVersionStore(env.store, failingGenerator{}, env.files, nil, zap.NewNop())
	_, err := broken.CreateVersion(ctx, p, models.SlideList{{Title: "never"}}, env.author.ID, "edit")
	require.ErrorIs(t, err, services.ErrStorage)

	assert.Equal(t, before, env.reload(t, p.ID))
	assert.Equal(t, []int{1}, versionNumbers(t, env, p.ID))
}

func artifactNames(t *testing.T, env *testEnv, id int64) []string {
	t.Helper()
	entries, err := os.ReadDir(filepath.Join(env.files.Root(), strconv.FormatInt(id, 10)))
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestVersionStore_CommitFailureArtifacts(t *testing.T) {
	tests := []struct {
		name          string
		rollback      bool
		wantVersions  []int
		wantArtifacts int
	}{
		{
			name:          "Неизвестный результат COMMIT сохраняет файл",
			wantVersions:  []int{2, 1},
			wantArtifacts: 2,
		},
		{
			name:          "Откат транзакции удаляет файл",
			rollback:      true,
			wantVersions:  []int{1},
			wantArtifacts: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			ctx := context.Background()
			p := env.create(t)

			store := &commitUnknownStore{Store: env.store, rollback: tt.rollback}
			versions := services.NewVersionStore(store, env.generator, env.files, nil, zap.NewNop()).WithClock(clock)
			_, err := versions.CreateVersion(ctx, p, models.SlideList{{Title: "lost"}}, env.author.ID, "edit")
			require.Error(t, err)

			assert.Equal(t, tt.wantVersions, versionNumbers(t, env, p.ID))
			assert.Len(t, artifactNames(t, env, p.ID), tt.wantArtifacts)

			// Каждая сохраненная запись указывает на существующий файл.
			stored, err := env.versions.ListVersions(ctx, p.ID)
			require.NoError(t, err)
			for _, v := range stored {
				assert.FileExists(t, v.FilePath)
			}
		})
	}
}

func TestVersionStore_CreateVersionKeepsConcurrentFields(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := env.create(t)
	stale := *p

	in := q3Input()
	in.Title = "Renamed"
	in.Agenda = "Only item"
	edited, err := env.presentations.Edit(ctx, env.author.ID, p.ID, in)
	require.NoError(t, err)

	slides := models.SlideList{{Title: "Late"}}
	v, err := env.versions.CreateVersion(ctx, &stale, slides, env.author.ID, "late")
	require.NoError(t, err)
	assert.Equal(t, 3, v.VersionNumber)

	stored := env.reload(t, p.ID)
	assert.Equal(t, edited.Title, stored.Title)
	assert.Equal(t, edited.Agenda, stored.Agenda)
	assert.Equal(t, slides, stored.ContentData)
	assert.Equal(t, "Renamed", stale.Title)
	assert.Equal(t, 3, stale.CurrentVersion)
}

func TestVersionStore_DebugIntegrityCheck(t *testing.T) {
	tests := []struct {
		name      string
		level     zapcore.Level
		wantCheck int
	}{
		{name: "Уровень debug проверяет после каждого изменения", level: zapcore.DebugLevel, wantCheck: 2},
		{name: "Уровень info пропускает проверку", level: zapcore.InfoLevel, wantCheck: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			ctx := context.Background()
			p := env.create(t)

			core, logs := observer.New(tt.level)
			versions := services.NewVersionStore(env.store, env.generator, env.files, nil, zap.New(core)).WithClock(clock)

			_, err := versions.CreateVersion(ctx, p, models.SlideList{{Title: "Next"}}, env.author.ID, "edit")
			require.NoError(t, err)
			_, err = versions.Rollback(ctx, p.ID, 1)
			require.NoError(t, err)

			assert.Equal(t, tt.wantCheck, logs.FilterMessage("Целостность версий проверена").Len())
			assert.Zero(t, logs.FilterLevelExact(zapcore.ErrorLevel).Len())
		})
	}
}

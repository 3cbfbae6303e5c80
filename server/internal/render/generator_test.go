package render_test

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/maynagashev/slidedeck/server/internal/render"
	"github.com/maynagashev/slidedeck/server/internal/storage"
)

func TestGenerator_Generate(t *testing.T) {
	st, err := storage.NewLocalStorage(t.TempDir(), zap.NewNop())
	require.NoError(t, err)

	gen := render.NewGenerator(st, zap.NewNop()).WithClock(func() time.Time { return fixedNow })
	artifact, err := gen.Generate(context.Background(), 12,
		render.Metadata{Title: "Q3 Report!!", AuthorName: "alice"}, q3Slides())
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^Q3_Report_\d{8}_\d{6}\.pptx$`), artifact.Filename)
	assert.Equal(t, filepath.Join(st.Root(), "12", artifact.Filename), artifact.Path)
	assert.Positive(t, artifact.Size)

	rc, size, err := st.Open(context.Background(), artifact.Path)
	require.NoError(t, err)
	defer rc.Close()
	assert.Equal(t, artifact.Size, size)

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, 4, countSlides(readPackage(t, data)))
}

func TestGenerator_SameSecondDoesNotOverwrite(t *testing.T) {
	st, err := storage.NewLocalStorage(t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	gen := render.NewGenerator(st, zap.NewNop()).WithClock(func() time.Time { return fixedNow })

	first, err := gen.Generate(context.Background(), 1, render.Metadata{Title: "Deck"}, nil)
	require.NoError(t, err)
	second, err := gen.Generate(context.Background(), 1, render.Metadata{Title: "Deck"}, nil)
	require.NoError(t, err)

	assert.NotEqual(t, first.Path, second.Path)
}

// failingStorage всегда возвращает ошибку записи.
type failingStorage struct {
	storage.ArtifactStorage
}

func (failingStorage) Save(context.Context, string, string, []byte) (*storage.StoredFile, error) {
	return nil, errors.New("disk full")
}

func TestGenerator_StorageFailure(t *testing.T) {
	gen := render.NewGenerator(failingStorage{}, zap.NewNop())

	_, err := gen.Generate(context.Background(), 1, render.Metadata{Title: "Deck"}, nil)
	require.ErrorIs(t, err, render.ErrStorage)
}

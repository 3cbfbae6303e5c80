package render

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/maynagashev/slidedeck/models"
	"github.com/maynagashev/slidedeck/server/internal/storage"
)

// ErrStorage возвращается, когда документ не удалось записать в хранилище.
var ErrStorage = errors.New("ошибка записи документа в хранилище")

// Artifact описывает записанный документ.
type Artifact struct {
	Path     string
	Filename string
	Size     int64
}

// Generator рендерит презентацию и сохраняет документ в хранилище
// по пути {presentationID}/{filename}.
type Generator struct {
	storage storage.ArtifactStorage
	now     func() time.Time
	logger  *zap.Logger
}

// NewGenerator создает генератор документов.
func NewGenerator(st storage.ArtifactStorage, logger *zap.Logger) *Generator {
	return &Generator{storage: st, now: time.Now, logger: logger.Named("Generator")}
}

// WithClock подменяет источник времени.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate рендерит колоду и записывает ее в хранилище.
// Любая ошибка записи оборачивается в ErrStorage.
func (g *Generator) Generate(
	ctx context.Context,
	presentationID int64,
	meta Metadata,
	slides []models.SlideRecord,
) (*Artifact, error) {
	now := g.now()
	deck := BuildDeck(meta, slides, now)

	data, err := RenderPPTX(deck)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}

	stored, err := g.storage.Save(ctx, strconv.FormatInt(presentationID, 10), Filename(meta.Title, now), data)
	if err != nil {
		g.logger.Error("Ошибка сохранения документа",
			zap.Int64("presentation_id", presentationID), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}

	g.logger.Info("Документ сгенерирован",
		zap.Int64("presentation_id", presentationID),
		zap.String("filename", stored.Filename),
		zap.Int("slides", len(deck.Slides)),
		zap.Int64("size", stored.Size))

	return &Artifact{Path: stored.Path, Filename: stored.Filename, Size: stored.Size}, nil
}

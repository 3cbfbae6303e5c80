package handlers

import (
	"context"
	"io"
	"mime"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/maynagashev/slidedeck/models"
	"github.com/maynagashev/slidedeck/server/internal/services"
)

// PresentationService определяет операции над презентациями, доступные через API.
type PresentationService interface {
	Create(ctx context.Context, actorID int64, in models.PresentationInput) (*models.Presentation, error)
	Edit(ctx context.Context, actorID, id int64, in models.PresentationInput) (*models.Presentation, error)
	Get(ctx context.Context, actorID, id int64) (*models.Presentation, error)
	ListMine(ctx context.Context, actorID int64, page int) (*models.AuthorDashboard, error)
	ListAll(ctx context.Context, actorID int64, status models.ReviewStatus, page int) (*models.PresentationPage, error)
	Versions(ctx context.Context, actorID, id int64) (*models.VersionList, error)
	Review(ctx context.Context, actorID, id int64, req models.ReviewRequest) (*models.Presentation, error)
	ResetReview(ctx context.Context, actorID, id int64) (*models.Presentation, error)
	Rollback(ctx context.Context, actorID, id int64, number int) (*models.Presentation, error)
	OpenDownload(ctx context.Context, actorID, id int64, number int) (*services.Download, error)
	Delete(ctx context.Context, actorID, id int64) (*models.DeleteResult, error)
}

// Проверка, что сервис презентаций удовлетворяет интерфейсу обработчика.
var _ PresentationService = (*services.PresentationService)(nil)

// PresentationHandler обрабатывает HTTP-запросы к презентациям.
type PresentationHandler struct {
	service PresentationService
	logger  *zap.Logger
}

// NewPresentationHandler создает новый экземпляр PresentationHandler.
func NewPresentationHandler(s PresentationService, logger *zap.Logger) *PresentationHandler {
	return &PresentationHandler{service: s, logger: logger.Named("PresentationHandler")}
}

// List возвращает панель автора: статистику и страницу его презентаций.
func (h *PresentationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r, h.logger)
	if !ok {
		return
	}
	dash, err := h.service.ListMine(r.Context(), userID, pageParam(r))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, dash)
}

// Create создает презентацию и генерирует первую версию.
func (h *PresentationHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r, h.logger)
	if !ok {
		return
	}
	var in models.PresentationInput
	if !decodeJSON(w, r, h.logger, &in) {
		return
	}

	p, err := h.service.Create(r.Context(), userID, in)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusCreated, p)
}

// Get возвращает презентацию.
func (h *PresentationHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := h.params(w, r)
	if !ok {
		return
	}
	p, err := h.service.Get(r.Context(), userID, id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, p)
}

// Update сохраняет новое содержимое презентации как следующую версию.
func (h *PresentationHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := h.params(w, r)
	if !ok {
		return
	}
	var in models.PresentationInput
	if !decodeJSON(w, r, h.logger, &in) {
		return
	}

	p, err := h.service.Edit(r.Context(), userID, id, in)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, p)
}

// Versions возвращает список версий презентации.
func (h *PresentationHandler) Versions(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := h.params(w, r)
	if !ok {
		return
	}
	list, err := h.service.Versions(r.Context(), userID, id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, list)
}

// Download отдает файл версии.
func (h *PresentationHandler) Download(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := h.params(w, r)
	if !ok {
		return
	}
	number, ok := pathInt64(w, r, h.logger, "version")
	if !ok {
		return
	}

	dl, err := h.service.OpenDownload(r.Context(), userID, id, int(number))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	defer func() {
		if closeErr := dl.Reader.Close(); closeErr != nil {
			h.logger.Warn("Ошибка закрытия файла версии", zap.Error(closeErr))
		}
	}()

	w.Header().Set("Content-Type", dl.ContentType)
	// Имена с кириллицей и кавычками кодируются по RFC 2231 (filename*).
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": dl.Name}))
	w.Header().Set("Content-Length", strconv.FormatInt(dl.Size, 10))
	w.WriteHeader(http.StatusOK)

	written, err := io.Copy(w, dl.Reader)
	if err != nil {
		h.logger.Warn("Ошибка отправки файла версии",
			zap.Int64("presentation_id", id), zap.Int64("written", written), zap.Error(err))
		return
	}
	h.logger.Info("Файл версии отправлен",
		zap.Int64("presentation_id", id), zap.Int64("version", number), zap.Int64("user_id", userID))
}

// params читает ID пользователя из контекста и ID презентации из пути.
func (h *PresentationHandler) params(w http.ResponseWriter, r *http.Request) (int64, int64, bool) {
	userID, ok := currentUser(w, r, h.logger)
	if !ok {
		return 0, 0, false
	}
	id, ok := pathInt64(w, r, h.logger, "id")
	if !ok {
		return 0, 0, false
	}
	return userID, id, true
}

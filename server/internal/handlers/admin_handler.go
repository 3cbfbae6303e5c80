package handlers

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/maynagashev/slidedeck/models"
	"github.com/maynagashev/slidedeck/server/internal/services"
)

// AdminService определяет операции панели администратора.
type AdminService interface {
	Dashboard(ctx context.Context, actorID int64) (*models.AdminDashboard, error)
	ListUsers(ctx context.Context, actorID int64, page int) (*models.UserPage, error)
	ToggleUserStatus(ctx context.Context, actorID, userID int64) (*models.User, error)
}

var _ AdminService = (*services.AdminService)(nil)

// AdminHandler обрабатывает HTTP-запросы администратора.
type AdminHandler struct {
	presentations PresentationService
	admin         AdminService
	logger        *zap.Logger
}

// NewAdminHandler создает новый экземпляр AdminHandler.
func NewAdminHandler(p PresentationService, a AdminService, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{presentations: p, admin: a, logger: logger.Named("AdminHandler")}
}

// Dashboard возвращает статистику для панели администратора.
func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r, h.logger)
	if !ok {
		return
	}
	dash, err := h.admin.Dashboard(r.Context(), userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, dash)
}

// Presentations возвращает страницу всех презентаций с фильтром ?status=.
func (h *AdminHandler) Presentations(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r, h.logger)
	if !ok {
		return
	}
	status := models.ReviewStatus(r.URL.Query().Get("status"))
	page, err := h.presentations.ListAll(r.Context(), userID, status, pageParam(r))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, page)
}

// Review применяет решение по проверке презентации.
func (h *AdminHandler) Review(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := h.params(w, r)
	if !ok {
		return
	}
	var req models.ReviewRequest
	if !decodeJSON(w, r, h.logger, &req) {
		return
	}

	p, err := h.presentations.Review(r.Context(), userID, id, req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, p)
}

// Reset возвращает презентацию на проверку.
func (h *AdminHandler) Reset(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := h.params(w, r)
	if !ok {
		return
	}
	p, err := h.presentations.ResetReview(r.Context(), userID, id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, p)
}

// Rollback делает текущей указанную версию.
func (h *AdminHandler) Rollback(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := h.params(w, r)
	if !ok {
		return
	}
	number, ok := pathInt64(w, r, h.logger, "version")
	if !ok {
		return
	}

	p, err := h.presentations.Rollback(r.Context(), userID, id, int(number))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, p)
}

// Delete удаляет презентацию и файлы ее версий.
func (h *AdminHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := h.params(w, r)
	if !ok {
		return
	}
	result, err := h.presentations.Delete(r.Context(), userID, id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, result)
}

// Users возвращает страницу пользователей.
func (h *AdminHandler) Users(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r, h.logger)
	if !ok {
		return
	}
	page, err := h.admin.ListUsers(r.Context(), userID, pageParam(r))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, page)
}

// ToggleUserStatus блокирует или разблокирует пользователя.
func (h *AdminHandler) ToggleUserStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r, h.logger)
	if !ok {
		return
	}
	targetID, ok := pathInt64(w, r, h.logger, "id")
	if !ok {
		return
	}
	user, err := h.admin.ToggleUserStatus(r.Context(), userID, targetID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, user)
}

func (h *AdminHandler) params(w http.ResponseWriter, r *http.Request) (int64, int64, bool) {
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

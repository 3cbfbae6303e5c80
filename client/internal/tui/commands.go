package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/maynagashev/slidedeck/client/internal/api"
	"github.com/maynagashev/slidedeck/models"
)

const (
	statusMessageTimeout = 3 * time.Second
	requestTimeout       = 30 * time.Second
)

// --- Сообщения --- //

// errMsg сообщает об ошибке выполнения команды.
type errMsg struct {
	err error
}

type clearStatusMsg struct{}

type loginSuccessMsg struct {
	user models.User
}

type registerSuccessMsg struct {
	user models.User
}

// presentationsLoadedMsg содержит страницу презентаций.
type presentationsLoadedMsg struct {
	items   []models.Presentation
	total   int
	perPage int
	stats   *models.StatusCounts // Только для панели автора
}

type versionsLoadedMsg struct {
	list models.VersionList
}

// presentationUpdatedMsg сообщает об изменении презентации (проверка, сброс, откат).
type presentationUpdatedMsg struct {
	presentation models.Presentation
	action       string
}

type downloadDoneMsg struct {
	path string
}

// --- Команды --- //

// clearStatusCmd возвращает команду, которая отправит clearStatusMsg через delay.
func clearStatusCmd(delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(_ time.Time) tea.Msg {
		return clearStatusMsg{}
	})
}

// makeLoginCmd выполняет вход через API.
func (m *model) makeLoginCmd(email, password string) tea.Cmd {
	client := m.apiClient
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		resp, err := client.Login(ctx, email, password)
		if err != nil {
			return errMsg{err: err}
		}
		return loginSuccessMsg{user: resp.User}
	}
}

// makeRegisterCmd выполняет регистрацию через API.
func (m *model) makeRegisterCmd(req models.RegisterRequest) tea.Cmd {
	client := m.apiClient
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		user, err := client.Register(ctx, req)
		if err != nil {
			return errMsg{err: err}
		}
		return registerSuccessMsg{user: *user}
	}
}

// loadPresentationsCmd загружает текущую страницу списка.
// Администратор видит все презентации с фильтром, автор видит только свои.
func (m *model) loadPresentationsCmd() tea.Cmd {
	client := m.apiClient
	admin := m.isAdmin()
	status := m.statusFilter
	page := m.page
	logger := m.logger
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		if admin {
			result, err := client.AdminPresentations(ctx, status, page)
			if err != nil {
				return errMsg{err: err}
			}
			logger.Debug("Загружены презентации", zap.Int("count", len(result.Items)), zap.Int("page", page))
			return presentationsLoadedMsg{items: result.Items, total: result.Total, perPage: result.PerPage}
		}

		dash, err := client.ListPresentations(ctx, page)
		if err != nil {
			return errMsg{err: err}
		}
		logger.Debug("Загружены презентации автора", zap.Int("count", len(dash.Presentations.Items)))
		stats := dash.Stats
		return presentationsLoadedMsg{
			items:   dash.Presentations.Items,
			total:   dash.Presentations.Total,
			perPage: dash.Presentations.PerPage,
			stats:   &stats,
		}
	}
}

// loadVersionsCmd загружает историю версий выбранной презентации.
func (m *model) loadVersionsCmd(id int64) tea.Cmd {
	client := m.apiClient
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		list, err := client.ListVersions(ctx, id)
		if err != nil {
			return errMsg{err: err}
		}
		return versionsLoadedMsg{list: *list}
	}
}

// reviewCmd отправляет решение администратора.
func (m *model) reviewCmd(id int64, req models.ReviewRequest) tea.Cmd {
	client := m.apiClient
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		p, err := client.Review(ctx, id, req)
		if err != nil {
			return errMsg{err: err}
		}
		return presentationUpdatedMsg{presentation: *p, action: "Решение сохранено: " + string(p.Status)}
	}
}

// resetReviewCmd возвращает презентацию на проверку.
func (m *model) resetReviewCmd(id int64) tea.Cmd {
	client := m.apiClient
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		p, err := client.ResetReview(ctx, id)
		if err != nil {
			return errMsg{err: err}
		}
		return presentationUpdatedMsg{presentation: *p, action: "Презентация возвращена на проверку"}
	}
}

// rollbackCmd откатывает презентацию к версии.
func (m *model) rollbackCmd(id int64, version int) tea.Cmd {
	client := m.apiClient
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		p, err := client.Rollback(ctx, id, version)
		if err != nil {
			return errMsg{err: err}
		}
		return presentationUpdatedMsg{
			presentation: *p,
			action:       fmt.Sprintf("Выполнен откат к версии %d", version),
		}
	}
}

// downloadCmd сохраняет файл версии в каталог загрузок.
func (m *model) downloadCmd(id int64, version int) tea.Cmd {
	client := m.apiClient
	dir := m.downloadDir
	logger := m.logger
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		path, err := downloadVersion(ctx, client, dir, id, version)
		if err != nil {
			return errMsg{err: err}
		}
		logger.Info("Файл версии сохранен", zap.String("path", path))
		return downloadDoneMsg{path: path}
	}
}

// downloadVersion скачивает версию и записывает ее в dir под именем от сервера.
func downloadVersion(ctx context.Context, client api.Client, dir string, id int64, version int) (string, error) {
	body, name, err := client.DownloadVersion(ctx, id, version)
	if err != nil {
		return "", err
	}
	defer body.Close()

	if err = os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("ошибка создания каталога загрузок: %w", err)
	}
	// Имя приходит от сервера, берем только базовую часть.
	path := filepath.Join(dir, filepath.Base(name))
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("ошибка создания файла: %w", err)
	}
	if _, err = io.Copy(file, body); err != nil {
		_ = file.Close()
		return "", fmt.Errorf("ошибка записи файла: %w", err)
	}
	if err = file.Close(); err != nil {
		return "", fmt.Errorf("ошибка записи файла: %w", err)
	}
	return path, nil
}

// describeError возвращает понятное пользователю описание ошибки API.
func describeError(err error) string {
	switch {
	case errors.Is(err, api.ErrAuthorization):
		return "Требуется вход: " + err.Error()
	case errors.Is(err, api.ErrConflict):
		return "Презентацию одновременно изменили, обновите список (r)"
	case errors.Is(err, api.ErrForbidden):
		return "Недостаточно прав"
	default:
		return err.Error()
	}
}

// Package tui реализует терминальный клиент сервиса презентаций на bubbletea.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/maynagashev/slidedeck/client/internal/api"
)

const helpStatusHeightOffset = 3 // Высота строк помощи и статуса

// Init - команда, выполняемая при запуске приложения.
func (m *model) Init() tea.Cmd {
	return textinput.Blink
}

// setStatusMessage устанавливает статусное сообщение и планирует его очистку.
func (m *model) setStatusMessage(status string) (tea.Model, tea.Cmd) {
	m.status = status
	return m, clearStatusCmd(statusMessageTimeout)
}

// helpText возвращает строку подсказки для текущего экрана.
func (m *model) helpText() string {
	switch m.state {
	case loginScreen, registerScreen:
		return "Tab: следующее поле | Ctrl+C: выход"
	case presentationListScreen:
		help := "Enter: версии | r: обновить | n/N: страницы | /: поиск | L: выйти | q: выход"
		if m.isAdmin() {
			help += "\na: одобрить | x: отклонить | p: вернуть на проверку | f: фильтр"
		}
		return help
	case versionListScreen:
		help := "Enter/d: скачать | r: обновить | Esc: назад"
		if m.isAdmin() {
			help += " | R: откатить"
		}
		return help
	case reviewScreen:
		return "Ctrl+S: отправить | Tab: решение | Esc: отмена"
	default:
		return ""
	}
}

// getMainContentView возвращает основное содержимое для текущего состояния.
func (m *model) getMainContentView() string {
	switch m.state {
	case loginScreen:
		return m.viewLoginScreen()
	case registerScreen:
		return m.viewRegisterScreen()
	case presentationListScreen:
		return m.viewPresentationListScreen()
	case versionListScreen:
		return m.viewVersionListScreen()
	case reviewScreen:
		return m.viewReviewScreen()
	default:
		return "Неизвестное состояние!"
	}
}

// View отрисовывает пользовательский интерфейс.
func (m *model) View() string {
	var footer strings.Builder
	if m.status != "" {
		footer.WriteString("\n" + m.status)
	}
	if m.debugMode {
		footer.WriteString("\n\n---\nОтладка:\n")
		footer.WriteString(fmt.Sprintf(" [State: %s]\n", m.state))
		footer.WriteString(fmt.Sprintf(" [URL: %s]\n", m.serverURL))
		if m.user != nil {
			footer.WriteString(fmt.Sprintf(" [User: %d %s]\n", m.user.ID, m.user.Role))
		}
	}

	styledContent := m.docStyle.Render(m.getMainContentView())
	return fmt.Sprintf("%s\n%s%s", styledContent, subtleStyle.Render(m.helpText()), footer.String())
}

// Options содержит параметры запуска TUI.
type Options struct {
	ServerURL   string
	DownloadDir string
	Debug       bool
}

// Start запускает TUI приложение и блокируется до выхода.
func Start(opts Options, logger *zap.Logger) error {
	client := api.NewHTTPClient(opts.ServerURL, logger)
	logger.Info("API клиент инициализирован", zap.String("base_url", opts.ServerURL))

	m := initModel(client, opts.ServerURL, opts.DownloadDir, opts.Debug, logger)

	// Используем AltScreen для корректной работы списка
	p := tea.NewProgram(&m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("ошибка при запуске TUI: %w", err)
	}
	return nil
}

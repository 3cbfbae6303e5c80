package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/maynagashev/slidedeck/client/internal/api"
	"github.com/maynagashev/slidedeck/models"
)

// Состояния (экраны) приложения.
type screenState int

const (
	loginScreen            screenState = iota // Экран ввода данных для входа
	registerScreen                            // Экран регистрации
	presentationListScreen                    // Экран списка презентаций
	versionListScreen                         // Экран истории версий
	reviewScreen                              // Экран проверки презентации (администратор)
)

func (s screenState) String() string {
	switch s {
	case loginScreen:
		return "login"
	case registerScreen:
		return "register"
	case presentationListScreen:
		return "presentations"
	case versionListScreen:
		return "versions"
	case reviewScreen:
		return "review"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// Поля формы регистрации.
const (
	registerFieldUsername = iota
	registerFieldEmail
	registerFieldDepartment
	registerFieldPassword
	numRegisterFields
)

// Константы для TUI.
const (
	defaultListWidth    = 80 // Стандартная ширина терминала для списка
	defaultListHeight   = 24 // Стандартная высота терминала для списка
	inputWidthOffset    = 4  // Отступ для полей ввода
	numLoginFields      = 2
	reviewNotesMaxChars = 1000

	keyEnter    = "enter"
	keyQuit     = "q"
	keyBack     = "b"
	keyEsc      = "esc"
	keyTab      = "tab"
	keyShiftTab = "shift+tab"
	keyRefresh  = "r"
	keyApprove  = "a"
	keyReject   = "x"
	keyReset    = "p"
	keyFilter   = "f"
	keyRollback = "R"
	keyDownload = "d"
	keyNext     = "n"
	keyPrev     = "N"
	keyLogout   = "L"
	keySubmit   = "ctrl+s"
)

// Стили.
//
//nolint:gochecknoglobals // Стили lipgloss неизменяемы
var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FAFAFA"))
	subtleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F25D94"))
)

//nolint:gochecknoglobals // Цвета состояний проверки
var statusStyles = map[models.ReviewStatus]lipgloss.Style{
	models.StatusPending:  lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
	models.StatusApproved: lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
	models.StatusRejected: lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
}

// statusLabel возвращает подпись состояния проверки.
func statusLabel(s models.ReviewStatus) string {
	var label string
	switch s {
	case models.StatusPending:
		label = "На проверке"
	case models.StatusApproved:
		label = "Одобрена"
	case models.StatusRejected:
		label = "Отклонена"
	default:
		label = string(s)
	}
	if style, ok := statusStyles[s]; ok {
		return style.Render(label)
	}
	return label
}

// presentationItem представляет элемент списка презентаций.
// Реализует интерфейс list.Item.
type presentationItem struct {
	presentation models.Presentation
}

func (i presentationItem) Title() string {
	return i.presentation.Title
}

func (i presentationItem) Description() string {
	p := i.presentation
	desc := fmt.Sprintf("#%d | v%d | %s | %s",
		p.ID, p.CurrentVersion, statusLabel(p.Status), p.UpdatedAt.Local().Format("02.01.2006 15:04"))
	if p.ReviewNotes != nil && *p.ReviewNotes != "" {
		desc += " | " + *p.ReviewNotes
	}
	return desc
}

func (i presentationItem) FilterValue() string { return i.presentation.Title }

// versionItem представляет элемент списка версий.
type versionItem struct {
	version   models.PresentationVersion
	isCurrent bool
}

func (i versionItem) Title() string {
	title := fmt.Sprintf("Версия %d", i.version.VersionNumber)
	if i.isCurrent {
		title += " (текущая)"
	}
	return title
}

func (i versionItem) Description() string {
	v := i.version
	parts := []string{
		v.CreatedAt.Local().Format("02.01.2006 15:04"),
		fmt.Sprintf("%.2f MB", v.FileSizeMB()),
		fmt.Sprintf("%d слайдов", len(v.ContentSnapshot)),
	}
	if v.ChangeDescription != "" {
		parts = append(parts, v.ChangeDescription)
	}
	return strings.Join(parts, " | ")
}

func (i versionItem) FilterValue() string { return i.Title() }

// model представляет состояние TUI приложения.
type model struct {
	state     screenState
	apiClient api.Client
	logger    *zap.Logger
	serverURL string
	user      *models.User // nil до входа

	loginInputs    []textinput.Model // email, пароль
	registerInputs []textinput.Model // имя, email, отдел, пароль
	focusedField   int               // Индекс активного поля формы

	presentationList list.Model
	page             int                 // Текущая страница списка, с 1
	perPage          int                 // Размер страницы сервера
	totalItems       int                 // Всего презентаций по текущему фильтру
	statusFilter     models.ReviewStatus // Фильтр администратора, пустой означает все
	stats            models.StatusCounts

	selected        *models.Presentation // Презентация, открытая на экранах версий и проверки
	versionList     list.Model
	currentVersion  int
	confirmRollback *models.PresentationVersion // Версия, ожидающая подтверждения отката
	downloadDir     string

	reviewDecision models.ReviewStatus
	reviewNotes    textarea.Model

	status string // Статусное сообщение внизу экрана
	err    error  // Последняя ошибка для отображения

	debugMode bool
	docStyle  lipgloss.Style
}

// isAdmin сообщает, вошел ли администратор.
func (m *model) isAdmin() bool {
	return m.user.IsAdmin()
}

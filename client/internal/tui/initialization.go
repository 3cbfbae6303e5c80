package tui

import (
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/maynagashev/slidedeck/client/internal/api"
)

// Константы, используемые при инициализации.
const (
	initPasswordCharLimit = 156
	initUserCharLimit     = 128
	initInputWidth        = 40
	initNotesHeight       = 5

	docStyleMarginVertical   = 1
	docStyleMarginHorizontal = 2
)

// newInput создает поле ввода с плейсхолдером.
func newInput(placeholder string, charLimit int, password bool) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = charLimit
	ti.Width = initInputWidth
	if password {
		ti.EchoMode = textinput.EchoPassword
	}
	return ti
}

// initLoginInputs инициализирует поля формы входа.
func initLoginInputs() []textinput.Model {
	inputs := []textinput.Model{
		newInput("Email", initUserCharLimit, false),
		newInput("Пароль", initPasswordCharLimit, true),
	}
	inputs[0].Focus()
	return inputs
}

// initRegisterInputs инициализирует поля формы регистрации.
func initRegisterInputs() []textinput.Model {
	inputs := make([]textinput.Model, numRegisterFields)
	inputs[registerFieldUsername] = newInput("Имя пользователя", initUserCharLimit, false)
	inputs[registerFieldEmail] = newInput("Email", initUserCharLimit, false)
	inputs[registerFieldDepartment] = newInput("Отдел", initUserCharLimit, false)
	inputs[registerFieldPassword] = newInput("Пароль", initPasswordCharLimit, true)
	return inputs
}

// newList создает список с общими стилями.
func newList(title string) list.Model {
	delegate := list.NewDefaultDelegate()
	// Настраиваем цвета для лучшей видимости
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.
		Foreground(lipgloss.Color("212")).
		BorderLeftForeground(lipgloss.Color("212"))
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.
		Foreground(lipgloss.Color("240")).
		BorderLeftForeground(lipgloss.Color("212"))

	l := list.New([]list.Item{}, delegate, defaultListWidth, defaultListHeight)
	l.Title = title
	l.SetShowHelp(false) // Мы переопределяем справку
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.DisableQuitKeybindings() // Выход обрабатывается экранами
	l.Styles.Title = list.DefaultStyles().Title.Bold(true)
	return l
}

// initReviewNotes инициализирует поле комментария проверки.
func initReviewNotes() textarea.Model {
	ta := textarea.New()
	ta.Placeholder = "Комментарий для автора (необязательно)"
	ta.CharLimit = reviewNotesMaxChars
	ta.SetWidth(defaultListWidth - inputWidthOffset)
	ta.SetHeight(initNotesHeight)
	ta.ShowLineNumbers = false
	return ta
}

// initModel создает начальную модель приложения.
func initModel(client api.Client, serverURL, downloadDir string, debugMode bool, logger *zap.Logger) model {
	return model{
		state:            loginScreen,
		apiClient:        client,
		logger:           logger.Named("TUI"),
		serverURL:        serverURL,
		loginInputs:      initLoginInputs(),
		registerInputs:   initRegisterInputs(),
		presentationList: newList("Презентации"),
		page:             1,
		versionList:      newList("Версии"),
		downloadDir:      downloadDir,
		reviewNotes:      initReviewNotes(),
		debugMode:        debugMode,
		docStyle:         lipgloss.NewStyle().Margin(docStyleMarginVertical, docStyleMarginHorizontal),
	}
}

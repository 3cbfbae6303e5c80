package tui

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/maynagashev/slidedeck/models"
)

const keyToRegister = "ctrl+r"

var errEmptyCredentials = errors.New("email и пароль не могут быть пустыми")

// updateLoginScreen обрабатывает ввод данных для входа.
func (m *model) updateLoginScreen(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case keyEsc:
			return m, tea.Quit
		case keyToRegister:
			m.state = registerScreen
			m.focusedField = 0
			m.err = nil
			focusInput(m.registerInputs, 0)
			return m, tea.Batch(tea.ClearScreen, textinput.Blink)
		}
	}

	loginAction := func() (tea.Model, tea.Cmd) {
		email := strings.TrimSpace(m.loginInputs[0].Value())
		password := m.loginInputs[1].Value()
		if email == "" || password == "" {
			m.err = errEmptyCredentials
			return m, nil
		}
		m.err = nil
		m.logger.Info("Выполняется вход", zap.String("email", email))
		_, statusCmd := m.setStatusMessage("Выполняется вход...")
		return m, tea.Batch(m.makeLoginCmd(email, password), statusCmd)
	}

	return m.handleFormInput(msg, m.loginInputs, loginAction, loginScreen)
}

// viewLoginScreen отображает экран ввода данных для входа.
func (m *model) viewLoginScreen() string {
	return m.viewForm(
		"Вход: "+m.serverURL,
		"Enter для входа, Ctrl+R для регистрации, Esc для выхода",
		m.loginInputs,
	)
}

// updateRegisterScreen обрабатывает ввод данных для регистрации.
func (m *model) updateRegisterScreen(msg tea.Msg) (tea.Model, tea.Cmd) {
	registerAction := func() (tea.Model, tea.Cmd) {
		req := models.RegisterRequest{
			Username:   strings.TrimSpace(m.registerInputs[registerFieldUsername].Value()),
			Email:      strings.TrimSpace(m.registerInputs[registerFieldEmail].Value()),
			Department: strings.TrimSpace(m.registerInputs[registerFieldDepartment].Value()),
			Password:   m.registerInputs[registerFieldPassword].Value(),
		}
		m.err = nil
		_, statusCmd := m.setStatusMessage("Выполняется регистрация...")
		return m, tea.Batch(m.makeRegisterCmd(req), statusCmd)
	}

	next, cmd := m.handleFormInput(msg, m.registerInputs, registerAction, loginScreen)
	if m.state == loginScreen {
		m.focusedField = 0
		focusInput(m.loginInputs, 0)
	}
	return next, cmd
}

// viewRegisterScreen отображает экран регистрации.
func (m *model) viewRegisterScreen() string {
	return m.viewForm(
		"Регистрация",
		"Tab для перехода между полями, Enter на последнем поле для отправки, Esc для возврата",
		m.registerInputs,
	)
}

// handleLoginSuccess сохраняет пользователя и загружает список презентаций.
func (m *model) handleLoginSuccess(msg loginSuccessMsg) (tea.Model, tea.Cmd) {
	user := msg.user
	m.user = &user
	m.err = nil
	m.page = 1
	m.statusFilter = ""
	m.state = presentationListScreen
	m.loginInputs[1].SetValue("")
	m.logger.Info("Вход выполнен", zap.Int64("user_id", user.ID), zap.String("role", user.Role))

	m.presentationList.Title = m.listTitle()
	_, statusCmd := m.setStatusMessage("Вход выполнен как " + user.Username)
	return m, tea.Batch(tea.ClearScreen, m.loadPresentationsCmd(), statusCmd)
}

// handleRegisterSuccess возвращает на экран входа с заполненным email.
func (m *model) handleRegisterSuccess(msg registerSuccessMsg) (tea.Model, tea.Cmd) {
	m.state = loginScreen
	m.err = nil
	m.loginInputs[0].SetValue(msg.user.Email)
	m.loginInputs[1].SetValue("")
	m.focusedField = 1
	focusInput(m.loginInputs, 1)
	for i := range m.registerInputs {
		m.registerInputs[i].SetValue("")
	}
	_, statusCmd := m.setStatusMessage("Регистрация успешна, войдите в систему")
	return m, tea.Batch(tea.ClearScreen, statusCmd)
}

// logout сбрасывает сессию и возвращает на экран входа.
func (m *model) logout() (tea.Model, tea.Cmd) {
	m.logger.Info("Выход из учетной записи")
	m.user = nil
	m.selected = nil
	m.apiClient.SetAuthToken("")
	m.presentationList.SetItems(nil)
	m.versionList.SetItems(nil)
	m.state = loginScreen
	m.focusedField = 0
	focusInput(m.loginInputs, 0)
	return m, tea.ClearScreen
}

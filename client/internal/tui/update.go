package tui

import (
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/maynagashev/slidedeck/client/internal/api"
)

// Update обрабатывает входящие сообщения.
func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	// == Глобальные сообщения (не зависят от экрана) ==
	case tea.WindowSizeMsg:
		h, v := m.docStyle.GetFrameSize()
		width := msg.Width - h
		height := msg.Height - v - helpStatusHeightOffset
		m.presentationList.SetSize(width, height)
		m.versionList.SetSize(width, height)
		m.reviewNotes.SetWidth(width - inputWidthOffset)
		for i := range m.loginInputs {
			m.loginInputs[i].Width = width - inputWidthOffset
		}
		for i := range m.registerInputs {
			m.registerInputs[i].Width = width - inputWidthOffset
		}
		return m, nil

	case errMsg:
		return m.handleErrorMsg(msg)

	case clearStatusMsg:
		m.status = ""
		return m, nil

	case loginSuccessMsg:
		return m.handleLoginSuccess(msg)

	case registerSuccessMsg:
		return m.handleRegisterSuccess(msg)

	case presentationsLoadedMsg:
		return m.handlePresentationsLoaded(msg)

	case versionsLoadedMsg:
		return m.handleVersionsLoaded(msg)

	case presentationUpdatedMsg:
		return m.handlePresentationUpdated(msg)

	case downloadDoneMsg:
		return m.setStatusMessage("Файл сохранен: " + msg.path)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	}

	switch m.state {
	case loginScreen:
		return m.updateLoginScreen(msg)
	case registerScreen:
		return m.updateRegisterScreen(msg)
	case presentationListScreen:
		return m.updatePresentationListScreen(msg)
	case versionListScreen:
		return m.updateVersionListScreen(msg)
	case reviewScreen:
		return m.updateReviewScreen(msg)
	default:
		return m, nil
	}
}

// handleErrorMsg показывает ошибку, а при истекшей сессии возвращает на экран входа.
func (m *model) handleErrorMsg(msg errMsg) (tea.Model, tea.Cmd) {
	m.err = msg.err
	m.logger.Warn("Ошибка операции", zap.String("state", m.state.String()), zap.Error(msg.err))

	if errors.Is(msg.err, api.ErrAuthorization) && m.user != nil {
		_, cmd := m.logout()
		m.err = msg.err
		return m, cmd
	}
	return m, nil
}

package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/maynagashev/slidedeck/models"
)

// Порядок переключения фильтра администратора.
//
//nolint:gochecknoglobals // Неизменяемый порядок фильтров
var statusFilterCycle = []models.ReviewStatus{
	"", models.StatusPending, models.StatusApproved, models.StatusRejected,
}

// nextStatusFilter возвращает следующий фильтр по кругу.
func nextStatusFilter(current models.ReviewStatus) models.ReviewStatus {
	for i, s := range statusFilterCycle {
		if s == current {
			return statusFilterCycle[(i+1)%len(statusFilterCycle)]
		}
	}
	return ""
}

// listTitle формирует заголовок списка с учетом роли, фильтра и страницы.
func (m *model) listTitle() string {
	title := "Мои презентации"
	if m.isAdmin() {
		title = "Все презентации"
		if m.statusFilter != "" {
			title += " [" + statusLabel(m.statusFilter) + "]"
		}
	}
	return fmt.Sprintf("%s (стр. %d, всего %d)", title, m.page, m.totalItems)
}

// selectedPresentation возвращает выбранную в списке презентацию.
func (m *model) selectedPresentation() *models.Presentation {
	item, ok := m.presentationList.SelectedItem().(presentationItem)
	if !ok {
		return nil
	}
	p := item.presentation
	return &p
}

// updatePresentationListScreen обрабатывает сообщения для экрана списка презентаций.
func (m *model) updatePresentationListScreen(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, isKey := msg.(tea.KeyMsg)
	// Во время ввода фильтра все клавиши принадлежат списку
	if !isKey || m.presentationList.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.presentationList, cmd = m.presentationList.Update(msg)
		return m, cmd
	}

	switch keyMsg.String() {
	case keyQuit:
		if m.presentationList.FilterState() == list.Unfiltered {
			return m, tea.Quit
		}
	case keyEnter:
		if p := m.selectedPresentation(); p != nil {
			m.selected = p
			m.confirmRollback = nil
			m.state = versionListScreen
			m.versionList.Title = "Версии: " + p.Title
			m.logger.Debug("Переход к версиям", zap.Int64("presentation_id", p.ID))
			return m, tea.Batch(tea.ClearScreen, m.loadVersionsCmd(p.ID))
		}
		return m, nil
	case keyRefresh:
		return m, m.loadPresentationsCmd()
	case keyNext:
		if m.page*m.perPage < m.totalItems {
			m.page++
			return m, m.loadPresentationsCmd()
		}
		return m, nil
	case keyPrev:
		if m.page > 1 {
			m.page--
			return m, m.loadPresentationsCmd()
		}
		return m, nil
	case keyLogout:
		return m.logout()
	}

	if m.isAdmin() {
		if next, cmd, handled := m.handleAdminListKeys(keyMsg); handled {
			return next, cmd
		}
	}

	var cmd tea.Cmd
	m.presentationList, cmd = m.presentationList.Update(msg)
	return m, cmd
}

// handleAdminListKeys обрабатывает клавиши, доступные только администратору.
func (m *model) handleAdminListKeys(keyMsg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	switch keyMsg.String() {
	case keyFilter:
		m.statusFilter = nextStatusFilter(m.statusFilter)
		m.page = 1
		return m, m.loadPresentationsCmd(), true
	case keyApprove, keyReject:
		p := m.selectedPresentation()
		if p == nil {
			return m, nil, true
		}
		decision := models.StatusApproved
		if keyMsg.String() == keyReject {
			decision = models.StatusRejected
		}
		return m.openReview(p, decision), textarea.Blink, true
	case keyReset:
		if p := m.selectedPresentation(); p != nil {
			return m, m.resetReviewCmd(p.ID), true
		}
		return m, nil, true
	}
	return m, nil, false
}

// handlePresentationsLoaded обновляет список после загрузки страницы.
func (m *model) handlePresentationsLoaded(msg presentationsLoadedMsg) (tea.Model, tea.Cmd) {
	m.err = nil
	m.totalItems = msg.total
	m.perPage = msg.perPage
	if msg.stats != nil {
		m.stats = *msg.stats
	}

	items := make([]list.Item, len(msg.items))
	for i, p := range msg.items {
		items[i] = presentationItem{presentation: p}
	}
	cmd := m.presentationList.SetItems(items)
	m.presentationList.Title = m.listTitle()
	return m, cmd
}

// handlePresentationUpdated заменяет измененную презентацию в списке.
func (m *model) handlePresentationUpdated(msg presentationUpdatedMsg) (tea.Model, tea.Cmd) {
	m.err = nil
	p := msg.presentation
	for i, item := range m.presentationList.Items() {
		if it, ok := item.(presentationItem); ok && it.presentation.ID == p.ID {
			m.presentationList.SetItem(i, presentationItem{presentation: p})
			break
		}
	}

	var cmds []tea.Cmd
	if m.selected != nil && m.selected.ID == p.ID {
		m.selected = &p
		if m.state == versionListScreen {
			cmds = append(cmds, m.loadVersionsCmd(p.ID))
		}
	}
	if m.state == reviewScreen {
		m.state = presentationListScreen
		m.reviewNotes.Blur()
		cmds = append(cmds, tea.ClearScreen)
	}
	_, statusCmd := m.setStatusMessage(msg.action)
	cmds = append(cmds, statusCmd)
	return m, tea.Batch(cmds...)
}

// viewPresentationListScreen отображает список презентаций и сводку.
func (m *model) viewPresentationListScreen() string {
	view := m.presentationList.View()
	if !m.isAdmin() {
		view += "\n" + subtleStyle.Render(fmt.Sprintf(
			"Всего: %d | На проверке: %d | Одобрено: %d | Отклонено: %d",
			m.stats.Total, m.stats.Pending, m.stats.Approved, m.stats.Rejected))
	}
	if m.err != nil {
		view += "\n" + errorStyle.Render("Ошибка: "+describeError(m.err))
	}
	return view
}

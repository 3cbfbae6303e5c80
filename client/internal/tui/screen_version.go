package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
)

// selectedVersion возвращает выбранный в списке элемент версии.
func (m *model) selectedVersion() (versionItem, bool) {
	item, ok := m.versionList.SelectedItem().(versionItem)
	return item, ok
}

// updateVersionListScreen обрабатывает сообщения для экрана версий.
func (m *model) updateVersionListScreen(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, isKey := msg.(tea.KeyMsg)
	if !isKey || m.versionList.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.versionList, cmd = m.versionList.Update(msg)
		return m, cmd
	}

	if m.confirmRollback != nil {
		return m.handleRollbackConfirm(keyMsg)
	}

	switch keyMsg.String() {
	case keyEsc, keyBack:
		m.state = presentationListScreen
		m.selected = nil
		m.versionList.SetItems(nil)
		return m, tea.Batch(tea.ClearScreen, m.loadPresentationsCmd())
	case keyRefresh:
		if m.selected != nil {
			return m, m.loadVersionsCmd(m.selected.ID)
		}
		return m, nil
	case keyEnter, keyDownload:
		if item, ok := m.selectedVersion(); ok && m.selected != nil {
			_, statusCmd := m.setStatusMessage(fmt.Sprintf("Скачивание версии %d...", item.version.VersionNumber))
			return m, tea.Batch(m.downloadCmd(m.selected.ID, item.version.VersionNumber), statusCmd)
		}
		return m, nil
	case keyRollback:
		if !m.isAdmin() {
			return m.setStatusMessage("Откат доступен только администратору")
		}
		item, ok := m.selectedVersion()
		if !ok {
			return m, nil
		}
		if item.isCurrent {
			return m.setStatusMessage("Это уже текущая версия")
		}
		v := item.version
		m.confirmRollback = &v
		return m, nil
	}

	var cmd tea.Cmd
	m.versionList, cmd = m.versionList.Update(msg)
	return m, cmd
}

// handleRollbackConfirm обрабатывает ввод в режиме подтверждения отката.
func (m *model) handleRollbackConfirm(keyMsg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch keyMsg.String() {
	case keyEnter, "y":
		v := m.confirmRollback
		m.confirmRollback = nil
		if m.selected == nil {
			return m, nil
		}
		return m, m.rollbackCmd(m.selected.ID, v.VersionNumber)
	case keyEsc, keyBack, "n":
		m.confirmRollback = nil
		return m, nil
	}
	return m, nil
}

// handleVersionsLoaded заполняет список версий, новые сверху.
func (m *model) handleVersionsLoaded(msg versionsLoadedMsg) (tea.Model, tea.Cmd) {
	m.err = nil
	m.currentVersion = msg.list.CurrentVersion
	if m.selected != nil {
		m.selected.CurrentVersion = msg.list.CurrentVersion
	}

	items := make([]list.Item, len(msg.list.Versions))
	for i, v := range msg.list.Versions {
		items[i] = versionItem{version: v, isCurrent: v.VersionNumber == msg.list.CurrentVersion}
	}
	cmd := m.versionList.SetItems(items)
	return m, cmd
}

// viewVersionListScreen отображает экран со списком версий.
func (m *model) viewVersionListScreen() string {
	if v := m.confirmRollback; v != nil {
		var b strings.Builder
		b.WriteString(titleStyle.Render(fmt.Sprintf("Откатить презентацию к версии %d?", v.VersionNumber)))
		b.WriteString("\n\nСодержимое будет восстановлено из снимка версии, ")
		b.WriteString("презентация вернется на проверку.\n\n")
		b.WriteString(subtleStyle.Render("Enter или y для подтверждения, Esc или n для отмены"))
		return b.String()
	}

	view := m.versionList.View()
	if m.selected != nil {
		view += "\n" + subtleStyle.Render(fmt.Sprintf(
			"Текущая версия: %d | Состояние: %s", m.currentVersion, statusLabel(m.selected.Status)))
	}
	if m.err != nil {
		view += "\n" + errorStyle.Render("Ошибка: "+describeError(m.err))
	}
	return view
}

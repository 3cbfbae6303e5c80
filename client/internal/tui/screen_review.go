package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/maynagashev/slidedeck/models"
)

// openReview открывает экран проверки с выбранным решением.
func (m *model) openReview(p *models.Presentation, decision models.ReviewStatus) *model {
	m.selected = p
	m.reviewDecision = decision
	m.reviewNotes.Reset()
	if p.ReviewNotes != nil {
		m.reviewNotes.SetValue(*p.ReviewNotes)
	}
	m.reviewNotes.Focus()
	m.err = nil
	m.state = reviewScreen
	return m
}

// updateReviewScreen обрабатывает ввод комментария и отправку решения.
func (m *model) updateReviewScreen(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case keyEsc:
			m.reviewNotes.Blur()
			m.state = presentationListScreen
			return m, tea.ClearScreen
		case keyTab:
			// Переключение решения без потери комментария
			if m.reviewDecision == models.StatusApproved {
				m.reviewDecision = models.StatusRejected
			} else {
				m.reviewDecision = models.StatusApproved
			}
			return m, nil
		case keySubmit:
			if m.selected == nil {
				return m, nil
			}
			req := models.ReviewRequest{
				Status: m.reviewDecision,
				Notes:  strings.TrimSpace(m.reviewNotes.Value()),
			}
			return m, m.reviewCmd(m.selected.ID, req)
		}
	}

	var cmd tea.Cmd
	m.reviewNotes, cmd = m.reviewNotes.Update(msg)
	return m, cmd
}

// viewReviewScreen отображает экран проверки.
func (m *model) viewReviewScreen() string {
	if m.selected == nil {
		return "Презентация не выбрана"
	}
	p := m.selected

	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("Проверка: %s (v%d)", p.Title, p.CurrentVersion)) + "\n\n")
	if p.Description != "" {
		b.WriteString(p.Description + "\n\n")
	}
	b.WriteString(fmt.Sprintf("Слайдов: %d | Текущее состояние: %s\n", len(p.ContentData), statusLabel(p.Status)))
	b.WriteString("Решение: " + statusLabel(m.reviewDecision) + "\n\n")
	b.WriteString(m.reviewNotes.View() + "\n\n")
	b.WriteString(subtleStyle.Render("Ctrl+S для отправки, Tab для смены решения, Esc для отмены") + "\n")
	if m.err != nil {
		b.WriteString(errorStyle.Render("Ошибка: "+describeError(m.err)) + "\n")
	}
	return b.String()
}

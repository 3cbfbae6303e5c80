//nolint:testpackage // Это тесты в том же пакете для доступа к приватным компонентам
package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maynagashev/slidedeck/models"
)

func TestReviewScreen_Submit(t *testing.T) {
	fake := &fakeClient{}
	m := loggedIn(newTestModel(t, fake), models.RoleAdmin)
	m.Update(presentationsLoadedMsg{items: samplePresentations(), total: 2, perPage: 10})

	m.Update(keyRunes(keyApprove))
	require.Equal(t, reviewScreen, m.state)
	assert.Equal(t, models.StatusApproved, m.reviewDecision)

	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, models.StatusRejected, m.reviewDecision)

	m.reviewNotes.SetValue("  Нет слайда с итогами  ")
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	msg := runCmd(t, cmd, isMsg[presentationUpdatedMsg])
	require.NotNil(t, msg)
	require.NotNil(t, fake.reviewed)
	assert.Equal(t, models.ReviewRequest{Status: models.StatusRejected, Notes: "Нет слайда с итогами"}, *fake.reviewed)

	m.Update(msg)
	assert.Equal(t, presentationListScreen, m.state)
	item, ok := m.presentationList.Items()[0].(presentationItem)
	require.True(t, ok)
	assert.Equal(t, models.StatusRejected, item.presentation.Status)
}

func TestReviewScreen_PrefillsNotes(t *testing.T) {
	m := loggedIn(newTestModel(t, &fakeClient{}), models.RoleAdmin)
	notes := "Исправить заголовок"
	p := &models.Presentation{ID: 4, Title: "Plan", Status: models.StatusRejected, ReviewNotes: &notes}

	m.openReview(p, models.StatusApproved)

	assert.Equal(t, notes, m.reviewNotes.Value())
	assert.Contains(t, m.View(), "Проверка: Plan")
}

func TestReviewScreen_Esc(t *testing.T) {
	fake := &fakeClient{}
	m := loggedIn(newTestModel(t, fake), models.RoleAdmin)
	m.openReview(&samplePresentations()[0], models.StatusApproved)

	m.Update(tea.KeyMsg{Type: tea.KeyEsc})

	assert.Equal(t, presentationListScreen, m.state)
	assert.Nil(t, fake.reviewed)
}

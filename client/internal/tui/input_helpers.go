package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// focusInput переводит фокус на поле idx и снимает его с остальных.
func focusInput(inputs []textinput.Model, idx int) {
	for i := range inputs {
		if i == idx {
			inputs[i].Focus()
		} else {
			inputs[i].Blur()
		}
	}
}

// handleFormInput обрабатывает ввод в форме из нескольких полей:
// Tab и Shift+Tab переключают фокус, Enter переходит к следующему полю
// или вызывает onSubmit на последнем, Esc переключает экран на escState.
func (m *model) handleFormInput(
	msg tea.Msg,
	inputs []textinput.Model,
	onSubmit func() (tea.Model, tea.Cmd),
	escState screenState,
) (tea.Model, tea.Cmd) {
	last := len(inputs) - 1

	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case keyEsc:
			focusInput(inputs, -1)
			m.state = escState
			m.err = nil
			return m, tea.ClearScreen
		case keyTab, "down":
			m.focusedField = (m.focusedField + 1) % len(inputs)
			focusInput(inputs, m.focusedField)
			return m, textinput.Blink
		case keyShiftTab, "up":
			m.focusedField = (m.focusedField + last) % len(inputs)
			focusInput(inputs, m.focusedField)
			return m, textinput.Blink
		case keyEnter:
			if m.focusedField < last {
				m.focusedField++
				focusInput(inputs, m.focusedField)
				return m, textinput.Blink
			}
			return onSubmit()
		}
	}

	var cmd tea.Cmd
	inputs[m.focusedField], cmd = inputs[m.focusedField].Update(msg)
	return m, cmd
}

// viewForm отображает заголовок, поля ввода, подсказку и последнюю ошибку.
func (m *model) viewForm(title, hint string, inputs []textinput.Model) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(title) + "\n\n")
	for _, in := range inputs {
		b.WriteString(in.View() + "\n")
	}
	b.WriteString("\n" + subtleStyle.Render(hint) + "\n")
	if m.err != nil {
		b.WriteString(errorStyle.Render("Ошибка: "+describeError(m.err)) + "\n")
	}
	return b.String()
}

// Package review реализует конечный автомат статуса проверки презентации.
//
// Состояния: pending, approved, rejected. Любое изменение содержимого
// возвращает презентацию в pending; решение принимает только активный администратор.
package review

import (
	"errors"
	"fmt"
	"time"

	"github.com/maynagashev/slidedeck/models"
)

var (
	// ErrAdminRequired - решение пытается принять не администратор.
	ErrAdminRequired = errors.New("решение по проверке может принять только активный администратор")
	// ErrInvalidTransition - переход между статусами недопустим.
	ErrInvalidTransition = errors.New("недопустимый переход статуса проверки")
)

// validTransitions - матрица допустимых переходов.
// Ключ - текущий статус, значение - набор допустимых целевых статусов.
var validTransitions = map[models.ReviewStatus]map[models.ReviewStatus]bool{
	models.StatusPending:  {models.StatusApproved: true, models.StatusRejected: true},
	models.StatusApproved: {models.StatusPending: true, models.StatusApproved: true, models.StatusRejected: true},
	models.StatusRejected: {models.StatusPending: true, models.StatusApproved: true, models.StatusRejected: true},
}

// CanTransition проверяет, допустим ли переход from → to.
func CanTransition(from, to models.ReviewStatus) bool {
	transitions, ok := validTransitions[from]
	if !ok {
		return false
	}
	return transitions[to]
}

// Machine применяет переходы к презентации. Состояние хранится в самой презентации.
type Machine struct {
	now func() time.Time
}

// NewMachine создает автомат с системными часами.
func NewMachine() *Machine {
	return &Machine{now: time.Now}
}

// NewMachineWithClock создает автомат с заданным источником времени.
func NewMachineWithClock(now func() time.Time) *Machine {
	return &Machine{now: now}
}

// Approve одобряет презентацию.
func (m *Machine) Approve(p *models.Presentation, actor *models.User, notes string) error {
	return m.decide(p, actor, models.StatusApproved, notes)
}

// Reject отклоняет презентацию.
func (m *Machine) Reject(p *models.Presentation, actor *models.User, notes string) error {
	return m.decide(p, actor, models.StatusRejected, notes)
}

// Decide применяет решение approved или rejected. Прочие значения отклоняются.
func (m *Machine) Decide(p *models.Presentation, actor *models.User, decision models.ReviewStatus, notes string) error {
	if decision != models.StatusApproved && decision != models.StatusRejected {
		return fmt.Errorf("%w: решение %q", ErrInvalidTransition, decision)
	}
	return m.decide(p, actor, decision, notes)
}

func (m *Machine) decide(p *models.Presentation, actor *models.User, to models.ReviewStatus, notes string) error {
	if actor == nil || !actor.IsActive || !actor.IsAdmin() {
		return ErrAdminRequired
	}
	if !CanTransition(p.Status, to) {
		return fmt.Errorf("%w: %s → %s", ErrInvalidTransition, p.Status, to)
	}

	now := m.now()
	reviewer := actor.ID
	p.Status = to
	p.ReviewedBy = &reviewer
	p.ReviewedAt = &now
	if notes != "" {
		p.ReviewNotes = &notes
	}
	return nil
}

// ResetToPending возвращает презентацию на проверку и очищает сведения о прошлом решении.
func (m *Machine) ResetToPending(p *models.Presentation) {
	p.Status = models.StatusPending
	p.ReviewedBy = nil
	p.ReviewedAt = nil
	p.ReviewNotes = nil
}

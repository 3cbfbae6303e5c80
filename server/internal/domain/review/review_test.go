package review_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maynagashev/slidedeck/models"
	"github.com/maynagashev/slidedeck/server/internal/domain/review"
)

var reviewTime = time.Date(2024, time.March, 1, 10, 0, 0, 0, time.UTC)

func newMachine() *review.Machine {
	return review.NewMachineWithClock(func() time.Time { return reviewTime })
}

func admin() *models.User {
	return &models.User{ID: 1, Username: "admin", Role: models.RoleAdmin, IsActive: true}
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to models.ReviewStatus
		want     bool
	}{
		{models.StatusPending, models.StatusApproved, true},
		{models.StatusPending, models.StatusRejected, true},
		{models.StatusPending, models.StatusPending, false},
		{models.StatusApproved, models.StatusPending, true},
		{models.StatusApproved, models.StatusRejected, true},
		{models.StatusApproved, models.StatusApproved, true},
		{models.StatusRejected, models.StatusPending, true},
		{models.StatusRejected, models.StatusApproved, true},
		{models.StatusRejected, models.StatusRejected, true},
		{"unknown", models.StatusApproved, false},
		{models.StatusPending, "unknown", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"→"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, review.CanTransition(tt.from, tt.to))
		})
	}
}

func TestMachine_Approve(t *testing.T) {
	m := newMachine()
	p := &models.Presentation{ID: 5, Status: models.StatusPending}

	require.NoError(t, m.Approve(p, admin(), "Looks good"))

	assert.Equal(t, models.StatusApproved, p.Status)
	require.NotNil(t, p.ReviewedBy)
	assert.Equal(t, int64(1), *p.ReviewedBy)
	require.NotNil(t, p.ReviewedAt)
	assert.Equal(t, reviewTime, *p.ReviewedAt)
	require.NotNil(t, p.ReviewNotes)
	assert.Equal(t, "Looks good", *p.ReviewNotes)
}

func TestMachine_RejectKeepsNotesWhenEmpty(t *testing.T) {
	m := newMachine()
	notes := "Fix slide 2"
	p := &models.Presentation{Status: models.StatusApproved, ReviewNotes: &notes}

	require.NoError(t, m.Reject(p, admin(), ""))

	assert.Equal(t, models.StatusRejected, p.Status)
	require.NotNil(t, p.ReviewNotes)
	assert.Equal(t, "Fix slide 2", *p.ReviewNotes)
}

func TestMachine_NonAdminCannotDecide(t *testing.T) {
	tests := []struct {
		name  string
		actor *models.User
	}{
		{name: "Обычный пользователь", actor: &models.User{ID: 2, Role: models.RoleUser, IsActive: true}},
		{name: "Неактивный администратор", actor: &models.User{ID: 3, Role: models.RoleAdmin, IsActive: false}},
		{name: "Без пользователя", actor: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newMachine()
			p := &models.Presentation{Status: models.StatusPending}

			require.ErrorIs(t, m.Approve(p, tt.actor, "ok"), review.ErrAdminRequired)
			require.ErrorIs(t, m.Reject(p, tt.actor, "no"), review.ErrAdminRequired)

			assert.Equal(t, models.StatusPending, p.Status, "статус не должен измениться")
			assert.Nil(t, p.ReviewedBy)
			assert.Nil(t, p.ReviewedAt)
			assert.Nil(t, p.ReviewNotes)
		})
	}
}

func TestMachine_Decide(t *testing.T) {
	m := newMachine()
	p := &models.Presentation{Status: models.StatusPending}

	require.ErrorIs(t, m.Decide(p, admin(), models.StatusPending, ""), review.ErrInvalidTransition)
	require.ErrorIs(t, m.Decide(p, admin(), "archived", ""), review.ErrInvalidTransition)
	assert.Equal(t, models.StatusPending, p.Status)

	require.NoError(t, m.Decide(p, admin(), models.StatusRejected, "later"))
	assert.Equal(t, models.StatusRejected, p.Status)
}

func TestMachine_ResetToPending(t *testing.T) {
	m := newMachine()
	p := &models.Presentation{Status: models.StatusPending}
	require.NoError(t, m.Approve(p, admin(), "ok"))

	m.ResetToPending(p)

	assert.Equal(t, models.StatusPending, p.Status)
	assert.Nil(t, p.ReviewedBy)
	assert.Nil(t, p.ReviewedAt)
	assert.Nil(t, p.ReviewNotes)
}

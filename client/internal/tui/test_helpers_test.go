//nolint:testpackage // Это тесты в том же пакете для доступа к приватным компонентам
package tui

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/maynagashev/slidedeck/client/internal/api"
	"github.com/maynagashev/slidedeck/models"
)

const cmdWaitTimeout = 500 * time.Millisecond

// fakeClient подменяет API клиент. Невызываемые методы берутся из
// встроенного интерфейса и паникуют при обращении.
type fakeClient struct {
	api.Client

	token       string
	loginResp   *models.LoginResponse
	loginErr    error
	registered  *models.RegisterRequest
	dashboard   *models.AuthorDashboard
	adminPage   *models.PresentationPage
	adminStatus models.ReviewStatus
	versions    *models.VersionList
	reviewed    *models.ReviewRequest
	rolledBack  int
	resetID     int64
	download    string
	err         error
}

func (f *fakeClient) SetAuthToken(token string) { f.token = token }

func (f *fakeClient) Login(_ context.Context, _, _ string) (*models.LoginResponse, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	f.token = f.loginResp.Token
	return f.loginResp, nil
}

func (f *fakeClient) Register(_ context.Context, req models.RegisterRequest) (*models.User, error) {
	f.registered = &req
	if f.err != nil {
		return nil, f.err
	}
	return &models.User{ID: 10, Username: req.Username, Email: req.Email}, nil
}

func (f *fakeClient) ListPresentations(_ context.Context, _ int) (*models.AuthorDashboard, error) {
	return f.dashboard, f.err
}

func (f *fakeClient) AdminPresentations(
	_ context.Context,
	status models.ReviewStatus,
	_ int,
) (*models.PresentationPage, error) {
	f.adminStatus = status
	return f.adminPage, f.err
}

func (f *fakeClient) ListVersions(_ context.Context, _ int64) (*models.VersionList, error) {
	return f.versions, f.err
}

func (f *fakeClient) Review(_ context.Context, id int64, req models.ReviewRequest) (*models.Presentation, error) {
	f.reviewed = &req
	if f.err != nil {
		return nil, f.err
	}
	return &models.Presentation{ID: id, Status: req.Status}, nil
}

func (f *fakeClient) ResetReview(_ context.Context, id int64) (*models.Presentation, error) {
	f.resetID = id
	return &models.Presentation{ID: id, Status: models.StatusPending}, f.err
}

func (f *fakeClient) Rollback(_ context.Context, id int64, version int) (*models.Presentation, error) {
	f.rolledBack = version
	if f.err != nil {
		return nil, f.err
	}
	return &models.Presentation{ID: id, CurrentVersion: version, Status: models.StatusPending}, nil
}

func (f *fakeClient) DownloadVersion(_ context.Context, _ int64, _ int) (io.ReadCloser, string, error) {
	if f.err != nil {
		return nil, "", f.err
	}
	return io.NopCloser(strings.NewReader(f.download)), "../Q3 Report_v1.pptx", nil
}

// newTestModel создает модель с фейковым клиентом.
func newTestModel(t *testing.T, client *fakeClient) *model {
	t.Helper()
	m := initModel(client, "http://test.server", t.TempDir(), false, zap.NewNop())
	return &m
}

// loggedIn переводит модель на экран списка с пользователем заданной роли.
func loggedIn(m *model, role string) *model {
	m.user = &models.User{ID: 1, Username: "alice", Role: role}
	m.state = presentationListScreen
	return m
}

// keyRunes создает сообщение нажатия обычной клавиши.
func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// runCmd выполняет команду и возвращает сообщение. Batch раскрывается до
// первого сообщения, удовлетворяющего match. Отложенные команды (tea.Tick)
// не дожидаются.
func runCmd(t *testing.T, cmd tea.Cmd, match func(tea.Msg) bool) tea.Msg {
	t.Helper()
	if cmd == nil {
		return nil
	}

	ch := make(chan tea.Msg, 1)
	go func() { ch <- cmd() }()
	var msg tea.Msg
	select {
	case msg = <-ch:
	case <-time.After(cmdWaitTimeout):
		return nil
	}

	if batch, ok := msg.(tea.BatchMsg); ok {
		for _, c := range batch {
			if found := runCmd(t, c, match); found != nil {
				return found
			}
		}
		return nil
	}
	if match(msg) {
		return msg
	}
	return nil
}

func isMsg[T any](msg tea.Msg) bool {
	_, ok := msg.(T)
	return ok
}

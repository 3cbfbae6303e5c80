package api_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/maynagashev/slidedeck/client/internal/api"
	"github.com/maynagashev/slidedeck/models"
)

const testToken = "test-jwt-token"

func writeJSON(t *testing.T, w http.ResponseWriter, status int, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func newClient(t *testing.T, handler http.HandlerFunc) api.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client := api.NewHTTPClient(server.URL, zap.NewNop())
	client.SetAuthToken(testToken)
	return client
}

func TestHTTPClient_Login(t *testing.T) {
	t.Run("Успех сохраняет токен", func(t *testing.T) {
		var calls int
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			switch r.URL.Path {
			case "/api/login":
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Empty(t, r.Header.Get("Authorization"))
				var body models.LoginRequest
				assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
				assert.Equal(t, "alice@company.com", body.Email)
				writeJSON(t, w, http.StatusOK, models.LoginResponse{
					Token: "issued", User: models.User{ID: 7, Role: models.RoleUser},
				})
			case "/api/presentations":
				assert.Equal(t, "Bearer issued", r.Header.Get("Authorization"))
				writeJSON(t, w, http.StatusOK, models.AuthorDashboard{})
			}
		}))
		defer server.Close()

		client := api.NewHTTPClient(server.URL, zap.NewNop())
		resp, err := client.Login(context.Background(), "alice@company.com", "secret1")
		require.NoError(t, err)
		assert.Equal(t, int64(7), resp.User.ID)

		_, err = client.ListPresentations(context.Background(), 1)
		require.NoError(t, err)
		assert.Equal(t, 2, calls)
	})

	t.Run("Неверные учетные данные", func(t *testing.T) {
		client := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(t, w, http.StatusUnauthorized, models.ErrorResponse{Error: "Неверный email или пароль"})
		})

		_, err := client.Login(context.Background(), "alice@company.com", "wrong")
		require.ErrorIs(t, err, api.ErrAuthorization)
		assert.Contains(t, err.Error(), "Неверный email или пароль")
	})

	t.Run("Пустой токен в ответе", func(t *testing.T) {
		client := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(t, w, http.StatusOK, models.LoginResponse{})
		})

		_, err := client.Login(context.Background(), "alice@company.com", "secret1")
		require.Error(t, err)
	})
}

func TestHTTPClient_Register(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/register", r.URL.Path)
		assert.NotEmpty(t, r.Header.Get("X-Request-Id"))
		var body models.RegisterRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		writeJSON(t, w, http.StatusCreated, models.User{ID: 3, Username: body.Username})
	})

	user, err := client.Register(context.Background(), models.RegisterRequest{
		Username: "alice", Email: "alice@company.com", Department: "Sales", Password: "secret1",
	})
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
}

func TestHTTPClient_Presentations(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		method     string
		path       string
		query      string
		status     int
		response   any
		call       func(c api.Client) (any, error)
		wantResult any
	}{
		{
			name:     "Список с пагинацией",
			method:   http.MethodGet,
			path:     "/api/presentations",
			query:    "page=2",
			status:   http.StatusOK,
			response: models.AuthorDashboard{Stats: models.StatusCounts{Total: 3}},
			call: func(c api.Client) (any, error) {
				return c.ListPresentations(ctx, 2)
			},
			wantResult: &models.AuthorDashboard{Stats: models.StatusCounts{Total: 3}},
		},
		{
			name:     "Создание",
			method:   http.MethodPost,
			path:     "/api/presentations",
			status:   http.StatusCreated,
			response: models.Presentation{ID: 1, Title: "Q3", CurrentVersion: 1},
			call: func(c api.Client) (any, error) {
				return c.CreatePresentation(ctx, models.PresentationInput{Title: "Q3", SlidesData: "[]"})
			},
			wantResult: &models.Presentation{ID: 1, Title: "Q3", CurrentVersion: 1},
		},
		{
			name:     "Редактирование",
			method:   http.MethodPut,
			path:     "/api/presentations/1",
			status:   http.StatusOK,
			response: models.Presentation{ID: 1, CurrentVersion: 2},
			call: func(c api.Client) (any, error) {
				return c.UpdatePresentation(ctx, 1, models.PresentationInput{Title: "Q3"})
			},
			wantResult: &models.Presentation{ID: 1, CurrentVersion: 2},
		},
		{
			name:     "Версии",
			method:   http.MethodGet,
			path:     "/api/presentations/1/versions",
			status:   http.StatusOK,
			response: models.VersionList{CurrentVersion: 2},
			call: func(c api.Client) (any, error) {
				return c.ListVersions(ctx, 1)
			},
			wantResult: &models.VersionList{CurrentVersion: 2},
		},
		{
			name:     "Проверка",
			method:   http.MethodPost,
			path:     "/api/admin/presentations/1/review",
			status:   http.StatusOK,
			response: models.Presentation{ID: 1, Status: models.StatusApproved},
			call: func(c api.Client) (any, error) {
				return c.Review(ctx, 1, models.ReviewRequest{Status: models.StatusApproved})
			},
			wantResult: &models.Presentation{ID: 1, Status: models.StatusApproved},
		},
		{
			name:     "Откат",
			method:   http.MethodPost,
			path:     "/api/admin/presentations/1/rollback/1",
			status:   http.StatusOK,
			response: models.Presentation{ID: 1, CurrentVersion: 1},
			call: func(c api.Client) (any, error) {
				return c.Rollback(ctx, 1, 1)
			},
			wantResult: &models.Presentation{ID: 1, CurrentVersion: 1},
		},
		{
			name:     "Фильтр по статусу",
			method:   http.MethodGet,
			path:     "/api/admin/presentations",
			query:    "status=pending",
			status:   http.StatusOK,
			response: models.PresentationPage{Total: 4},
			call: func(c api.Client) (any, error) {
				return c.AdminPresentations(ctx, models.StatusPending, 1)
			},
			wantResult: &models.PresentationPage{Total: 4},
		},
		{
			name:     "Удаление",
			method:   http.MethodDelete,
			path:     "/api/admin/presentations/5",
			status:   http.StatusOK,
			response: models.DeleteResult{RecordDeleted: true, FilesDeleted: map[int]bool{1: true}},
			call: func(c api.Client) (any, error) {
				return c.DeletePresentation(ctx, 5)
			},
			wantResult: &models.DeleteResult{RecordDeleted: true, FilesDeleted: map[int]bool{1: true}},
		},
		{
			name:     "Блокировка пользователя",
			method:   http.MethodPost,
			path:     "/api/admin/users/9/toggle-status",
			status:   http.StatusOK,
			response: models.User{ID: 9, IsActive: false},
			call: func(c api.Client) (any, error) {
				return c.ToggleUserStatus(ctx, 9)
			},
			wantResult: &models.User{ID: 9, IsActive: false},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, tt.method, r.Method)
				assert.Equal(t, tt.path, r.URL.Path)
				assert.Equal(t, tt.query, r.URL.RawQuery)
				assert.Equal(t, "Bearer "+testToken, r.Header.Get("Authorization"))
				writeJSON(t, w, tt.status, tt.response)
			})

			got, err := tt.call(client)
			require.NoError(t, err)
			assert.Equal(t, tt.wantResult, got)
		})
	}
}

func TestHTTPClient_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		message string
		wantErr error
	}{
		{name: "Ошибка авторизации (401)", status: http.StatusUnauthorized, wantErr: api.ErrAuthorization},
		{name: "Нет прав (403)", status: http.StatusForbidden, message: "Доступ запрещен", wantErr: api.ErrForbidden},
		{name: "Не найдено (404)", status: http.StatusNotFound, wantErr: api.ErrNotFound},
		{name: "Конфликт версий (409)", status: http.StatusConflict, wantErr: api.ErrConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
				writeJSON(t, w, tt.status, models.ErrorResponse{Error: tt.message})
			})

			_, err := client.UpdatePresentation(context.Background(), 1, models.PresentationInput{})
			require.ErrorIs(t, err, tt.wantErr)

			var apiErr *api.APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.Status)
			assert.Equal(t, tt.message, apiErr.Message)
		})
	}

	t.Run("Ошибка сервера (500) без тела", func(t *testing.T) {
		client := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})

		_, err := client.GetPresentation(context.Background(), 1)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "статус 500")
	})

	t.Run("Без токена авторизации", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
			assert.Fail(t, "Сервер не должен был получить запрос без токена")
		}))
		defer server.Close()

		client := api.NewHTTPClient(server.URL, zap.NewNop())
		_, err := client.ListVersions(context.Background(), 1)
		require.ErrorIs(t, err, api.ErrNoToken)
	})
}

func TestHTTPClient_DownloadVersion(t *testing.T) {
	t.Run("Имя файла из Content-Disposition", func(t *testing.T) {
		client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/presentations/4/versions/2/download", r.URL.Path)
			w.Header().Set("Content-Disposition", `attachment; filename="Q3 Report_v2.pptx"`)
			_, _ = w.Write([]byte("PK-data"))
		})

		body, name, err := client.DownloadVersion(context.Background(), 4, 2)
		require.NoError(t, err)
		defer body.Close()

		data, err := io.ReadAll(body)
		require.NoError(t, err)
		assert.Equal(t, "PK-data", string(data))
		assert.Equal(t, "Q3 Report_v2.pptx", name)
	})

	t.Run("Имя в кодировке RFC 2231", func(t *testing.T) {
		client := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Disposition",
				`attachment; filename*=utf-8''%D0%9E%D1%82%D1%87%D0%B5%D1%82_v2.pptx`)
			_, _ = w.Write([]byte("PK"))
		})

		body, name, err := client.DownloadVersion(context.Background(), 4, 2)
		require.NoError(t, err)
		defer body.Close()
		assert.Equal(t, "Отчет_v2.pptx", name)
	})

	t.Run("Имя по умолчанию", func(t *testing.T) {
		client := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("PK"))
		})

		body, name, err := client.DownloadVersion(context.Background(), 4, 2)
		require.NoError(t, err)
		defer body.Close()
		assert.Equal(t, "presentation_4_v2.pptx", name)
	})

	t.Run("Файл отсутствует", func(t *testing.T) {
		client := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(t, w, http.StatusNotFound, models.ErrorResponse{Error: "Не найдено"})
		})

		_, _, err := client.DownloadVersion(context.Background(), 4, 9)
		require.ErrorIs(t, err, api.ErrNotFound)
	})
}

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/maynagashev/slidedeck/models"
)

// Ошибки, соответствующие статусам ответа сервера.
var (
	// ErrAuthorization сигнализирует об ошибке авторизации (401).
	ErrAuthorization = errors.New("ошибка авторизации")
	// ErrForbidden - недостаточно прав (403).
	ErrForbidden = errors.New("недостаточно прав")
	// ErrNotFound - объект не найден (404).
	ErrNotFound = errors.New("не найдено")
	// ErrConflict - конфликт версий при параллельном редактировании (409).
	ErrConflict = errors.New("конфликт версий, повторите попытку")
	// ErrNoToken - запрос требует входа.
	ErrNoToken = errors.New("токен аутентификации отсутствует")
)

const (
	defaultTimeout  = 30 * time.Second
	requestIDHeader = "X-Request-Id"
)

// Client определяет интерфейс для взаимодействия с API сервера презентаций.
type Client interface {
	// Register регистрирует нового пользователя.
	Register(ctx context.Context, req models.RegisterRequest) (*models.User, error)
	// Login аутентифицирует пользователя и сохраняет токен для следующих запросов.
	Login(ctx context.Context, email, password string) (*models.LoginResponse, error)
	// ListPresentations возвращает панель автора: статистику и страницу его презентаций.
	ListPresentations(ctx context.Context, page int) (*models.AuthorDashboard, error)
	GetPresentation(ctx context.Context, id int64) (*models.Presentation, error)
	CreatePresentation(ctx context.Context, in models.PresentationInput) (*models.Presentation, error)
	UpdatePresentation(ctx context.Context, id int64, in models.PresentationInput) (*models.Presentation, error)
	ListVersions(ctx context.Context, id int64) (*models.VersionList, error)
	// DownloadVersion открывает файл версии. Вызывающая сторона закрывает тело.
	DownloadVersion(ctx context.Context, id int64, version int) (io.ReadCloser, string, error)

	AdminDashboard(ctx context.Context) (*models.AdminDashboard, error)
	// AdminPresentations возвращает все презентации, пустой status - без фильтра.
	AdminPresentations(ctx context.Context, status models.ReviewStatus, page int) (*models.PresentationPage, error)
	Review(ctx context.Context, id int64, req models.ReviewRequest) (*models.Presentation, error)
	ResetReview(ctx context.Context, id int64) (*models.Presentation, error)
	Rollback(ctx context.Context, id int64, version int) (*models.Presentation, error)
	DeletePresentation(ctx context.Context, id int64) (*models.DeleteResult, error)
	ListUsers(ctx context.Context, page int) (*models.UserPage, error)
	ToggleUserStatus(ctx context.Context, userID int64) (*models.User, error)

	// SetAuthToken устанавливает JWT токен для аутентифицированных запросов.
	SetAuthToken(token string)
}

// APIError - ошибка, описанная сервером в теле ответа.
type APIError struct {
	Status  int
	Message string
	kind    error
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("ошибка сервера: статус %d", e.Status)
	}
	return fmt.Sprintf("%s (статус %d)", e.Message, e.Status)
}

// Unwrap позволяет сравнивать ошибку с ErrAuthorization, ErrNotFound и т.д.
func (e *APIError) Unwrap() error {
	return e.kind
}

// httpClient реализует интерфейс Client для взаимодействия с сервером по HTTP.
type httpClient struct {
	baseURL    string       // Базовый URL сервера, например "http://localhost:8080"
	httpClient *http.Client // HTTP клиент для выполнения запросов
	authToken  string       // JWT токен для аутентифицированных запросов
	logger     *zap.Logger
}

// NewHTTPClient создает новый экземпляр API клиента.
func NewHTTPClient(baseURL string, logger *zap.Logger) Client {
	return &httpClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     logger.Named("API"),
	}
}

// Register отправляет запрос на регистрацию на сервер.
func (c *httpClient) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	var user models.User
	if err := c.doJSON(ctx, http.MethodPost, "/api/register", nil, false, req, http.StatusCreated, &user); err != nil {
		return nil, fmt.Errorf("ошибка регистрации: %w", err)
	}
	return &user, nil
}

// Login отправляет запрос на вход на сервер и сохраняет токен.
func (c *httpClient) Login(ctx context.Context, email, password string) (*models.LoginResponse, error) {
	body := models.LoginRequest{Email: email, Password: password}
	var resp models.LoginResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/login", nil, false, body, http.StatusOK, &resp); err != nil {
		return nil, fmt.Errorf("ошибка входа: %w", err)
	}
	if resp.Token == "" {
		return nil, errors.New("сервер вернул пустой токен")
	}

	// Сохраняем токен в клиенте для последующих запросов
	c.authToken = resp.Token
	return &resp, nil
}

func (c *httpClient) ListPresentations(ctx context.Context, page int) (*models.AuthorDashboard, error) {
	var dash models.AuthorDashboard
	if err := c.get(ctx, "/api/presentations", pageQuery(page), &dash); err != nil {
		return nil, fmt.Errorf("ошибка получения списка презентаций: %w", err)
	}
	return &dash, nil
}

func (c *httpClient) GetPresentation(ctx context.Context, id int64) (*models.Presentation, error) {
	var p models.Presentation
	if err := c.get(ctx, presentationPath(id), nil, &p); err != nil {
		return nil, fmt.Errorf("ошибка получения презентации: %w", err)
	}
	return &p, nil
}

func (c *httpClient) CreatePresentation(
	ctx context.Context,
	in models.PresentationInput,
) (*models.Presentation, error) {
	var p models.Presentation
	if err := c.doJSON(ctx, http.MethodPost, "/api/presentations", nil, true, in, http.StatusCreated, &p); err != nil {
		return nil, fmt.Errorf("ошибка создания презентации: %w", err)
	}
	return &p, nil
}

func (c *httpClient) UpdatePresentation(
	ctx context.Context,
	id int64,
	in models.PresentationInput,
) (*models.Presentation, error) {
	var p models.Presentation
	if err := c.doJSON(ctx, http.MethodPut, presentationPath(id), nil, true, in, http.StatusOK, &p); err != nil {
		return nil, fmt.Errorf("ошибка сохранения презентации: %w", err)
	}
	return &p, nil
}

func (c *httpClient) ListVersions(ctx context.Context, id int64) (*models.VersionList, error) {
	var list models.VersionList
	if err := c.get(ctx, presentationPath(id)+"/versions", nil, &list); err != nil {
		return nil, fmt.Errorf("ошибка получения списка версий: %w", err)
	}
	return &list, nil
}

// DownloadVersion скачивает файл версии. Возвращает тело ответа и имя файла.
func (c *httpClient) DownloadVersion(ctx context.Context, id int64, version int) (io.ReadCloser, string, error) {
	path := fmt.Sprintf("%s/versions/%d/download", presentationPath(id), version)
	req, err := c.newRequest(ctx, http.MethodGet, path, nil, true, nil)
	if err != nil {
		return nil, "", err
	}

	resp, err := c.send(req)
	if err != nil {
		return nil, "", fmt.Errorf("ошибка скачивания версии: %w", err)
	}
	// НЕ закрываем resp.Body здесь при успехе, вызывающая сторона должна это сделать
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, "", fmt.Errorf("ошибка скачивания версии: %w", decodeError(resp))
	}

	name := fmt.Sprintf("presentation_%d_v%d.pptx", id, version)
	if _, params, parseErr := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); parseErr == nil {
		if filename := params["filename"]; filename != "" {
			name = filename
		}
	}
	return resp.Body, name, nil
}

func (c *httpClient) AdminDashboard(ctx context.Context) (*models.AdminDashboard, error) {
	var dash models.AdminDashboard
	if err := c.get(ctx, "/api/admin/dashboard", nil, &dash); err != nil {
		return nil, fmt.Errorf("ошибка получения панели администратора: %w", err)
	}
	return &dash, nil
}

func (c *httpClient) AdminPresentations(
	ctx context.Context,
	status models.ReviewStatus,
	page int,
) (*models.PresentationPage, error) {
	query := pageQuery(page)
	if status != "" {
		query.Set("status", string(status))
	}
	var result models.PresentationPage
	if err := c.get(ctx, "/api/admin/presentations", query, &result); err != nil {
		return nil, fmt.Errorf("ошибка получения списка презентаций: %w", err)
	}
	return &result, nil
}

func (c *httpClient) Review(
	ctx context.Context,
	id int64,
	body models.ReviewRequest,
) (*models.Presentation, error) {
	var p models.Presentation
	err := c.doJSON(ctx, http.MethodPost, adminPresentationPath(id)+"/review", nil, true, body, http.StatusOK, &p)
	if err != nil {
		return nil, fmt.Errorf("ошибка проверки презентации: %w", err)
	}
	return &p, nil
}

func (c *httpClient) ResetReview(ctx context.Context, id int64) (*models.Presentation, error) {
	var p models.Presentation
	err := c.doJSON(ctx, http.MethodPost, adminPresentationPath(id)+"/reset", nil, true, nil, http.StatusOK, &p)
	if err != nil {
		return nil, fmt.Errorf("ошибка сброса проверки: %w", err)
	}
	return &p, nil
}

// Rollback откатывает презентацию к указанной версии.
func (c *httpClient) Rollback(ctx context.Context, id int64, version int) (*models.Presentation, error) {
	path := fmt.Sprintf("%s/rollback/%d", adminPresentationPath(id), version)
	var p models.Presentation
	if err := c.doJSON(ctx, http.MethodPost, path, nil, true, nil, http.StatusOK, &p); err != nil {
		return nil, fmt.Errorf("ошибка отката: %w", err)
	}
	return &p, nil
}

func (c *httpClient) DeletePresentation(ctx context.Context, id int64) (*models.DeleteResult, error) {
	var result models.DeleteResult
	err := c.doJSON(ctx, http.MethodDelete, adminPresentationPath(id), nil, true, nil, http.StatusOK, &result)
	if err != nil {
		return nil, fmt.Errorf("ошибка удаления презентации: %w", err)
	}
	return &result, nil
}

func (c *httpClient) ListUsers(ctx context.Context, page int) (*models.UserPage, error) {
	var result models.UserPage
	if err := c.get(ctx, "/api/admin/users", pageQuery(page), &result); err != nil {
		return nil, fmt.Errorf("ошибка получения списка пользователей: %w", err)
	}
	return &result, nil
}

func (c *httpClient) ToggleUserStatus(ctx context.Context, userID int64) (*models.User, error) {
	path := fmt.Sprintf("/api/admin/users/%d/toggle-status", userID)
	var user models.User
	if err := c.doJSON(ctx, http.MethodPost, path, nil, true, nil, http.StatusOK, &user); err != nil {
		return nil, fmt.Errorf("ошибка изменения статуса пользователя: %w", err)
	}
	return &user, nil
}

// SetAuthToken устанавливает токен аутентификации для клиента.
func (c *httpClient) SetAuthToken(token string) {
	c.authToken = token
}

// --- Вспомогательные функции --- //

func (c *httpClient) get(ctx context.Context, path string, query url.Values, out any) error {
	return c.doJSON(ctx, http.MethodGet, path, query, true, nil, http.StatusOK, out)
}

// doJSON выполняет запрос с JSON-телом и декодирует ответ с ожидаемым статусом в out.
func (c *httpClient) doJSON(
	ctx context.Context,
	method, path string,
	query url.Values,
	withAuth bool,
	body any,
	wantStatus int,
	out any,
) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("ошибка кодирования запроса: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := c.newRequest(ctx, method, path, query, withAuth, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.send(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err = json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("ошибка декодирования ответа: %w", err)
	}
	return nil
}

func (c *httpClient) newRequest(
	ctx context.Context,
	method, path string,
	query url.Values,
	withAuth bool,
	body io.Reader,
) (*http.Request, error) {
	endpoint, err := url.JoinPath(c.baseURL, path)
	if err != nil {
		return nil, fmt.Errorf("ошибка формирования URL: %w", err)
	}
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания запроса: %w", err)
	}
	req.Header.Set(requestIDHeader, uuid.NewString())
	if withAuth {
		if c.authToken == "" {
			return nil, ErrNoToken
		}
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}
	return req, nil
}

func (c *httpClient) send(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("Ошибка выполнения запроса",
			zap.String("method", req.Method),
			zap.String("url", req.URL.Redacted()),
			zap.Error(err))
		return nil, fmt.Errorf("ошибка выполнения запроса: %w", err)
	}
	c.logger.Debug("Запрос выполнен",
		zap.String("request_id", req.Header.Get(requestIDHeader)),
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)))
	return resp, nil
}

// decodeError превращает ответ с ошибкой в *APIError.
func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}
	var body models.ErrorResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&body); err == nil {
		apiErr.Message = body.Error
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		apiErr.kind = ErrAuthorization
	case http.StatusForbidden:
		apiErr.kind = ErrForbidden
	case http.StatusNotFound:
		apiErr.kind = ErrNotFound
	case http.StatusConflict:
		apiErr.kind = ErrConflict
	}
	return apiErr
}

func pageQuery(page int) url.Values {
	query := url.Values{}
	if page > 1 {
		query.Set("page", strconv.Itoa(page))
	}
	return query
}

func presentationPath(id int64) string {
	return "/api/presentations/" + strconv.FormatInt(id, 10)
}

func adminPresentationPath(id int64) string {
	return "/api/admin/presentations/" + strconv.FormatInt(id, 10)
}

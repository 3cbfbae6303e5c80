package models

import "time"

// ReviewStatus - состояние проверки презентации администратором.
type ReviewStatus string

// Допустимые состояния проверки.
const (
	StatusPending  ReviewStatus = "pending"
	StatusApproved ReviewStatus = "approved"
	StatusRejected ReviewStatus = "rejected"
)

// Valid сообщает, является ли значение допустимым состоянием.
func (s ReviewStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Presentation представляет презентацию вместе с текущим содержимым и состоянием проверки.
// CurrentVersion указывает на номер версии, которой соответствует ContentData.
type Presentation struct {
	ID             int64        `db:"id" json:"id"`
	Title          string       `db:"title" json:"title"`
	Description    string       `db:"description" json:"description"`
	Agenda         StringList   `db:"agenda" json:"agenda"`
	ContentData    SlideList    `db:"content_data" json:"content_data"`
	Status         ReviewStatus `db:"status" json:"status"`
	CurrentVersion int          `db:"current_version" json:"current_version"`
	AuthorID       int64        `db:"author_id" json:"author_id"` // Не меняется после создания
	ReviewedBy     *int64       `db:"reviewed_by" json:"reviewed_by,omitempty"`
	ReviewedAt     *time.Time   `db:"reviewed_at" json:"reviewed_at,omitempty"`
	ReviewNotes    *string      `db:"review_notes" json:"review_notes,omitempty"`
	CreatedAt      time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time    `db:"updated_at" json:"updated_at"`
}

// PresentationInput - входные данные для создания и редактирования презентации.
// Agenda - текст (по пункту на строку) или JSON-массив; SlidesData - JSON-массив слайдов.
type PresentationInput struct {
	Title             string `json:"title"`
	Description       string `json:"description"`
	Agenda            string `json:"agenda"`
	SlidesData        string `json:"slides_data"`
	ChangeDescription string `json:"change_description,omitempty"`
}

// ReviewRequest - тело запроса на проверку презентации.
type ReviewRequest struct {
	Status ReviewStatus `json:"status"` // approved или rejected
	Notes  string       `json:"notes"`
}

// PresentationPage - страница списка презентаций.
type PresentationPage struct {
	Items   []Presentation `json:"items"`
	Page    int            `json:"page"`
	PerPage int            `json:"per_page"`
	Total   int            `json:"total"`
}

// StatusCounts - количество презентаций в каждом состоянии.
type StatusCounts struct {
	Total    int `json:"total" db:"total"`
	Pending  int `json:"pending" db:"pending"`
	Approved int `json:"approved" db:"approved"`
	Rejected int `json:"rejected" db:"rejected"`
}

// AuthorDashboard - данные панели автора.
type AuthorDashboard struct {
	Stats         StatusCounts     `json:"stats"`
	Presentations PresentationPage `json:"presentations"`
}

// AdminDashboard - данные панели администратора.
type AdminDashboard struct {
	Stats          StatusCounts   `json:"stats"`
	TotalUsers     int            `json:"total_users"`
	TotalVersions  int            `json:"total_versions"`
	RecentPending  []Presentation `json:"recent_pending"`
	RecentActivity []Presentation `json:"recent_activity"`
}

// DeleteResult сообщает результат удаления презентации.
// Удаление записи и удаление файлов - независимые операции.
type DeleteResult struct {
	RecordDeleted bool         `json:"record_deleted"`
	FilesDeleted  map[int]bool `json:"files_deleted"` // номер версии -> файл удален
}

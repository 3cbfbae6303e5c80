package models

import "time"

// PresentationVersion представляет неизменяемую сгенерированную версию презентации.
// Содержит метаданные файла и снимок слайдов, из которых он был получен.
type PresentationVersion struct {
	ID                int64     `db:"id" json:"id"`
	PresentationID    int64     `db:"presentation_id" json:"presentation_id"`
	VersionNumber     int       `db:"version_number" json:"version_number"` // Начинается с 1, уникален в рамках презентации
	Filename          string    `db:"filename" json:"filename"`
	FilePath          string    `db:"file_path" json:"file_path"`
	FileSize          int64     `db:"file_size" json:"file_size"`
	CreatedBy         int64     `db:"created_by" json:"created_by"`
	ChangeDescription string    `db:"change_description" json:"change_description"`
	ContentSnapshot   SlideList `db:"content_snapshot" json:"content_snapshot"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
}

const bytesInMB = 1024 * 1024

// FileSizeMB возвращает размер файла в мегабайтах, округленный до сотых.
func (v *PresentationVersion) FileSizeMB() float64 {
	if v.FileSize <= 0 {
		return 0
	}
	mb := float64(v.FileSize) / bytesInMB
	return float64(int64(mb*100+0.5)) / 100 //nolint:mnd // округление до двух знаков
}

// VersionList - ответ со списком версий и указателем на текущую.
type VersionList struct {
	CurrentVersion int                   `json:"current_version"`
	Versions       []PresentationVersion `json:"versions"`
}

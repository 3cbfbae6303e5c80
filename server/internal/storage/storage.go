// Package storage хранит сгенерированные документы: на локальном диске или в MinIO.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
)

// ArtifactStorage определяет интерфейс хранилища файлов версий.
//
// Путь, возвращаемый Save, непрозрачен для вызывающего кода: его нужно
// сохранить как есть и передавать обратно в Open, Delete и Exists.
type ArtifactStorage interface {
	// Save записывает файл в каталог dir. Существующий файл никогда не перезаписывается,
	// в том числе при параллельной записи с тем же именем: реализация выдает
	// каждому вызову свой путь (суффикс _N на диске, отдельный ключ в MinIO).
	Save(ctx context.Context, dir, filename string, data []byte) (*StoredFile, error)
	// Open открывает файл на чтение и возвращает его размер.
	Open(ctx context.Context, path string) (io.ReadCloser, int64, error)
	Delete(ctx context.Context, path string) error
	Exists(ctx context.Context, path string) (bool, error)
}

// StoredFile описывает записанный файл.
type StoredFile struct {
	Path     string // Путь, по которому файл доступен в хранилище
	Filename string // Итоговое имя файла (может отличаться от запрошенного суффиксом)
	Size     int64  // Размер записанных данных в байтах
}

// Ошибки хранилища.
var (
	ErrObjectNotFound = errors.New("объект не найден в хранилище")
	ErrInvalidPath    = errors.New("недопустимый путь в хранилище")
)

// maxNameAttempts ограничивает перебор суффиксов при совпадении имен.
const maxNameAttempts = 1000

// uniqueName подбирает свободное имя вида name_1.ext, name_2.ext и т.д.
func uniqueName(filename string, taken func(string) (bool, error)) (string, error) {
	ext := path.Ext(filename)
	base := strings.TrimSuffix(filename, ext)

	candidate := filename
	for i := 1; i <= maxNameAttempts; i++ {
		exists, err := taken(candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s_%d%s", base, i, ext)
	}
	return "", fmt.Errorf("не удалось подобрать свободное имя для %s", filename)
}

// cleanSegment проверяет, что сегмент пути не выходит за пределы каталога.
func cleanSegment(segment string) (string, error) {
	if segment == "" || segment == "." || segment == ".." ||
		strings.ContainsAny(segment, `/\`) || strings.ContainsRune(segment, 0) {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, segment)
	}
	return segment, nil
}

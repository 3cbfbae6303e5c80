package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	dirPerm       = 0o750
	filePerm      = 0o640
	lockFileName  = ".lock"
	lockRetryWait = 50 * time.Millisecond
)

// LocalStorage хранит файлы на локальном диске в каталоге root.
//
// Запись идет во временный файл, который затем переименовывается в итоговое имя.
// Выбор имени и переименование выполняются под файловой блокировкой каталога,
// поэтому две генерации в одну секунду не перезаписывают друг друга.
type LocalStorage struct {
	root   string
	logger *zap.Logger
}

// Проверка, что LocalStorage реализует интерфейс ArtifactStorage.
var _ ArtifactStorage = (*LocalStorage)(nil)

// NewLocalStorage создает локальное хранилище и при необходимости каталог root.
func NewLocalStorage(root string, logger *zap.Logger) (*LocalStorage, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("ошибка определения пути хранилища: %w", err)
	}
	if err = os.MkdirAll(abs, dirPerm); err != nil {
		return nil, fmt.Errorf("ошибка создания каталога хранилища: %w", err)
	}
	return &LocalStorage{root: abs, logger: logger.Named("LocalStorage")}, nil
}

// Root возвращает абсолютный путь корневого каталога.
func (s *LocalStorage) Root() string {
	return s.root
}

// Save записывает файл в {root}/{dir}/{filename} и возвращает абсолютный путь.
func (s *LocalStorage) Save(ctx context.Context, dir, filename string, data []byte) (*StoredFile, error) {
	dir, err := cleanSegment(dir)
	if err != nil {
		return nil, err
	}
	if filename, err = cleanSegment(filename); err != nil {
		return nil, err
	}

	target := filepath.Join(s.root, dir)
	if err = os.MkdirAll(target, dirPerm); err != nil {
		return nil, fmt.Errorf("ошибка создания каталога %s: %w", target, err)
	}

	tmp, err := s.writeTemp(target, data)
	if err != nil {
		return nil, err
	}
	// После успешного переименования временного файла уже нет, ошибку удаления игнорируем.
	defer func() { _ = os.Remove(tmp) }()

	lock := flock.New(filepath.Join(target, lockFileName))
	locked, err := lock.TryLockContext(ctx, lockRetryWait)
	if err != nil {
		return nil, fmt.Errorf("ошибка блокировки каталога %s: %w", target, err)
	}
	if !locked {
		return nil, fmt.Errorf("не удалось заблокировать каталог %s", target)
	}
	defer func() {
		if unlockErr := lock.Unlock(); unlockErr != nil {
			s.logger.Warn("Ошибка снятия блокировки", zap.String("dir", target), zap.Error(unlockErr))
		}
	}()

	name, err := uniqueName(filename, func(candidate string) (bool, error) {
		return fileExists(filepath.Join(target, candidate))
	})
	if err != nil {
		return nil, err
	}

	final := filepath.Join(target, name)
	if err = os.Rename(tmp, final); err != nil {
		return nil, fmt.Errorf("ошибка переименования файла в %s: %w", final, err)
	}

	info, err := os.Stat(final)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения размера файла %s: %w", final, err)
	}

	s.logger.Debug("Файл сохранен", zap.String("path", final), zap.Int64("size", info.Size()))
	return &StoredFile{Path: final, Filename: name, Size: info.Size()}, nil
}

func (s *LocalStorage) writeTemp(dir string, data []byte) (string, error) {
	tmp := filepath.Join(dir, "."+uuid.NewString()+".tmp")
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_EXCL|os.O_WRONLY, filePerm)
	if err != nil {
		return "", fmt.Errorf("ошибка создания временного файла: %w", err)
	}
	if _, err = f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return "", fmt.Errorf("ошибка записи временного файла: %w", err)
	}
	if err = f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return "", fmt.Errorf("ошибка синхронизации временного файла: %w", err)
	}
	if err = f.Close(); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("ошибка закрытия временного файла: %w", err)
	}
	return tmp, nil
}

// Open открывает файл по абсолютному пути внутри root.
func (s *LocalStorage) Open(_ context.Context, path string) (io.ReadCloser, int64, error) {
	full, err := s.resolve(path)
	if err != nil {
		return nil, 0, err
	}
	f, err := os.Open(full)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, 0, ErrObjectNotFound
		}
		return nil, 0, fmt.Errorf("ошибка открытия файла %s: %w", full, err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, 0, fmt.Errorf("ошибка получения размера файла %s: %w", full, err)
	}
	return f, info.Size(), nil
}

// Delete удаляет файл. Отсутствующий файл считается ошибкой ErrObjectNotFound.
func (s *LocalStorage) Delete(_ context.Context, path string) error {
	full, err := s.resolve(path)
	if err != nil {
		return err
	}
	if err = os.Remove(full); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrObjectNotFound
		}
		return fmt.Errorf("ошибка удаления файла %s: %w", full, err)
	}
	return nil
}

// Exists проверяет наличие файла.
func (s *LocalStorage) Exists(_ context.Context, path string) (bool, error) {
	full, err := s.resolve(path)
	if err != nil {
		return false, err
	}
	return fileExists(full)
}

// resolve приводит путь к абсолютному и проверяет, что он лежит внутри root.
func (s *LocalStorage) resolve(path string) (string, error) {
	full := path
	if !filepath.IsAbs(full) {
		full = filepath.Join(s.root, full)
	}
	full = filepath.Clean(full)
	if full != s.root && !strings.HasPrefix(full, s.root+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrInvalidPath, path)
	}
	return full, nil
}

func fileExists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("ошибка проверки файла %s: %w", path, err)
}

package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

const codeNoSuchKey = "NoSuchKey"

// contentTypePPTX дублирует render.ContentType, чтобы не создавать зависимость хранилища от рендерера.
const contentTypePPTX = "application/vnd.openxmlformats-officedocument.presentationml.presentation"

// MinioConfig содержит параметры для подключения к MinIO.
type MinioConfig struct {
	Endpoint        string // Адрес MinIO (например, "localhost:9000")
	AccessKeyID     string // Логин
	SecretAccessKey string // Пароль
	UseSSL          bool   // Использовать SSL (обычно false для локальной разработки)
	BucketName      string // Имя бакета для хранения файлов
	Region          string // Регион (не обязательно для MinIO, но может требоваться)
}

// objectAPI - подмножество методов minio.Client, которым пользуется MinioStorage.
type objectAPI interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64,
		opts minio.PutObjectOptions) (minio.UploadInfo, error)
	GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (*minio.Object, error)
	StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
}

// MinioStorage хранит файлы версий в бакете MinIO.
// Путь файла - ключ объекта вида {dir}/{uuid}/{filename}: у каждой записи свой ключ,
// поэтому параллельные загрузки с одинаковым именем не перезаписывают друг друга.
type MinioStorage struct {
	client     objectAPI
	bucketName string
	logger     *zap.Logger
}

// Проверка, что MinioStorage реализует интерфейс ArtifactStorage.
var _ ArtifactStorage = (*MinioStorage)(nil)

// NewMinioStorage подключается к MinIO и создает бакет, если его нет.
func NewMinioStorage(ctx context.Context, cfg MinioConfig, logger *zap.Logger) (*MinioStorage, error) {
	logger = logger.Named("Minio")
	logger.Info("Инициализация клиента MinIO", zap.String("endpoint", cfg.Endpoint))

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка инициализации клиента MinIO: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.BucketName)
	if err != nil {
		return nil, fmt.Errorf("ошибка проверки существования бакета '%s': %w", cfg.BucketName, err)
	}
	if !exists {
		logger.Info("Бакет не найден, создаем", zap.String("bucket", cfg.BucketName))
		err = client.MakeBucket(ctx, cfg.BucketName, minio.MakeBucketOptions{Region: cfg.Region})
		if err != nil {
			return nil, fmt.Errorf("ошибка создания бакета '%s': %w", cfg.BucketName, err)
		}
	}

	logger.Info("Клиент MinIO инициализирован", zap.String("bucket", cfg.BucketName))
	return &MinioStorage{client: client, bucketName: cfg.BucketName, logger: logger}, nil
}

// Save загружает файл в бакет под новым ключом {dir}/{uuid}/{filename}.
// Имя файла сохраняется без изменений.
func (s *MinioStorage) Save(ctx context.Context, dir, filename string, data []byte) (*StoredFile, error) {
	dir, err := cleanSegment(dir)
	if err != nil {
		return nil, err
	}
	if filename, err = cleanSegment(filename); err != nil {
		return nil, err
	}
	key := path.Join(dir, uuid.NewString(), filename)

	info, err := s.client.PutObject(ctx, s.bucketName, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentTypePPTX})
	if err != nil {
		s.logger.Error("Ошибка загрузки файла", zap.String("key", key), zap.Error(err))
		return nil, fmt.Errorf("ошибка загрузки файла в MinIO: %w", err)
	}

	s.logger.Debug("Файл загружен", zap.String("key", key), zap.Int64("size", info.Size), zap.String("etag", info.ETag))
	return &StoredFile{Path: key, Filename: filename, Size: info.Size}, nil
}

// Open возвращает тело объекта и его размер. Тело нужно закрыть после использования.
func (s *MinioStorage) Open(ctx context.Context, key string) (io.ReadCloser, int64, error) {
	key = strings.TrimPrefix(key, "/")

	stat, err := s.client.StatObject(ctx, s.bucketName, key, minio.StatObjectOptions{})
	if err != nil {
		if isNoSuchKey(err) {
			return nil, 0, ErrObjectNotFound
		}
		return nil, 0, fmt.Errorf("ошибка получения метаданных из MinIO: %w", err)
	}

	object, err := s.client.GetObject(ctx, s.bucketName, key, minio.GetObjectOptions{})
	if err != nil {
		if isNoSuchKey(err) {
			return nil, 0, ErrObjectNotFound
		}
		return nil, 0, fmt.Errorf("ошибка получения файла из MinIO: %w", err)
	}
	return object, stat.Size, nil
}

// Delete удаляет объект. Отсутствующий объект считается ошибкой ErrObjectNotFound.
func (s *MinioStorage) Delete(ctx context.Context, key string) error {
	key = strings.TrimPrefix(key, "/")

	exists, err := s.Exists(ctx, key)
	if err != nil {
		return err
	}
	if !exists {
		return ErrObjectNotFound
	}
	if err = s.client.RemoveObject(ctx, s.bucketName, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("ошибка удаления файла из MinIO: %w", err)
	}
	return nil
}

// Exists проверяет наличие объекта.
func (s *MinioStorage) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.StatObject(ctx, s.bucketName, strings.TrimPrefix(key, "/"), minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}
	if isNoSuchKey(err) {
		return false, nil
	}
	return false, fmt.Errorf("ошибка проверки файла в MinIO: %w", err)
}

func isNoSuchKey(err error) bool {
	var minioErr minio.ErrorResponse
	if errors.As(err, &minioErr) {
		return minioErr.Code == codeNoSuchKey
	}
	return minio.ToErrorResponse(err).Code == codeNoSuchKey
}

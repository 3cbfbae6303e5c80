package main

import (
	"errors"
	"flag"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/maynagashev/slidedeck/internal/logger"
)

const (
	storageLocal = "local"
	storageMinio = "minio"

	minSecretLength = 16
)

// config хранит конфигурацию сервера.
// Значения берутся из окружения (с умолчаниями), флаги их переопределяют.
type config struct {
	Address         string        `env:"SERVER_ADDRESS"   envDefault:":8080"`
	DatabaseDSN     string        `env:"DATABASE_DSN"     envDefault:"sqlite://storage/slidedeck.db"`
	UploadRoot      string        `env:"UPLOAD_ROOT"      envDefault:"storage/ppts"`
	StorageBackend  string        `env:"STORAGE_BACKEND"  envDefault:"local"`
	CertFile        string        `env:"TLS_CERT_FILE"`
	KeyFile         string        `env:"TLS_KEY_FILE"`
	JWTSecret       string        `env:"JWT_SECRET"`
	TokenTTL        time.Duration `env:"TOKEN_TTL"        envDefault:"24h"`
	AdminEmail      string        `env:"ADMIN_EMAIL"      envDefault:"admin@company.com"`
	AdminPassword   string        `env:"ADMIN_PASSWORD"   envDefault:"admin123"`
	LogLevel        string        `env:"LOG_LEVEL"        envDefault:"info"`
	LogFormat       string        `env:"LOG_FORMAT"       envDefault:"json"`
	MaxBodyBytes    int64         `env:"MAX_CONTENT_LENGTH" envDefault:"16777216"`
	PageSize        int           `env:"PAGE_SIZE"        envDefault:"10"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	Minio minioConfig `envPrefix:"MINIO_"`
}

// minioConfig содержит параметры бакета MinIO.
type minioConfig struct {
	Endpoint string `env:"ENDPOINT" envDefault:"localhost:9000"`
	User     string `env:"USER"     envDefault:"minioadmin"`
	Password string `env:"PASSWORD" envDefault:"minioadmin"`
	Bucket   string `env:"BUCKET"   envDefault:"slidedeck-ppts"`
	UseSSL   bool   `env:"USE_SSL"`
}

// TLSEnabled сообщает, заданы ли сертификат и ключ.
func (c *config) TLSEnabled() bool {
	return c.CertFile != "" && c.KeyFile != ""
}

// parseFlags разбирает переменные окружения и флаги, возвращает config или ошибку.
func parseFlags(args []string) (*config, error) {
	cfg := &config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("ошибка разбора переменных окружения: %w", err)
	}

	fs := flag.NewFlagSet("slidedeck-server", flag.ContinueOnError)

	// Значения по умолчанию у флагов уже учитывают окружение.
	fs.StringVar(&cfg.Address, "a", cfg.Address, "Адрес HTTP-сервера (env: SERVER_ADDRESS)")
	fs.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "Строка подключения к БД (env: DATABASE_DSN)")
	fs.StringVar(&cfg.UploadRoot, "upload-root", cfg.UploadRoot, "Каталог файлов презентаций (env: UPLOAD_ROOT)")
	fs.StringVar(&cfg.StorageBackend, "storage", cfg.StorageBackend,
		"Хранилище файлов: local или minio (env: STORAGE_BACKEND)")
	fs.StringVar(&cfg.CertFile, "cert-file", cfg.CertFile, "Путь к файлу TLS-сертификата (env: TLS_CERT_FILE)")
	fs.StringVar(&cfg.KeyFile, "key-file", cfg.KeyFile, "Путь к файлу TLS-ключа (env: TLS_KEY_FILE)")
	fs.StringVar(&cfg.JWTSecret, "jwt-secret", cfg.JWTSecret, "Секрет подписи токенов (env: JWT_SECRET)")
	fs.DurationVar(&cfg.TokenTTL, "token-ttl", cfg.TokenTTL, "Время жизни токена (env: TOKEN_TTL)")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Уровень логирования (env: LOG_LEVEL)")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "Формат логов: json или console (env: LOG_FORMAT)")
	fs.Int64Var(&cfg.MaxBodyBytes, "max-body", cfg.MaxBodyBytes,
		"Максимальный размер тела запроса (env: MAX_CONTENT_LENGTH)")
	fs.IntVar(&cfg.PageSize, "page-size", cfg.PageSize, "Размер страницы списков (env: PAGE_SIZE)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate проверяет обязательные параметры и допустимые значения.
func (c *config) validate() error {
	if c.DatabaseDSN == "" {
		return errors.New("не указана строка подключения к БД (-d или DATABASE_DSN)")
	}
	if len(c.JWTSecret) < minSecretLength {
		return fmt.Errorf("секрет токенов короче %d символов (-jwt-secret или JWT_SECRET)", minSecretLength)
	}
	if c.TokenTTL <= 0 {
		return errors.New("время жизни токена должно быть положительным")
	}
	if (c.CertFile == "") != (c.KeyFile == "") {
		return errors.New("для TLS нужны и сертификат, и ключ (TLS_CERT_FILE, TLS_KEY_FILE)")
	}
	switch c.StorageBackend {
	case storageLocal:
		if c.UploadRoot == "" {
			return errors.New("не указан каталог файлов (-upload-root или UPLOAD_ROOT)")
		}
	case storageMinio:
		if c.Minio.Endpoint == "" || c.Minio.Bucket == "" {
			return errors.New("для MinIO нужны MINIO_ENDPOINT и MINIO_BUCKET")
		}
	default:
		return fmt.Errorf("неизвестное хранилище %q", c.StorageBackend)
	}
	switch c.LogFormat {
	case logger.FormatJSON, logger.FormatConsole:
	default:
		return fmt.Errorf("неизвестный формат логов %q", c.LogFormat)
	}
	if c.MaxBodyBytes <= 0 {
		return errors.New("максимальный размер тела должен быть положительным")
	}
	if c.PageSize <= 0 {
		return errors.New("размер страницы должен быть положительным")
	}
	return nil
}

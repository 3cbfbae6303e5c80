package repository

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // Драйвер PostgreSQL, импортируем для регистрации
	"go.uber.org/zap"
	_ "modernc.org/sqlite" // Драйвер SQLite, импортируем для регистрации

	"github.com/maynagashev/slidedeck/server/internal/migrations"
)

const (
	maxOpenConns    = 25              // Максимальное количество открытых соединений
	maxIdleConns    = 25              // Максимальное количество простаивающих соединений
	connMaxLifetime = 5 * time.Minute // Максимальное время жизни соединения
	connMaxIdleTime = 5 * time.Minute // Максимальное время простоя соединения
)

// Имена драйверов database/sql.
const (
	driverPostgres = "postgres"
	driverSQLite   = "sqlite"
)

// Параметры соединения SQLite: внешние ключи, ожидание блокировки, WAL и
// немедленный захват блокировки записи в начале транзакции.
const sqlitePragmas = "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_txlock=immediate"

// Source описывает разобранную строку подключения.
type Source struct {
	Driver  string // Имя драйвера database/sql
	DSN     string // Строка подключения для драйвера
	Dialect string // Диалект миграций
}

// ParseDSN определяет драйвер по строке подключения.
// postgres:// и postgresql:// - PostgreSQL; sqlite://, file: и пути к файлам - SQLite.
func ParseDSN(dsn string) (Source, error) {
	dsn = strings.TrimSpace(dsn)
	switch {
	case dsn == "":
		return Source{}, fmt.Errorf("пустая строка подключения к БД")
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"),
		strings.Contains(dsn, "host="):
		return Source{Driver: driverPostgres, DSN: dsn, Dialect: migrations.DialectPostgres}, nil
	case strings.HasPrefix(dsn, "sqlite://"):
		return sqliteSource(strings.TrimPrefix(dsn, "sqlite://")), nil
	case strings.HasPrefix(dsn, "file:"):
		return sqliteSource(dsn), nil
	case strings.Contains(dsn, "://"):
		return Source{}, fmt.Errorf("неподдерживаемая схема строки подключения: %s", dsn)
	default:
		return sqliteSource(dsn), nil
	}
}

func sqliteSource(path string) Source {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return Source{Driver: driverSQLite, DSN: path + sep + sqlitePragmas, Dialect: migrations.DialectSQLite}
}

// sqliteFile возвращает путь к файлу базы SQLite или пустую строку для памяти.
func sqliteFile(dsn string) string {
	path := strings.TrimPrefix(dsn, "file:")
	if i := strings.Index(path, "?"); i >= 0 {
		path = path[:i]
	}
	if path == "" || path == ":memory:" {
		return ""
	}
	return path
}

// NewDB открывает подключение к PostgreSQL или SQLite.
// Возвращает подключение и диалект для применения миграций.
func NewDB(dsn string, logger *zap.Logger) (*sqlx.DB, string, error) {
	logger = logger.Named("DB")

	src, err := ParseDSN(dsn)
	if err != nil {
		return nil, "", err
	}

	if src.Driver == driverSQLite {
		if file := sqliteFile(src.DSN); file != "" {
			if err = os.MkdirAll(filepath.Dir(file), 0o750); err != nil {
				return nil, "", fmt.Errorf("ошибка создания каталога БД: %w", err)
			}
		}
	}

	logger.Info("Подключение к БД", zap.String("driver", src.Driver))

	db, err := sqlx.Connect(src.Driver, src.DSN)
	if err != nil {
		return nil, "", fmt.Errorf("ошибка подключения к БД: %w", err)
	}

	// Настройка пула соединений
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)
	db.SetConnMaxIdleTime(connMaxIdleTime)
	if src.Driver == driverSQLite && sqliteFile(src.DSN) == "" {
		// Каждое соединение с :memory: видит собственную базу.
		db.SetMaxOpenConns(1)
	}

	logger.Info("Подключение к БД установлено", zap.String("driver", src.Driver))
	return db, src.Dialect, nil
}

package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"go.uber.org/zap"

	"github.com/maynagashev/slidedeck/client/internal/tui"
	"github.com/maynagashev/slidedeck/internal/logger"
)

const logDirPermissions = 0o750

// Переменные для версии и даты сборки, устанавливаются через ldflags.
//
//nolint:gochecknoglobals // Устанавливается через ldflags при сборке
var (
	version    = "dev"
	buildDate  = "unknown"
	commitHash = "N/A"
)

// clientConfig хранит настройки клиента.
type clientConfig struct {
	ServerURL   string `env:"SLIDEDECK_SERVER_URL"   envDefault:"http://localhost:8080"`
	DownloadDir string `env:"SLIDEDECK_DOWNLOAD_DIR" envDefault:"."`
	LogFile     string `env:"SLIDEDECK_LOG_FILE"     envDefault:"logs/client.log"`
	LogLevel    string `env:"SLIDEDECK_LOG_LEVEL"    envDefault:"debug"`
	Debug       bool   `env:"SLIDEDECK_DEBUG"`
	ShowVersion bool
}

// parseConfig читает окружение, затем флаги командной строки.
func parseConfig(args []string) (*clientConfig, error) {
	cfg := &clientConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("ошибка чтения окружения: %w", err)
	}

	fs := flag.NewFlagSet("slidedeck", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&cfg.ServerURL, "server", cfg.ServerURL, "URL сервера презентаций")
	fs.StringVar(&cfg.DownloadDir, "download-dir", cfg.DownloadDir, "Каталог для скачанных файлов")
	fs.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "Путь к файлу логов")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Уровень логирования")
	fs.BoolVar(&cfg.Debug, "debug", cfg.Debug, "Включить режим отладки TUI")
	fs.BoolVar(&cfg.ShowVersion, "version", false, "Показать версию и дату сборки")
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("ошибка разбора флагов: %w", err)
	}

	if cfg.ServerURL == "" {
		return nil, errors.New("не указан URL сервера")
	}
	return cfg, nil
}

// setupLogging создает каталог логов и файловый логгер.
func setupLogging(cfg *clientConfig) (*zap.Logger, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.LogFile), logDirPermissions); err != nil {
		return nil, fmt.Errorf("не удалось создать директорию для логов: %w", err)
	}
	return logger.NewFile(cfg.LogFile, cfg.LogLevel)
}

func main() {
	cfg, err := parseConfig(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2) //nolint:mnd // Код ошибки использования
	}

	if cfg.ShowVersion {
		fmt.Println("Slidedeck Client")
		fmt.Printf("Version: %s\n", version)
		fmt.Printf("Build Date: %s\n", buildDate)
		fmt.Printf("Commit Hash: %s\n", commitHash)
		return
	}

	log, err := setupLogging(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("Запуск клиента",
		zap.String("version", version),
		zap.String("server_url", cfg.ServerURL),
		zap.String("download_dir", cfg.DownloadDir),
		zap.Bool("debug", cfg.Debug),
	)

	opts := tui.Options{ServerURL: cfg.ServerURL, DownloadDir: cfg.DownloadDir, Debug: cfg.Debug}
	if err = tui.Start(opts, log.Named("tui")); err != nil {
		log.Error("Ошибка TUI", zap.Error(err))
		_ = log.Sync()
		os.Exit(1) //nolint:gocritic // Логгер синхронизирован выше
	}
}

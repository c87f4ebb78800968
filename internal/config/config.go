package config

import (
	"flag"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

type Config struct {
	// Server-side settings
	DatabaseDSN string `env:"DATABASE_URI"`
	AuthSecret  string `env:"AUTH_SECRET"`
	LogLevel    string `env:"LOG_LEVEL"`
	CORSOrigins string `env:"CORS_ORIGINS"`
	SortLocale  string `env:"SORT_LOCALE"`

	// Image storage
	StorageBackend   string `env:"STORAGE_BACKEND"`
	StorageDir       string `env:"STORAGE_DIR"`
	PublicBaseURL    string `env:"PUBLIC_BASE_URL"`
	S3Bucket         string `env:"S3_BUCKET"`
	S3Region         string `env:"S3_REGION"`
	ImageMaxSizeMB   int    `env:"IMAGE_MAX_MB"`
	MaxImagesPerNote int    `env:"IMAGES_PER_NOTE"`

	// Change feed
	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`

	// Shared settings
	BaseURL     string `env:"BASE_URL"`
	EnableHTTPS bool   `env:"ENABLE_HTTPS"`

	// Client-side settings
	ServerURL    string `env:"-"`
	ClientDBPath string `env:"CLIENT_DB_PATH"`
	Version      bool   `env:"-"` // show client version and exit (flag only)
}

const (
	StorageFS = "fs"
	StorageS3 = "s3"
)

func NewConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{}
	_ = env.Parse(cfg)

	// flags работают ТОЛЬКО если переменные из env не заданы
	// Server flags
	flag.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "строка подключения к БД (postgres://... или файл SQLite)")
	flag.StringVar(&cfg.AuthSecret, "auth-secret", cfg.AuthSecret, "секрет для подписи JWT")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "уровень логирования: debug, info, warn, error")
	flag.StringVar(&cfg.StorageBackend, "storage", cfg.StorageBackend, "хранилище изображений: fs или s3")
	flag.StringVar(&cfg.StorageDir, "storage-dir", cfg.StorageDir, "каталог для хранилища fs")
	flag.StringVar(&cfg.PublicBaseURL, "public-url", cfg.PublicBaseURL, "базовый публичный URL изображений")
	flag.StringVar(&cfg.S3Bucket, "s3-bucket", cfg.S3Bucket, "бакет S3")
	flag.StringVar(&cfg.S3Region, "s3-region", cfg.S3Region, "регион S3")
	flag.IntVar(&cfg.ImageMaxSizeMB, "image-max-mb", cfg.ImageMaxSizeMB, "максимальный размер изображения, МБ")
	flag.IntVar(&cfg.MaxImagesPerNote, "images-per-note", cfg.MaxImagesPerNote, "максимум изображений на заметку")
	flag.StringVar(&cfg.RedisAddr, "redis", cfg.RedisAddr, "адрес Redis для ленты изменений (пусто — в памяти)")
	flag.StringVar(&cfg.SortLocale, "sort-locale", cfg.SortLocale, "локаль сортировки по заголовку (BCP-47)")
	flag.StringVar(&cfg.CORSOrigins, "cors", cfg.CORSOrigins, "разрешённые origin через запятую")
	// Shared/client flags
	flag.StringVar(&cfg.BaseURL, "base-url", cfg.BaseURL, "base URL of the NoteKeeper server (host:port)")
	flag.BoolVar(&cfg.EnableHTTPS, "https", cfg.EnableHTTPS, "enable HTTPS (client: prefer https scheme for BaseURL)")
	// Client flags
	flag.StringVar(&cfg.ClientDBPath, "client-db", cfg.ClientDBPath, "directory for per-user client note caches")
	flag.BoolVar(&cfg.Version, "version", cfg.Version, "Show client version and exit")

	flag.Parse()

	// Defaults
	if cfg.DatabaseDSN == "" {
		cfg.DatabaseDSN = "file:notekeeper.db"
	}
	if cfg.AuthSecret == "" {
		cfg.AuthSecret = "dev-secret-key"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	// validate BaseURL: must be in "address:port" (no scheme, no path). Otherwise use default.
	hostPortRe := regexp.MustCompile(`^[A-Za-z0-9\.\-]+:\d{1,5}$`)
	if !hostPortRe.MatchString(cfg.BaseURL) {
		cfg.BaseURL = "localhost:8081"
	}

	if cfg.EnableHTTPS {
		cfg.ServerURL = "https://" + cfg.BaseURL
	} else {
		cfg.ServerURL = "http://" + cfg.BaseURL
	}

	cfg.StorageBackend = strings.ToLower(strings.TrimSpace(cfg.StorageBackend))
	if cfg.StorageBackend != StorageS3 {
		cfg.StorageBackend = StorageFS
	}
	if cfg.StorageDir == "" {
		cfg.StorageDir = "uploads"
	}
	if cfg.PublicBaseURL == "" && cfg.StorageBackend == StorageFS {
		cfg.PublicBaseURL = cfg.ServerURL + "/files"
	}
	if cfg.S3Region == "" {
		cfg.S3Region = "us-east-1"
	}
	if cfg.ImageMaxSizeMB <= 0 {
		cfg.ImageMaxSizeMB = 5
	}
	if cfg.MaxImagesPerNote <= 0 {
		cfg.MaxImagesPerNote = 10
	}

	// Fill client defaults if empty
	if cfg.ClientDBPath == "" {
		if dir, err := os.UserConfigDir(); err == nil {
			cfg.ClientDBPath = filepath.Join(dir, "NoteKeeper", "users")
		}
	}

	return cfg
}

// AllowedOrigins разбирает CORS_ORIGINS; пустое значение — любой localhost.
func (c *Config) AllowedOrigins() []string {
	var out []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	if len(out) == 0 {
		return []string{"http://localhost:*", "http://127.0.0.1:*"}
	}
	return out
}

// ImageMaxSize — лимит размера изображения в байтах.
func (c *Config) ImageMaxSize() int64 {
	return int64(c.ImageMaxSizeMB) * 1024 * 1024
}

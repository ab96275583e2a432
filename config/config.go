package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config stores the application configuration. Values are read from the
// environment (optionally seeded from a .env file) with simple defaults.
type Config struct {
	// Telegram
	TelegramAPIID    string
	TelegramAPIHash  string
	TelegramPhone    string
	SourceChannel    string
	PrivateChannelID string

	// MySQL tracker store
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Redis (live scan progress for the dashboard)
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// MinIO cloud storage
	MinioEndpoint        string
	MinioAccessKey       string
	MinioSecretKey       string
	MinioBucket          string
	MinioRegion          string
	MinioUseSSL          bool
	MinioSecondaryBucket string // optional mirror bucket, empty disables it

	// Record sync API (spreadsheet-like database, upsert by item id)
	SyncAPIBaseURL string
	SyncAPIKey     string
	SyncAPITable   string

	// Processing
	DownloadPath       string // base dir; raw/ and organized/ live under it
	RawDir             string
	OrganizedDir       string
	MaxConcurrent      int // worker pool size for per-batch downloads/uploads
	DownloadTimeoutSec int
	ProgressEvery      int // log progress every N processed items

	// Organization
	CreateSideFolders bool

	// Dashboard
	DashboardAddr string

	// Logging
	LogLevel string
	LogPath  string
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt gets an environment variable as int or returns a default value.
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

// getEnvBool gets an environment variable as bool or returns a default value.
func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}

// Load loads configuration from environment variables (via .env file) or defaults.
func Load() *Config {
	// godotenv.Load() will not override existing env vars.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found or error loading .env, relying on existing environment variables and defaults.")
	}

	downloadBase := getEnv("DOWNLOAD_PATH", "downloads")

	return &Config{
		TelegramAPIID:    os.Getenv("TELEGRAM_API_ID"),
		TelegramAPIHash:  os.Getenv("TELEGRAM_API_HASH"),
		TelegramPhone:    os.Getenv("TELEGRAM_PHONE_NUMBER"),
		SourceChannel:    getEnv("SOURCE_CHANNEL", "IndoGlobalMusikAmbulu"),
		PrivateChannelID: os.Getenv("PRIVATE_CHANNEL_ID"),

		DBHost:     getEnv("DB_HOST", "127.0.0.1"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "root"),
		DBPassword: os.Getenv("DB_PASSWORD"), // no hardcoded default for secrets
		DBName:     getEnv("DB_NAME", "music_archive"),

		RedisHost:     getEnv("REDIS_HOST", "127.0.0.1"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		MinioEndpoint:        getEnv("MINIO_ENDPOINT", "127.0.0.1:9000"),
		MinioAccessKey:       os.Getenv("MINIO_ACCESS_KEY"),
		MinioSecretKey:       os.Getenv("MINIO_SECRET_KEY"),
		MinioBucket:          getEnv("MINIO_BUCKET", "music-archive"),
		MinioRegion:          getEnv("MINIO_REGION", "us-east-1"),
		MinioUseSSL:          getEnvBool("MINIO_USE_SSL", false),
		MinioSecondaryBucket: os.Getenv("MINIO_SECONDARY_BUCKET"),

		SyncAPIBaseURL: os.Getenv("SYNC_API_BASE_URL"),
		SyncAPIKey:     os.Getenv("SYNC_API_KEY"),
		SyncAPITable:   getEnv("SYNC_API_TABLE", "MusicTracks"),

		DownloadPath:       downloadBase,
		RawDir:             filepath.Join(downloadBase, "raw"),
		OrganizedDir:       filepath.Join(downloadBase, "organized"),
		MaxConcurrent:      getEnvInt("MAX_CONCURRENT_DOWNLOADS", 3),
		DownloadTimeoutSec: getEnvInt("DOWNLOAD_TIMEOUT", 300),
		ProgressEvery:      getEnvInt("PROGRESS_LOG_EVERY", 50),

		CreateSideFolders: getEnvBool("CREATE_SIDE_AB_FOLDERS", true),

		DashboardAddr: getEnv("DASHBOARD_ADDR", ":8080"),

		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogPath:  getEnv("LOG_PATH", filepath.Join("logs", "automation.log")),
	}
}

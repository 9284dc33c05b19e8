// Package config загружает конфигурацию сервиса из переменных окружения
package config

import (
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"
)

// Config содержит конфигурацию сервиса
type Config struct {
	ServerAddr    string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	WorkerCount int
	BufferSize  int
	MaxPoints   int
	DataDir     string

	S3Bucket  string
	AWSRegion string

	SQLitePath string
	JWTSecret  string

	RateLimitRequests              int
	RateLimitAuthenticatedRequests int
	RateLimitWindow                time.Duration

	CORSOrigins []string

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// Load загружает конфигурацию из переменных окружения
func Load() Config {
	return Config{
		ServerAddr:    getEnv("SERVER_ADDR", ":8080"),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		CacheTTL:      time.Duration(getEnvInt("CACHE_TTL_SECONDS", 86400)) * time.Second,

		WorkerCount: getEnvInt("WORKER_COUNT", runtime.NumCPU()),
		BufferSize:  getEnvInt("BUFFER_SIZE", 256),
		MaxPoints:   getEnvInt("MAX_POINTS", 1000),
		DataDir:     getEnv("DATA_DIR", "./data"),

		S3Bucket:  getEnv("S3_BUCKET_NAME", ""),
		AWSRegion: getEnv("AWS_REGION", "eu-west-1"),

		SQLitePath: getEnv("SQLITE_PATH", ""),
		JWTSecret:  getEnv("JWT_SECRET", ""),

		RateLimitRequests:              getEnvInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitAuthenticatedRequests: getEnvInt("RATE_LIMIT_AUTHENTICATED_REQUESTS", 200),
		RateLimitWindow:                time.Duration(getEnvInt("RATE_LIMIT_WINDOW_SECONDS", 60)) * time.Second,

		CORSOrigins: splitList(getEnv("CORS_ORIGINS", "*")),

		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// getEnv получает переменную окружения с значением по умолчанию
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt получает положительную целочисленную переменную окружения
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err == nil && n >= 0 {
			return n
		}
	}
	return defaultValue
}

func splitList(value string) []string {
	out := make([]string, 0)
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

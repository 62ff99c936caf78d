package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	DatabaseURL string
	LogLevel    string
	LogFormat   string

	// JWT settings for the identity glue.
	JWTSecret     string
	JWTIssuer     string
	JWTTTLMinutes int
	AdminEmails   []string

	// Blob store (S3-compatible).
	S3Bucket         string
	S3Region         string
	S3Endpoint       string
	S3Prefix         string
	S3AccessKey      string
	S3SecretKey      string
	S3ForcePathStyle bool

	// Upload ceiling in bytes.
	MaxUploadBytes int64

	// Blob cleanup worker and orphan sweep.
	CleanupInterval time.Duration
	SweepInterval   time.Duration
	SweepGrace      time.Duration
}

// Load reads environment variables, optionally from a .env file if present.
func Load() Config {
	// Try to load .env if it exists; ignore error if file not found
	_ = godotenv.Load()

	return Config{
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFormat:   getEnv("LOG_FORMAT", "text"),

		JWTSecret:     getEnv("JWT_SECRET", "dev-secret-change"),
		JWTIssuer:     getEnv("JWT_ISSUER", "resumebank"),
		JWTTTLMinutes: getEnvInt("JWT_TTL_MINUTES", 60),
		AdminEmails:   getEnvList("ADMIN_EMAILS"),

		S3Bucket:         os.Getenv("S3_BUCKET"),
		S3Region:         getEnv("S3_REGION", "us-east-1"),
		S3Endpoint:       os.Getenv("S3_ENDPOINT"),
		S3Prefix:         os.Getenv("S3_PREFIX"),
		S3AccessKey:      os.Getenv("S3_ACCESS_KEY_ID"),
		S3SecretKey:      os.Getenv("S3_SECRET_ACCESS_KEY"),
		S3ForcePathStyle: getEnvBool("S3_FORCE_PATH_STYLE", false),

		MaxUploadBytes: int64(getEnvInt("MAX_UPLOAD_BYTES", 10<<20)),

		CleanupInterval: getEnvDuration("CLEANUP_INTERVAL", 30*time.Second),
		SweepInterval:   getEnvDuration("SWEEP_INTERVAL", time.Hour),
		SweepGrace:      getEnvDuration("SWEEP_GRACE", time.Hour),
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getEnvList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

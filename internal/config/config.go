package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// placeholderMarkers flag values copied from an env template but never filled in.
var placeholderMarkers = []string{"YOUR_", "your_", "placeholder", "changeme"}

type Config struct {
	AppEnv string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	ServerPort string

	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicURL       string

	RedisURL            string
	LeaderboardCacheTTL time.Duration

	DeviceCookieSecure bool
	AllowedOrigin      string
}

func LoadConfig() (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found or error loading it, relying on environment variables")
	}

	appEnv := os.Getenv("APP_ENV")
	if appEnv == "" {
		appEnv = "development"
	}

	serverPort := os.Getenv("SERVER_PORT")
	if serverPort == "" {
		serverPort = "8080"
	}

	sslMode := os.Getenv("DB_SSLMODE")
	if sslMode == "" {
		sslMode = "require"
	}

	cacheTTL, err := time.ParseDuration(os.Getenv("LEADERBOARD_CACHE_TTL"))
	if err != nil || cacheTTL <= 0 {
		cacheTTL = 2 * time.Second
	}

	cookieSecure := appEnv == "production"
	if v := os.Getenv("COOKIE_SECURE"); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			cookieSecure = parsed
		}
	}

	return &Config{
		AppEnv: appEnv,

		DBHost:     os.Getenv("DB_HOST"),
		DBPort:     os.Getenv("DB_PORT"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),
		DBSSLMode:  sslMode,

		ServerPort: serverPort,

		R2AccountID:       os.Getenv("R2_ACCOUNT_ID"),
		R2AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
		R2SecretAccessKey: os.Getenv("R2_SECRET_ACCESS_KEY"),
		R2BucketName:      os.Getenv("R2_BUCKET_NAME"),
		R2PublicURL:       os.Getenv("R2_PUBLIC_URL"),

		RedisURL:            os.Getenv("REDIS_URL"),
		LeaderboardCacheTTL: cacheTTL,

		DeviceCookieSecure: cookieSecure,
		AllowedOrigin:      os.Getenv("ALLOWED_ORIGIN"),
	}, nil
}

// DatabaseConfigured reports whether every connection parameter is present and
// none of them still carries a template placeholder.
func (c *Config) DatabaseConfigured() bool {
	return allSet(c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName)
}

// StorageConfigured is the same check for the R2 bucket settings.
func (c *Config) StorageConfigured() bool {
	if !allSet(c.R2AccountID, c.R2AccessKeyID, c.R2SecretAccessKey, c.R2BucketName, c.R2PublicURL) {
		return false
	}
	return strings.HasPrefix(c.R2PublicURL, "http")
}

func allSet(values ...string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) == "" || isPlaceholder(v) {
			return false
		}
	}
	return true
}

func isPlaceholder(v string) bool {
	for _, marker := range placeholderMarkers {
		if strings.Contains(v, marker) {
			return true
		}
	}
	return false
}

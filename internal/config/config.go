package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/contactkeeper/contacts_api/internal/models"
)

type Config struct {
	APP_PORT  string
	LOG_LEVEL string
	ORIGINS   []string

	DB_HOST     string
	DB_PORT     string
	DB_USER     string
	DB_PASSWORD string
	DB_NAME     string

	REDIS_URL string
	CACHE_TTL int

	JWT_SECRET                     string
	JWT_ALGORITHM                  string
	JWT_EXPIRATION_SECONDS         int
	JWT_REFRESH_EXPIRATION_SECONDS int
	RESET_EXPIRATION_SECONDS       int

	MAIL_HOST      string
	MAIL_PORT      string
	MAIL_USERNAME  string
	MAIL_PASSWORD  string
	MAIL_FROM      string
	MAIL_FROM_NAME string

	MINIO_ENDPOINT      string
	MINIO_ROOT_USER     string
	MINIO_ROOT_PASSWORD string
	MINIO_BUCKET        string
	MINIO_PUBLIC_URL    string

	ES_URL      string
	ES_USER     string
	ES_PASSWORD string

	KAFKA_ADDRESS string
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}

	config := &Config{
		APP_PORT:  getenv("APP_PORT", "8080"),
		LOG_LEVEL: getenv("LOG_LEVEL", "info"),
		ORIGINS:   splitOrigins(getenv("ORIGINS", "http://localhost:3000")),

		DB_HOST:     os.Getenv("DB_HOST"),
		DB_PORT:     getenv("DB_PORT", "5432"),
		DB_USER:     os.Getenv("DB_USER"),
		DB_PASSWORD: os.Getenv("DB_PASSWORD"),
		DB_NAME:     os.Getenv("DB_NAME"),

		REDIS_URL: getenv("REDIS_URL", "redis://localhost:6379/0"),
		CACHE_TTL: getenvInt("CACHE_TTL", 86400),

		JWT_SECRET:                     os.Getenv("JWT_SECRET"),
		JWT_ALGORITHM:                  getenv("JWT_ALGORITHM", "HS256"),
		JWT_EXPIRATION_SECONDS:         getenvInt("JWT_EXPIRATION_SECONDS", 3600),
		JWT_REFRESH_EXPIRATION_SECONDS: getenvInt("JWT_REFRESH_EXPIRATION_SECONDS", 604800),
		RESET_EXPIRATION_SECONDS:       getenvInt("RESET_EXPIRATION_SECONDS", 3600),

		MAIL_HOST:      os.Getenv("MAIL_HOST"),
		MAIL_PORT:      getenv("MAIL_PORT", "465"),
		MAIL_USERNAME:  os.Getenv("MAIL_USERNAME"),
		MAIL_PASSWORD:  os.Getenv("MAIL_PASSWORD"),
		MAIL_FROM:      os.Getenv("MAIL_FROM"),
		MAIL_FROM_NAME: getenv("MAIL_FROM_NAME", "Rest API Service"),

		MINIO_ENDPOINT:      os.Getenv("MINIO_ENDPOINT"),
		MINIO_ROOT_USER:     os.Getenv("MINIO_ROOT_USER"),
		MINIO_ROOT_PASSWORD: os.Getenv("MINIO_ROOT_PASSWORD"),
		MINIO_BUCKET:        getenv("MINIO_BUCKET", "avatars"),
		MINIO_PUBLIC_URL:    os.Getenv("MINIO_PUBLIC_URL"),

		ES_URL:      os.Getenv("ES_URL"),
		ES_USER:     os.Getenv("ES_USER"),
		ES_PASSWORD: os.Getenv("ES_PASSWORD"),

		KAFKA_ADDRESS: os.Getenv("KAFKA_ADDRESS"),
	}

	if config.JWT_SECRET == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	return config, nil
}

func InitDB(cfg *Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		cfg.DB_USER, cfg.DB_PASSWORD, cfg.DB_HOST, cfg.DB_PORT, cfg.DB_NAME,
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("cannot connect to database: %w", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Contact{}); err != nil {
		return nil, fmt.Errorf("cannot run migrations: %w", err)
	}
	return db, nil
}

func getenv(key, fallback string) string {
	// guard against empty-string values, not only unset variables
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("Notice: %s=%q is not a number, using %d", key, v, fallback)
		return fallback
	}
	return n
}

func splitOrigins(raw string) []string {
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if o := strings.TrimSpace(p); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

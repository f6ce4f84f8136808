package config

import (
	"os"
	"strconv"
	"time"
)

// Config carries every environment setting the API reads. Values come from
// the process environment (a .env file is loaded in main before this runs).
type Config struct {
	MongoURI      string
	MongoDatabase string
	Port          string

	JWTSecret string
	JWTExpire time.Duration

	SMTPHost     string
	SMTPPort     int
	SMTPEmail    string
	SMTPPassword string
	FromName     string
	FromEmail    string

	FrontendURL string
}

func Load() *Config {
	return &Config{
		MongoURI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase: getEnv("MONGO_DATABASE", "dentalbook"),
		Port:          getEnv("API_PORT", "8080"),
		JWTSecret:     getEnv("JWT_SECRET", ""),
		JWTExpire:     getDuration("JWT_EXPIRE", 24*time.Hour),
		SMTPHost:      getEnv("SMTP_HOST", "smtp.ethereal.email"),
		SMTPPort:      getInt("SMTP_PORT", 587),
		SMTPEmail:     getEnv("SMTP_EMAIL", ""),
		SMTPPassword:  getEnv("SMTP_PASSWORD", ""),
		FromName:      getEnv("FROM_NAME", "DentalBook"),
		FromEmail:     getEnv("FROM_EMAIL", "noreply@dentalbook.local"),
		FrontendURL:   getEnv("FRONTEND_URL", "http://localhost:3000"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

package config

import (
	"os"

	_ "github.com/joho/godotenv/autoload"
)

// Config holds all environment-driven settings for the server and the
// terminal client. Values are read once at startup.
type Config struct {
	Port string

	// DBDriver selects the store: "postgres" for deployments, "sqlite"
	// for local development.
	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	SQLitePath string

	// APIBaseURL is where the terminal client reaches the HTTP API.
	APIBaseURL string
}

func Load() *Config {
	return &Config{
		Port:       getEnv("PORT", "8080"),
		DBDriver:   getEnv("DB_DRIVER", "postgres"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "todo"),
		DBPassword: getEnv("DB_PASSWORD", "todo"),
		DBName:     getEnv("DB_NAME", "todoapp"),
		SQLitePath: getEnv("SQLITE_PATH", "todoapp.db"),
		APIBaseURL: getEnv("API_BASE_URL", "http://localhost:8080"),
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

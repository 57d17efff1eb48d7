package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// ClickHouseDSN is empty when no archive host is configured.
	ClickHouseDSN string
	ServerPort    string
	DebugMode     string
	AlertsFile    string
	RetentionDays int
	LogLevel      string
	LogFormat     string
}

func Load() *Config {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found, using environment variables")
	}

	var dsn string
	if host := getEnv("CLICKHOUSE_HOST", ""); host != "" {
		dsn = fmt.Sprintf("clickhouse://%s:%s@%s:%s/%s?dial_timeout=10s&read_timeout=20s",
			getEnv("CLICKHOUSE_USER", "default"),
			getEnv("CLICKHOUSE_PASSWORD", ""),
			host,
			getEnv("CLICKHOUSE_TCP_PORT", "9000"),
			getEnv("CLICKHOUSE_DB", "default"),
		)
	}

	retention, err := strconv.Atoi(getEnv("RETENTION_DAYS", "3"))
	if err != nil || retention <= 0 {
		retention = 3
	}

	return &Config{
		ClickHouseDSN: dsn,
		ServerPort:    getEnv("SERVER_PORT", "8080"),
		DebugMode:     getEnv("DEBUGMODE", "True"),
		AlertsFile:    getEnv("ALERTS_JSON_FILE", "coin_listing_alerts.json"),
		RetentionDays: retention,
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFormat:     getEnv("LOG_FORMAT", "text"),
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

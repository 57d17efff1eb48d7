// Package configs provides application configuration loaded from environment variables.
// All configuration is externalized via environment variables for 12-factor app compliance.
package configs

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultAlertsFile     = "coin_listing_alerts.json"
	DefaultRetentionDays  = 3
	DefaultSheetRange     = "A1:Z1000"
	DefaultSheetsAPIURL   = "https://sheets.googleapis.com"
	DefaultSlackAPIURL    = "https://slack.com/api"
	DefaultDiscordAPIURL  = "https://discord.com/api/v10"
	DefaultDiscordGateway = "wss://gateway.discord.gg/?v=10&encoding=json"
	DefaultAlertAPIURL    = "https://api.cryptocurrencyalerting.com"
	DefaultKafkaTopic     = "listing_alerts"
	DefaultKafkaGroupID   = "listing-radar-archiver"
)

// AppConfig holds all application configuration.
// Load it once at startup using AppLoad().
type AppConfig struct {
	// Transport selects the listing source: discord, slack, webhook or conditions.
	Transport string

	// ExtractPattern is a preset name (slack, discord) or a custom regex.
	// Empty means the preset matching Transport.
	ExtractPattern string

	Slack      SlackConfig
	Discord    DiscordConfig
	Webhook    WebhookConfig
	Conditions ConditionsConfig
	Sheets     SheetsConfig

	// DirectoryFile is a local YAML exchange directory. When set it replaces the spreadsheet.
	DirectoryFile string

	Store StoreConfig
	HTTP  HTTPConfig

	// PollInterval runs the pipeline repeatedly. Zero means a single pass.
	PollInterval time.Duration

	Kafka      KafkaConfig
	ClickHouse ClickHouseConfig
	Ingester   IngesterConfig

	// MetricsAddr exposes /metrics from the pipeline binary in interval mode.
	MetricsAddr string

	LogLevel  string
	LogFormat string
}

// SlackConfig holds conversations.history credentials.
type SlackConfig struct {
	BotToken  string
	ChannelID string
	APIURL    string
}

// DiscordConfig holds bot credentials for the gateway and REST API.
type DiscordConfig struct {
	BotToken   string
	ChannelID  string
	APIURL     string
	GatewayURL string
}

// WebhookConfig holds the pre-shared pull URL.
type WebhookConfig struct {
	URL    string
	Method string
}

// ConditionsConfig holds cryptocurrencyalerting.com credentials.
type ConditionsConfig struct {
	APIKey string
	APIURL string
}

// SheetsConfig holds the exchange directory spreadsheet location.
type SheetsConfig struct {
	SheetID string
	APIKey  string
	Range   string
	APIURL  string
}

// StoreConfig holds alert file settings.
type StoreConfig struct {
	Path          string
	RetentionDays int
}

// HTTPConfig holds outbound HTTP client settings.
type HTTPConfig struct {
	RequestTimeout    time.Duration
	RequestsPerSecond float64
}

// KafkaConfig holds Kafka connection settings for alert publishing.
type KafkaConfig struct {
	// Broker is the Kafka broker address (e.g., "localhost:9092"). Empty disables publishing.
	Broker string

	// Topic is the Kafka topic for new alerts.
	Topic string

	// GroupID is the consumer group of the archive ingester.
	GroupID string
}

// Enabled reports whether a broker is configured.
func (k KafkaConfig) Enabled() bool { return k.Broker != "" }

// IngesterConfig holds batching settings for the archive ingester.
type IngesterConfig struct {
	BatchSize           int
	BatchTimeoutSeconds int
}

// ClickHouseConfig holds archive connection settings.
type ClickHouseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DB       string
}

// Enabled reports whether an archive host is configured.
func (c ClickHouseConfig) Enabled() bool { return c.Host != "" }

// DSN constructs the ClickHouse DSN.
func (c ClickHouseConfig) DSN() string {
	return fmt.Sprintf(
		"clickhouse://%s:%s@%s:%s/%s?dial_timeout=10s&read_timeout=20s",
		c.User, c.Password, c.Host, c.Port, c.DB,
	)
}

// AppLoad loads all application configuration from environment variables.
// It attempts to load a .env file first (for local development).
// Call this once at application startup.
func AppLoad() *AppConfig {
	_ = godotenv.Load() // Ignore error - .env is optional

	return &AppConfig{
		Transport:      strings.ToLower(getEnv("TRANSPORT", "slack")),
		ExtractPattern: getEnv("EXTRACT_PATTERN", ""),
		Slack: SlackConfig{
			BotToken:  getEnv("SLACK_BOT_TOKEN", ""),
			ChannelID: getEnv("SLACK_CHANNEL_ID", ""),
			APIURL:    getEnv("SLACK_API_URL", DefaultSlackAPIURL),
		},
		Discord: DiscordConfig{
			BotToken:   getEnv("DISCORD_BOT_TOKEN", ""),
			ChannelID:  getEnv("DISCORD_CHANNEL_ID", ""),
			APIURL:     getEnv("DISCORD_API_URL", DefaultDiscordAPIURL),
			GatewayURL: getEnv("DISCORD_GATEWAY_URL", DefaultDiscordGateway),
		},
		Webhook: WebhookConfig{
			URL:    getEnv("WEBHOOK_URL", ""),
			Method: strings.ToUpper(getEnv("WEBHOOK_METHOD", "GET")),
		},
		Conditions: ConditionsConfig{
			APIKey: getEnv("ALERT_API", ""),
			APIURL: getEnv("ALERT_API_URL", DefaultAlertAPIURL),
		},
		Sheets: SheetsConfig{
			SheetID: getEnv("GOOGLE_SHEET_ID", ""),
			APIKey:  getEnv("GOOGLE_SHEET_API", ""),
			Range:   getEnv("GOOGLE_SHEET_RANGE", DefaultSheetRange),
			APIURL:  getEnv("SHEETS_API_URL", DefaultSheetsAPIURL),
		},
		DirectoryFile: getEnv("DIRECTORY_FILE", ""),
		Store: StoreConfig{
			Path:          getEnv("ALERTS_JSON_FILE", DefaultAlertsFile),
			RetentionDays: getEnvInt("RETENTION_DAYS", DefaultRetentionDays),
		},
		HTTP: HTTPConfig{
			RequestTimeout:    time.Duration(getEnvInt("REQUEST_TIMEOUT_SECONDS", 10)) * time.Second,
			RequestsPerSecond: getEnvFloat("REQUESTS_PER_SECOND", 5),
		},
		PollInterval: time.Duration(getEnvInt("POLL_INTERVAL", 0)) * time.Second,
		Kafka: KafkaConfig{
			Broker:  getEnv("KAFKA_BROKER", ""),
			Topic:   getEnv("KAFKA_ALERT_TOPIC", DefaultKafkaTopic),
			GroupID: getEnv("KAFKA_GROUP_ID", DefaultKafkaGroupID),
		},
		Ingester: IngesterConfig{
			BatchSize:           getEnvInt("INGESTER_BATCH_SIZE", 100),
			BatchTimeoutSeconds: getEnvInt("INGESTER_BATCH_TIMEOUT_SECONDS", 5),
		},
		ClickHouse: ClickHouseConfig{
			Host:     getEnv("CLICKHOUSE_HOST", ""),
			Port:     getEnv("CLICKHOUSE_TCP_PORT", "9000"),
			User:     getEnv("CLICKHOUSE_USER", "default"),
			Password: getEnv("CLICKHOUSE_PASSWORD", ""),
			DB:       getEnv("CLICKHOUSE_DB", "default"),
		},
		MetricsAddr: getEnv("METRICS_ADDR", ""),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFormat:   getEnv("LOG_FORMAT", "text"),
	}
}

// getEnv returns the environment variable value or a default.
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvInt returns the environment variable as int or a default.
func getEnvInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil || value <= 0 {
		return defaultValue
	}
	return value
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment.
type Config struct {
	Kafka struct {
		Brokers     []string
		TopicPrefix string
		GroupID     string
	}
	DB struct {
		DSN string
	}
	Email struct {
		SMTPServer string
		SMTPPort   int
		Username   string
		Password   string
		FromName   string
		Recipients []string
	}
	SMS struct {
		AccountSID string
		AuthToken  string
		FromNumber string
		ToNumber   string
	}
	Telegram struct {
		Enabled   bool
		BotToken  string
		ChatID    int64
		RateLimit int
	}
	Insights struct {
		URL            string
		TimeoutSeconds int
	}
	API struct {
		Port     string
		BasePath string
	}
	Service struct {
		QueueSize   int
		MaxWorkers  int
		AlertWindow int
	}
	Logging struct {
		Dir   string
		Level string
	}
}

// Load reads environment variables, applies defaults, and returns a Config.
func Load() (Config, error) {
	// Load .env if present
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("failed to load .env file: %w", err)
	}

	var cfg Config

	// Kafka settings
	if b := os.Getenv("KAFKA_BROKERS"); b != "" {
		for _, broker := range strings.Split(b, ",") {
			cfg.Kafka.Brokers = append(cfg.Kafka.Brokers, strings.TrimSpace(broker))
		}
	}
	cfg.Kafka.TopicPrefix = os.Getenv("KAFKA_TOPIC_PREFIX")
	cfg.Kafka.GroupID = os.Getenv("KAFKA_GROUP_ID")

	// Database DSN
	cfg.DB.DSN = os.Getenv("DB_DSN")

	// Email settings
	cfg.Email.SMTPServer = os.Getenv("EMAIL_SMTP_SERVER")
	if p, err := strconv.Atoi(os.Getenv("EMAIL_SMTP_PORT")); err == nil {
		cfg.Email.SMTPPort = p
	}
	cfg.Email.Username = os.Getenv("EMAIL_USERNAME")
	cfg.Email.Password = os.Getenv("EMAIL_PASSWORD")
	cfg.Email.FromName = os.Getenv("EMAIL_FROM_NAME")
	if to := os.Getenv("EMAIL_RECIPIENTS"); to != "" {
		for _, addr := range strings.Split(to, ",") {
			cfg.Email.Recipients = append(cfg.Email.Recipients, strings.TrimSpace(addr))
		}
	}

	// SMS settings (Twilio-compatible API)
	cfg.SMS.AccountSID = os.Getenv("SMS_ACCOUNT_SID")
	cfg.SMS.AuthToken = os.Getenv("SMS_AUTH_TOKEN")
	cfg.SMS.FromNumber = os.Getenv("SMS_FROM_NUMBER")
	cfg.SMS.ToNumber = os.Getenv("SMS_TO_NUMBER")

	// Telegram ops channel
	cfg.Telegram.BotToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	if id, err := strconv.ParseInt(os.Getenv("TELEGRAM_CHAT_ID"), 10, 64); err == nil {
		cfg.Telegram.ChatID = id
	}
	if rl, err := strconv.Atoi(os.Getenv("TELEGRAM_RATE_LIMIT")); err == nil {
		cfg.Telegram.RateLimit = rl
	}
	cfg.Telegram.Enabled = cfg.Telegram.BotToken != "" && cfg.Telegram.ChatID != 0

	// Insight analysis endpoint
	cfg.Insights.URL = os.Getenv("INSIGHTS_URL")
	if t, err := strconv.Atoi(os.Getenv("INSIGHTS_TIMEOUT_SECONDS")); err == nil {
		cfg.Insights.TimeoutSeconds = t
	}

	// API settings
	cfg.API.Port = os.Getenv("API_PORT")
	cfg.API.BasePath = os.Getenv("API_BASE_PATH")

	// Worker settings
	if qs, err := strconv.Atoi(os.Getenv("QUEUE_SIZE")); err == nil {
		cfg.Service.QueueSize = qs
	}
	if mw, err := strconv.Atoi(os.Getenv("MAX_WORKERS")); err == nil {
		cfg.Service.MaxWorkers = mw
	}
	if aw, err := strconv.Atoi(os.Getenv("ALERT_WINDOW")); err == nil {
		cfg.Service.AlertWindow = aw
	}

	// Logging
	cfg.Logging.Dir = os.Getenv("LOG_DIR")
	cfg.Logging.Level = os.Getenv("LOG_LEVEL")

	// Validate required settings
	missing := []string{}
	if len(cfg.Kafka.Brokers) == 0 {
		missing = append(missing, "KAFKA_BROKERS")
	}
	if cfg.DB.DSN == "" {
		missing = append(missing, "DB_DSN")
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required configurations: %v", missing)
	}

	// Apply defaults
	if cfg.Kafka.TopicPrefix == "" {
		cfg.Kafka.TopicPrefix = "grc.cdc"
	}
	if cfg.Kafka.GroupID == "" {
		cfg.Kafka.GroupID = "resilience-alerting"
	}
	if cfg.API.Port == "" {
		cfg.API.Port = ":8080"
	}
	if cfg.API.BasePath == "" {
		cfg.API.BasePath = "/api/v0"
	}
	if cfg.Service.QueueSize == 0 {
		cfg.Service.QueueSize = 500
	}
	if cfg.Service.MaxWorkers == 0 {
		cfg.Service.MaxWorkers = 10
	}
	if cfg.Service.AlertWindow == 0 {
		cfg.Service.AlertWindow = 10
	}
	if cfg.Telegram.RateLimit == 0 {
		cfg.Telegram.RateLimit = 1
	}
	if cfg.Insights.TimeoutSeconds == 0 {
		cfg.Insights.TimeoutSeconds = 30
	}
	if cfg.Logging.Dir == "" {
		cfg.Logging.Dir = "logs"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}

	return cfg, nil
}

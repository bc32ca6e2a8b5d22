package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port               string
	Env                string
	LogLevel           string
	PublicBaseURL      string
	CORSAllowedOrigins []string

	// Record store (DynamoDB)
	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string
	AppointmentsTable   string
	QueueCountersTable  string
	ArticlesTable       string
	FAQsTable           string
	ChatMessagesTable   string

	// Clinic settings store (Redis)
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	// Live snapshot feed
	FeedRefreshInterval time.Duration

	// AI text generation (Gemini)
	GeminiAPIKey  string
	GeminiModelID string

	// WhatsApp relay (Meta Graph API)
	WhatsAppVerifyToken string
	WhatsAppToken       string
	WhatsAppPhoneID     string
	WhatsAppAppSecret   string
	// ClinicWhatsAppNumber receives booking confirmation deep links.
	ClinicWhatsAppNumber string

	// Dashboard auth
	StaffJWTSecret string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:               getEnv("PORT", "8080"),
		Env:                getEnv("ENV", "development"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		PublicBaseURL:      getEnv("PUBLIC_BASE_URL", ""),
		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"}),

		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),
		AppointmentsTable:   getEnv("APPOINTMENTS_TABLE", "appointments"),
		QueueCountersTable:  getEnv("QUEUE_COUNTERS_TABLE", "queue_counters"),
		ArticlesTable:       getEnv("ARTICLES_TABLE", "articles"),
		FAQsTable:           getEnv("FAQS_TABLE", "faqs"),
		ChatMessagesTable:   getEnv("CHAT_MESSAGES_TABLE", "chat_messages"),

		RedisAddr:     getEnv("REDIS_ADDR", "redis:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		FeedRefreshInterval: getEnvAsDuration("FEED_REFRESH_INTERVAL", 30*time.Second),

		GeminiAPIKey:  getEnv("GEMINI_API_KEY", ""),
		GeminiModelID: getEnv("GEMINI_MODEL_ID", "gemini-2.5-flash"),

		WhatsAppVerifyToken:  getEnv("WHATSAPP_VERIFY_TOKEN", ""),
		WhatsAppToken:        getEnv("WHATSAPP_TOKEN", ""),
		WhatsAppPhoneID:      getEnv("WHATSAPP_PHONE_ID", ""),
		WhatsAppAppSecret:    getEnv("WHATSAPP_APP_SECRET", ""),
		ClinicWhatsAppNumber: getEnv("CLINIC_WHATSAPP_NUMBER", ""),

		StaffJWTSecret: getEnv("STAFF_JWT_SECRET", ""),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsList splits a comma-separated environment variable into trimmed parts.
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

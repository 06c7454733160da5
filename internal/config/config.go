package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Template source kinds
const (
	TemplateSourceFile  = "file"
	TemplateSourceS3    = "s3"
	TemplateSourceBlank = "blank"
)

type Config struct {
	// Server
	Port     string
	Env      string
	LogLevel string
	Timezone string

	// Certificate template
	TemplateSource string // "file" | "s3" | "blank"
	TemplatePath   string
	QRSize         int

	// Template S3 bucket
	TemplateS3Endpoint        string
	TemplateS3Region          string
	TemplateS3AccessKeyID     string
	TemplateS3SecretAccessKey string
	TemplateS3UsePathStyle    bool
	TemplateS3Bucket          string
	TemplateS3Key             string

	// Database (generation audit)
	AuditEnabled bool
	DBHost       string
	DBPort       string
	DBUser       string
	DBPassword   string
	DBName       string
	DBSSLMode    string

	// Redis
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// Session / encrypted profile storage
	SessionSecret string
	SessionTTL    time.Duration
	ProfileTTL    time.Duration
	CookieSecure  bool

	// Security
	RateLimitRequests int
	RateLimitDuration time.Duration

	// Certificates per client IP and day, 0 disables the cap
	GenerationDailyLimit int

	// CORS
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

func New() *Config {
	return &Config{
		// Server
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Timezone: getEnv("TIMEZONE", "Europe/Paris"),

		// Certificate template
		TemplateSource: getEnv("TEMPLATE_SOURCE", TemplateSourceFile),
		TemplatePath:   getEnv("TEMPLATE_PATH", "./assets/certificate.pdf"),
		QRSize:         getEnvAsInt("QR_SIZE", 512),

		// Template S3 bucket
		TemplateS3Endpoint:        getEnv("TEMPLATE_S3_ENDPOINT", ""),
		TemplateS3Region:          getEnv("TEMPLATE_S3_REGION", "us-east-1"),
		TemplateS3AccessKeyID:     getEnv("TEMPLATE_S3_ACCESS_KEY_ID", ""),
		TemplateS3SecretAccessKey: getEnv("TEMPLATE_S3_SECRET_ACCESS_KEY", ""),
		TemplateS3UsePathStyle:    getEnv("TEMPLATE_S3_USE_PATH_STYLE", "true") == "true",
		TemplateS3Bucket:          getEnv("TEMPLATE_S3_BUCKET", "attestation-templates"),
		TemplateS3Key:             getEnv("TEMPLATE_S3_KEY", "certificate.pdf"),

		// Database
		AuditEnabled: getEnv("AUDIT_ENABLED", "true") == "true",
		DBHost:       getEnv("DB_HOST", "localhost"),
		DBPort:       getEnv("DB_PORT", "5432"),
		DBUser:       getEnv("DB_USER", "attestation"),
		DBPassword:   getEnv("DB_PASSWORD", "password"),
		DBName:       getEnv("DB_NAME", "attestation_db"),
		DBSSLMode:    getEnv("DB_SSL_MODE", "disable"),

		// Redis
		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		// Session
		SessionSecret: getEnv("SESSION_SECRET", "change-me-session-secret"),
		SessionTTL:    getEnvAsDuration("SESSION_TTL", "720h"),
		ProfileTTL:    getEnvAsDuration("PROFILE_TTL", "720h"),
		CookieSecure:  getEnv("COOKIE_SECURE", "false") == "true",

		// Security
		RateLimitRequests: getEnvAsInt("RATE_LIMIT_REQUESTS", 60),
		RateLimitDuration: getEnvAsDuration("RATE_LIMIT_DURATION", "1m"),

		GenerationDailyLimit: getEnvAsInt("GENERATION_DAILY_LIMIT", 50),

		// CORS
		AllowedOrigins: getEnvAsSlice("ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		AllowedMethods: getEnvAsSlice("ALLOWED_METHODS", []string{"GET", "POST", "DELETE", "OPTIONS"}),
		AllowedHeaders: getEnvAsSlice("ALLOWED_HEADERS", []string{"Content-Type"}),
	}
}

// Location resolves the configured timezone, falling back to UTC
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	if duration, err := time.ParseDuration(defaultValue); err == nil {
		return duration
	}
	return time.Hour
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	return strings.Split(valueStr, ",")
}

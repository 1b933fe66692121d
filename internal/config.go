package internal

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// DefaultWeb3FormsAccessKey is the site's public Web3Forms key. Web3Forms
// keys are meant to be embedded in browser forms, so it is not a secret.
const DefaultWeb3FormsAccessKey = "49092fb3-dcf1-4a33-80ee-440e8d1d3ddf"

type Config struct {
	Env      string
	Port     int
	LogLevel string

	// Application base URL
	BaseURL string

	// Templates are read from disk and reloaded on change in development.
	TemplatesDir string

	// Contact relay
	RelayProvider      string // "web3forms", "smtp" or "mock"
	RelayTimeout       time.Duration
	ContactSubject     string
	Web3FormsURL       string
	Web3FormsAccessKey string

	// SMTP Configuration (RelayProvider "smtp")
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
	SMTPFromName string
	ContactTo    string // inbox receiving submissions

	// Form sessions
	SessionStore string // "memory" or "redis"
	SessionTTL   time.Duration
	RedisURL     string

	// Contact rate limiting, per client IP
	ContactRateLimit  int
	ContactRateWindow time.Duration

	// Storage Configuration
	StorageProvider string // "local" or "r2"

	// Local Storage (development)
	LocalStoragePath string // Base directory for local file storage
	LocalStorageURL  string // Base URL for accessing local files

	// R2 Storage (production)
	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicURL       string // Optional custom domain URL
	R2PresignExpiry   time.Duration

	// Gallery thumbnails are generated at startup when enabled.
	GalleryWarm bool

	// Metrics endpoint authentication
	// If both are empty, the /metrics endpoint will be unprotected (not recommended)
	MetricsUsername string
	MetricsPassword string
}

func NewConfig() (*Config, error) {
	// Load .env file if it exists (ignored in production)
	_ = godotenv.Load()

	cfg := &Config{
		Env:      getEnv("ENV", "development"),
		Port:     getEnvInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "debug"),

		BaseURL:      getEnv("BASE_URL", "http://localhost:8080"),
		TemplatesDir: getEnv("TEMPLATES_DIR", "web/templates"),

		// Relay defaults to the public Web3Forms endpoint
		RelayProvider:      getEnv("RELAY_PROVIDER", "web3forms"),
		RelayTimeout:       getEnvDuration("RELAY_TIMEOUT", 30*time.Second),
		ContactSubject:     getEnv("CONTACT_SUBJECT", "New Contact Form Submission"),
		Web3FormsURL:       getEnv("WEB3FORMS_URL", "https://api.web3forms.com/submit"),
		Web3FormsAccessKey: getEnv("WEB3FORMS_ACCESS_KEY", DefaultWeb3FormsAccessKey),

		// SMTP defaults for Mailhog (development)
		SMTPHost:     getEnv("SMTP_HOST", "localhost"),
		SMTPPort:     getEnvInt("SMTP_PORT", 1025),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		SMTPFrom:     getEnv("SMTP_FROM", "website@localhost"),
		SMTPFromName: getEnv("SMTP_FROM_NAME", ""),
		ContactTo:    getEnv("CONTACT_TO", ""),

		// Sessions live in memory unless Redis is configured
		SessionStore: getEnv("SESSION_STORE", "memory"),
		SessionTTL:   getEnvDuration("SESSION_TTL", 24*time.Hour),
		RedisURL:     getEnv("REDIS_URL", ""),

		ContactRateLimit:  getEnvInt("CONTACT_RATE_LIMIT", 5),
		ContactRateWindow: getEnvDuration("CONTACT_RATE_WINDOW", 10*time.Minute),

		// Storage defaults to local filesystem for development
		StorageProvider:  getEnv("STORAGE_PROVIDER", "local"),
		LocalStoragePath: getEnv("LOCAL_STORAGE_PATH", "./storage"),
		LocalStorageURL:  getEnv("LOCAL_STORAGE_URL", "/files"),

		// R2 configuration (production only)
		R2AccountID:       getEnv("R2_ACCOUNT_ID", ""),
		R2AccessKeyID:     getEnv("R2_ACCESS_KEY_ID", ""),
		R2SecretAccessKey: getEnv("R2_SECRET_ACCESS_KEY", ""),
		R2BucketName:      getEnv("R2_BUCKET_NAME", ""),
		R2PublicURL:       getEnv("R2_PUBLIC_URL", ""),
		R2PresignExpiry:   getEnvDuration("R2_PRESIGN_EXPIRY", time.Hour),

		GalleryWarm: getEnvBool("GALLERY_WARM", true),

		// Metrics authentication
		MetricsUsername: getEnv("METRICS_USERNAME", ""),
		MetricsPassword: getEnv("METRICS_PASSWORD", ""),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (cfg *Config) validate() error {
	switch cfg.RelayProvider {
	case "web3forms":
		if cfg.Web3FormsAccessKey == "" {
			return fmt.Errorf("WEB3FORMS_ACCESS_KEY is required when RELAY_PROVIDER is 'web3forms'")
		}
	case "smtp":
		if cfg.SMTPHost == "" {
			return fmt.Errorf("SMTP_HOST is required when RELAY_PROVIDER is 'smtp'")
		}
		if cfg.ContactTo == "" {
			return fmt.Errorf("CONTACT_TO is required when RELAY_PROVIDER is 'smtp'")
		}
	case "mock":
	default:
		return fmt.Errorf("RELAY_PROVIDER must be 'web3forms', 'smtp' or 'mock', got: %s", cfg.RelayProvider)
	}
	if cfg.RelayTimeout <= 0 {
		return fmt.Errorf("RELAY_TIMEOUT must be positive, got: %s", cfg.RelayTimeout)
	}

	switch cfg.SessionStore {
	case "memory":
	case "redis":
		if cfg.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required when SESSION_STORE is 'redis'")
		}
	default:
		return fmt.Errorf("SESSION_STORE must be either 'memory' or 'redis', got: %s", cfg.SessionStore)
	}

	if cfg.ContactRateLimit <= 0 {
		return fmt.Errorf("CONTACT_RATE_LIMIT must be positive, got: %d", cfg.ContactRateLimit)
	}

	// Validate storage configuration
	if cfg.StorageProvider == "r2" {
		if cfg.R2AccountID == "" {
			return fmt.Errorf("R2_ACCOUNT_ID is required when STORAGE_PROVIDER is 'r2'")
		}
		if cfg.R2AccessKeyID == "" {
			return fmt.Errorf("R2_ACCESS_KEY_ID is required when STORAGE_PROVIDER is 'r2'")
		}
		if cfg.R2SecretAccessKey == "" {
			return fmt.Errorf("R2_SECRET_ACCESS_KEY is required when STORAGE_PROVIDER is 'r2'")
		}
		if cfg.R2BucketName == "" {
			return fmt.Errorf("R2_BUCKET_NAME is required when STORAGE_PROVIDER is 'r2'")
		}
	} else if cfg.StorageProvider != "local" {
		return fmt.Errorf("STORAGE_PROVIDER must be either 'local' or 'r2', got: %s", cfg.StorageProvider)
	}

	return nil
}

// IsDev reports whether the server runs in development mode.
func (cfg *Config) IsDev() bool {
	return cfg.Env == "development"
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

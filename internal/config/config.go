package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort   string
	AppEnv    string
	LogLevel  string
	BrandName string // shown in message subjects and bodies

	CredentialTTL      time.Duration
	CredentialHashCost int
	SendCooldown       time.Duration

	DeliveryMaxAttempts    int
	DeliveryInitialBackoff time.Duration
	DeliveryAttemptTimeout time.Duration

	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string

	SMTPHost     string
	SMTPPort     string
	SMTPFrom     string
	SMTPUsername string
	SMTPPassword string
	SMTPDomain   string // right-hand side of generated Message-ID headers

	SNSEnabled bool
	SNSRegion  string

	TemplateDir      string // overrides the embedded templates when set
	TemplateS3Bucket string // takes precedence over TemplateDir when set
	TemplateS3Prefix string

	AuditEnabled          bool
	DynamoTableDeliveries string

	JWTPrivateKeyPath string
	JWTPublicKeyPath  string
	JWTMaxExpiry      time.Duration

	AllowedOrigins []string // CORS allowed origins
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort:   getEnv("APP_PORT", "8082"),
		AppEnv:    getEnv("APP_ENV", "development"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		BrandName: getEnv("BRAND_NAME", "MediOps"),

		CredentialTTL:      getEnvDuration("CREDENTIAL_TTL", time.Hour),
		CredentialHashCost: getEnvInt("CREDENTIAL_HASH_COST", 10),
		SendCooldown:       getEnvDuration("SEND_COOLDOWN", 5*time.Second),

		DeliveryMaxAttempts:    getEnvInt("DELIVERY_MAX_ATTEMPTS", 3),
		DeliveryInitialBackoff: getEnvDuration("DELIVERY_INITIAL_BACKOFF", 2*time.Second),
		DeliveryAttemptTimeout: getEnvDuration("DELIVERY_ATTEMPT_TIMEOUT", 30*time.Second),

		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),

		SMTPHost:     getEnv("SMTP_HOST", "localhost"),
		SMTPPort:     getEnv("SMTP_PORT", "1025"),
		SMTPFrom:     getEnv("SMTP_FROM", "noreply@example.com"),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		SMTPDomain:   getEnv("SMTP_DOMAIN", "localhost"),

		SNSEnabled: getEnvBool("SNS_ENABLED", false),
		SNSRegion:  getEnv("SNS_REGION", "us-east-1"),

		TemplateDir:      getEnv("TEMPLATE_DIR", ""),
		TemplateS3Bucket: getEnv("TEMPLATE_S3_BUCKET", ""),
		TemplateS3Prefix: getEnv("TEMPLATE_S3_PREFIX", "templates/"),

		AuditEnabled:          getEnvBool("AUDIT_ENABLED", false),
		DynamoTableDeliveries: getEnv("DYNAMO_TABLE_DELIVERIES", "credential_deliveries"),

		JWTPrivateKeyPath: getEnv("JWT_PRIVATE_KEY_PATH", "./private_key.pem"),
		JWTPublicKeyPath:  getEnv("JWT_PUBLIC_KEY_PATH", "./public_key.pem"),
		JWTMaxExpiry:      getEnvDuration("JWT_MAX_EXPIRY", time.Hour),

		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

// getEnvDuration accepts Go duration strings ("90s", "1h") or a bare number of seconds.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil && n > 0 {
		return time.Duration(n) * time.Second
	}
	return fallback
}

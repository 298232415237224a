package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"customer-option-service/database"
	aws_pkg "customer-option-service/pkg/aws"
	"customer-option-service/sender"
	"customer-option-service/services"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the customer option service.
type Config struct {
	Port                   string
	Database               database.Settings
	SMTP                   sender.SMTPConfig
	ImportErrorEmailCode   string
	JWTSecret              string
	TrustGatewayHeaders    bool
	PriceImportSNSTopicARN string
	ImportBatchSize        int
	ImportUploadDir        string
	RequestTimeout         time.Duration
	AllowedOrigins         []string
	ImportRatePerMinute    int
	ImportRateBurst        int
}

// LoadConfig reads configuration from .env and environment variables with
// optional Secrets Manager override.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port: getEnv("PORT", "8093"),
		Database: database.Settings{
			User:     os.Getenv("POSTGRES_USER"),
			Password: os.Getenv("POSTGRES_PASSWORD"),
			Name:     os.Getenv("POSTGRES_DB"),
			Host:     os.Getenv("POSTGRES_HOST"),
			Port:     getEnv("POSTGRES_PORT", "5432"),
			SSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
			TimeZone: getEnv("POSTGRES_TIMEZONE", "UTC"),
		},
		SMTP: sender.SMTPConfig{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     getEnv("SMTP_PORT", "587"),
			Username: os.Getenv("SMTP_USER"),
			Password: os.Getenv("SMTP_PASS"),
			From:     os.Getenv("MAIL_FROM"),
		},
		ImportErrorEmailCode:   getEnv("IMPORT_ERROR_EMAIL_CODE", sender.TemplateImportErrors),
		JWTSecret:              os.Getenv("JWT_SECRET"),
		TrustGatewayHeaders:    os.Getenv("TRUST_GATEWAY_HEADERS") == "true",
		PriceImportSNSTopicARN: os.Getenv("PRICE_IMPORT_SNS_TOPIC_ARN"),
		ImportUploadDir:        getEnv("IMPORT_UPLOAD_DIR", "./data/price_imports"),
		AllowedOrigins:         strings.Split(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000"), ","),
	}

	var err error
	if cfg.ImportBatchSize, err = getEnvInt("IMPORT_BATCH_SIZE", services.DefaultBatchSize); err != nil {
		return nil, err
	}
	if cfg.ImportRatePerMinute, err = getEnvInt("IMPORT_RATE_PER_MINUTE", 10); err != nil {
		return nil, err
	}
	if cfg.ImportRateBurst, err = getEnvInt("IMPORT_RATE_BURST", 3); err != nil {
		return nil, err
	}
	if cfg.RequestTimeout, err = time.ParseDuration(getEnv("REQUEST_TIMEOUT", "5m")); err != nil {
		return nil, fmt.Errorf("invalid REQUEST_TIMEOUT: %w", err)
	}

	// Override credentials from Secrets Manager when running on AWS
	if os.Getenv("AWS_USE_SECRETS") == "true" {
		if awsCfg, err := aws_pkg.LoadAWSConfig(context.Background()); err == nil {
			cfg.applySecrets(context.Background(), aws_pkg.NewSecretsClient(awsCfg))
		}
	}

	if cfg.Database.User == "" || cfg.Database.Password == "" || cfg.Database.Name == "" || cfg.Database.Host == "" {
		return nil, fmt.Errorf("database config incomplete")
	}
	return cfg, nil
}

// applySecrets replaces credentials with the values stored in Secrets Manager.
// Missing or unreadable secrets leave the environment values in place.
func (c *Config) applySecrets(ctx context.Context, sm aws_pkg.SecretGetter) {
	if m, err := aws_pkg.GetSecretMap(ctx, sm, "customer-options/DB_CREDENTIALS"); err == nil {
		overrideFromSecret(m, "POSTGRES_USER", &c.Database.User)
		overrideFromSecret(m, "POSTGRES_PASSWORD", &c.Database.Password)
		overrideFromSecret(m, "POSTGRES_DB", &c.Database.Name)
		overrideFromSecret(m, "POSTGRES_HOST", &c.Database.Host)
		overrideFromSecret(m, "POSTGRES_PORT", &c.Database.Port)
	}
	if v, err := sm.GetSecret(ctx, "customer-options/SMTP_PASS"); err == nil && v != "" {
		c.SMTP.Password = v
	}
	if v, err := sm.GetSecret(ctx, "customer-options/JWT_SECRET"); err == nil && v != "" {
		c.JWTSecret = v
	}
}

func overrideFromSecret(m map[string]string, key string, target *string) {
	if v, ok := m[key]; ok && v != "" {
		*target = v
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, val)
	}
	return n, nil
}

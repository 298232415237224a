package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setDatabaseEnv(t *testing.T) {
	t.Setenv("POSTGRES_USER", "prices")
	t.Setenv("POSTGRES_PASSWORD", "secret")
	t.Setenv("POSTGRES_DB", "customer_options")
	t.Setenv("POSTGRES_HOST", "localhost")
}

func TestLoadConfig_Defaults(t *testing.T) {
	setDatabaseEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8093", cfg.Port)
	assert.Equal(t, 100, cfg.ImportBatchSize)
	assert.Equal(t, "import_errors", cfg.ImportErrorEmailCode)
	assert.Equal(t, 5*time.Minute, cfg.RequestTimeout)
	assert.Equal(t, "5432", cfg.Database.Port)
	assert.False(t, cfg.TrustGatewayHeaders)
}

func TestLoadConfig_Overrides(t *testing.T) {
	setDatabaseEnv(t)
	t.Setenv("IMPORT_BATCH_SIZE", "25")
	t.Setenv("IMPORT_ERROR_EMAIL_CODE", "admin_import_errors")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://admin.example.com,https://ops.example.com")
	t.Setenv("TRUST_GATEWAY_HEADERS", "true")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 25, cfg.ImportBatchSize)
	assert.Equal(t, "admin_import_errors", cfg.ImportErrorEmailCode)
	assert.Equal(t, []string{"https://admin.example.com", "https://ops.example.com"}, cfg.AllowedOrigins)
	assert.True(t, cfg.TrustGatewayHeaders)
}

func TestLoadConfig_Invalid(t *testing.T) {
	setDatabaseEnv(t)
	t.Setenv("IMPORT_BATCH_SIZE", "zero")

	_, err := LoadConfig()
	assert.Error(t, err)

	t.Setenv("IMPORT_BATCH_SIZE", "")
	t.Setenv("POSTGRES_HOST", "")
	_, err = LoadConfig()
	assert.EqualError(t, err, "database config incomplete")
}

type secretsStub map[string]string

func (s secretsStub) GetSecret(_ context.Context, name string) (string, error) {
	if v, ok := s[name]; ok {
		return v, nil
	}
	return "", errors.New("secret not found")
}

func TestApplySecrets(t *testing.T) {
	setDatabaseEnv(t)
	t.Setenv("SMTP_PASS", "")
	cfg, err := LoadConfig()
	require.NoError(t, err)

	cfg.applySecrets(context.Background(), secretsStub{
		"customer-options/DB_CREDENTIALS": `{"POSTGRES_PASSWORD":"rotated","POSTGRES_HOST":"db.internal"}`,
		"customer-options/JWT_SECRET":     "from-secrets",
	})

	assert.Equal(t, "rotated", cfg.Database.Password)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "prices", cfg.Database.User)
	assert.Equal(t, "from-secrets", cfg.JWTSecret)
	assert.Empty(t, cfg.SMTP.Password)
}

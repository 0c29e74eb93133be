package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kevin07696/soap-gateway/internal/adapters/soap"
)

var configKeys = []string{
	"ENVIRONMENT", "LOG_LEVEL", "LOG_DEVELOPMENT",
	"GATEWAY_CA_FILE", "GATEWAY_TIMEOUT", "GATEWAY_MAX_RESPONSE_BYTES", "GATEWAY_ENDPOINTS",
	"GATEWAY_RATE_LIMIT", "GATEWAY_RATE_BURST", "GATEWAY_CIRCUIT_BREAKER",
	"GATEWAY_BREAKER_MAX_FAILURES", "GATEWAY_BREAKER_TIMEOUT",
	"CREDENTIALS_BACKEND", "GATEWAY_API_USERNAME", "GATEWAY_API_PASSWORD", "CREDENTIALS_SECRET_PATH",
	"SECRETS_CACHE_TTL", "LOCAL_SECRETS_DIR",
	"AWS_REGION", "AWS_PROFILE", "AWS_SECRETS_ENDPOINT",
	"VAULT_ADDR", "VAULT_TOKEN", "VAULT_NAMESPACE", "VAULT_MOUNT_PATH", "VAULT_KV_VERSION",
	"VAULT_CACERT", "VAULT_AUTH_METHOD", "VAULT_ROLE_ID", "VAULT_SECRET_ID", "VAULT_K8S_ROLE",
	"GCP_PROJECT_ID",
}

// clearEnv blanks every key Load reads; empty values count as unset
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range configKeys {
		t.Setenv(key, "")
	}
}

func setMinimalEnv(t *testing.T) {
	t.Helper()
	clearEnv(t)
	t.Setenv("GATEWAY_CA_FILE", "/etc/gateway/root-ca.pem")
	t.Setenv("GATEWAY_ENDPOINTS", "payment=https://pal-test.example.com/pal/servlet/soap/Payment")
	t.Setenv("GATEWAY_API_USERNAME", "api-user")
	t.Setenv("GATEWAY_API_PASSWORD", "pw")
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	setMinimalEnv(t)

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.False(t, cfg.Logger.Development)

	assert.Equal(t, 30*time.Second, cfg.Gateway.Timeout)
	assert.Equal(t, int64(10<<20), cfg.Gateway.MaxResponseBytes)
	assert.Zero(t, cfg.Gateway.RateLimit)
	assert.Equal(t, 1, cfg.Gateway.RateBurst)
	assert.False(t, cfg.Gateway.CircuitBreaker)
	assert.Equal(t, 5, cfg.Gateway.BreakerMaxFailures)
	assert.Equal(t, 30*time.Second, cfg.Gateway.BreakerTimeout)

	assert.Equal(t, BackendEnv, cfg.Credentials.Backend)
	assert.Equal(t, 5*time.Minute, cfg.Credentials.CacheTTL)
	assert.Equal(t, "secret", cfg.Credentials.Vault.MountPath)
	assert.Equal(t, "v2", cfg.Credentials.Vault.KVVersion)
	assert.Equal(t, "token", cfg.Credentials.Vault.AuthMethod)

	endpoint, err := cfg.Endpoint("payment")
	require.NoError(t, err)
	assert.Equal(t, soap.Endpoint{Host: "pal-test.example.com", Port: 443, Path: "/pal/servlet/soap/Payment"}, endpoint)
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("GATEWAY_TIMEOUT", "45s")
	t.Setenv("GATEWAY_MAX_RESPONSE_BYTES", "2048")
	t.Setenv("GATEWAY_RATE_LIMIT", "2.5")
	t.Setenv("GATEWAY_RATE_BURST", "4")
	t.Setenv("GATEWAY_CIRCUIT_BREAKER", "true")
	t.Setenv("GATEWAY_BREAKER_MAX_FAILURES", "3")
	t.Setenv("GATEWAY_BREAKER_TIMEOUT", "90")
	t.Setenv("GATEWAY_ENDPOINTS", "payment=https://pal-test.example.com:8443/soap/Payment, recurring=https://pal-test.example.com/soap/Recurring")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, 45*time.Second, cfg.Gateway.Timeout)
	assert.Equal(t, int64(2048), cfg.Gateway.MaxResponseBytes)
	assert.InDelta(t, 2.5, cfg.Gateway.RateLimit, 1e-9)
	assert.Equal(t, 4, cfg.Gateway.RateBurst)
	assert.True(t, cfg.Gateway.CircuitBreaker)
	assert.Equal(t, 3, cfg.Gateway.BreakerMaxFailures)
	assert.Equal(t, 90*time.Second, cfg.Gateway.BreakerTimeout)
	assert.Equal(t, []string{"payment", "recurring"}, cfg.ClientTypes())

	payment, err := cfg.Endpoint("payment")
	require.NoError(t, err)
	assert.Equal(t, 8443, payment.Port)
}

func TestLoadFromEnv_InvalidNumbersFallBack(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv("GATEWAY_RATE_BURST", "lots")
	t.Setenv("GATEWAY_TIMEOUT", "soon")
	t.Setenv("GATEWAY_CIRCUIT_BREAKER", "maybe")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.Gateway.RateBurst)
	assert.Equal(t, 30*time.Second, cfg.Gateway.Timeout)
	assert.False(t, cfg.Gateway.CircuitBreaker)
}

func TestLoadFromEnv_RequiredKeys(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr []string
	}{
		{
			name:    "nothing set",
			env:     map[string]string{},
			wantErr: []string{"GATEWAY_CA_FILE", "GATEWAY_ENDPOINTS", "GATEWAY_API_USERNAME", "GATEWAY_API_PASSWORD"},
		},
		{
			name: "aws without region",
			env: map[string]string{
				"GATEWAY_CA_FILE":     "ca.pem",
				"GATEWAY_ENDPOINTS":   "payment=https://gw.example.com/soap",
				"CREDENTIALS_BACKEND": "aws",
			},
			wantErr: []string{"AWS_REGION", "CREDENTIALS_SECRET_PATH"},
		},
		{
			name: "vault without address",
			env: map[string]string{
				"GATEWAY_CA_FILE":         "ca.pem",
				"GATEWAY_ENDPOINTS":       "payment=https://gw.example.com/soap",
				"CREDENTIALS_BACKEND":     "vault",
				"CREDENTIALS_SECRET_PATH": "soap-gateway/api-user",
				"VAULT_KV_VERSION":        "v3",
			},
			wantErr: []string{"VAULT_ADDR", "VAULT_KV_VERSION"},
		},
		{
			name: "gcp without project",
			env: map[string]string{
				"GATEWAY_CA_FILE":         "ca.pem",
				"GATEWAY_ENDPOINTS":       "payment=https://gw.example.com/soap",
				"CREDENTIALS_BACKEND":     "GCP",
				"CREDENTIALS_SECRET_PATH": "api-user",
			},
			wantErr: []string{"GCP_PROJECT_ID"},
		},
		{
			name: "unknown backend",
			env: map[string]string{
				"GATEWAY_CA_FILE":     "ca.pem",
				"GATEWAY_ENDPOINTS":   "payment=https://gw.example.com/soap",
				"CREDENTIALS_BACKEND": "keychain",
			},
			wantErr: []string{"CREDENTIALS_BACKEND", "keychain"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := LoadFromEnv()
			require.Error(t, err)
			for _, want := range tt.wantErr {
				assert.Contains(t, err.Error(), want)
			}
		})
	}
}

func TestLoadFromEnv_RateBurst(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv("GATEWAY_RATE_LIMIT", "5")
	t.Setenv("GATEWAY_RATE_BURST", "0")

	_, err := LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GATEWAY_RATE_BURST")

	t.Setenv("GATEWAY_RATE_BURST", "1")
	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.Gateway.RateBurst)

	t.Setenv("GATEWAY_RATE_LIMIT", "")
	t.Setenv("GATEWAY_RATE_BURST", "0")
	_, err = LoadFromEnv()
	assert.NoError(t, err, "burst is unused without a rate")
}

func TestLoadFromEnv_SecretBackends(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv("GATEWAY_API_USERNAME", "")
	t.Setenv("GATEWAY_API_PASSWORD", "")
	t.Setenv("CREDENTIALS_BACKEND", "vault")
	t.Setenv("CREDENTIALS_SECRET_PATH", "soap-gateway/api-user")
	t.Setenv("VAULT_ADDR", "https://vault.internal:8200")
	t.Setenv("VAULT_AUTH_METHOD", "approle")
	t.Setenv("VAULT_ROLE_ID", "role")
	t.Setenv("VAULT_SECRET_ID", "secret-id")
	t.Setenv("VAULT_KV_VERSION", "v1")
	t.Setenv("SECRETS_CACHE_TTL", "1m")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, BackendVault, cfg.Credentials.Backend)
	assert.Equal(t, "soap-gateway/api-user", cfg.Credentials.SecretPath)
	assert.Equal(t, "https://vault.internal:8200", cfg.Credentials.Vault.Address)
	assert.Equal(t, "approle", cfg.Credentials.Vault.AuthMethod)
	assert.Equal(t, "v1", cfg.Credentials.Vault.KVVersion)
	assert.Equal(t, time.Minute, cfg.Credentials.CacheTTL)
}

func TestLoad_EnvFile(t *testing.T) {
	clearEnv(t)
	for _, key := range configKeys {
		// godotenv only fills variables that are absent, not empty
		require.NoError(t, os.Unsetenv(key))
	}

	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte(`
GATEWAY_CA_FILE=/etc/gateway/root-ca.pem
GATEWAY_ENDPOINTS=payment=https://pal-test.example.com/soap
GATEWAY_API_USERNAME=file-user
GATEWAY_API_PASSWORD=file-pw
LOG_LEVEL=warn
`), 0o600))
	t.Setenv("LOG_LEVEL", "error")

	cfg, err := Load(envFile)
	require.NoError(t, err)
	assert.Equal(t, "file-user", cfg.Credentials.Username)
	assert.Equal(t, "error", cfg.Logger.Level, "process environment wins over the file")

	_, err = Load(filepath.Join(t.TempDir(), "missing.env"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing.env")
}

func TestParseEndpoints(t *testing.T) {
	endpoints, err := ParseEndpoints("")
	require.NoError(t, err)
	assert.Empty(t, endpoints)

	endpoints, err = ParseEndpoints("payment=https://gw.example.com,")
	require.NoError(t, err)
	assert.Equal(t, soap.Endpoint{Host: "gw.example.com", Port: 443, Path: "/"}, endpoints["payment"])

	for _, bad := range []string{
		"https://gw.example.com/soap",
		"=https://gw.example.com/soap",
		"payment=http://gw.example.com/soap",
		"payment=https://a.example.com,payment=https://b.example.com",
	} {
		_, err := ParseEndpoints(bad)
		require.Error(t, err, bad)
		assert.Contains(t, err.Error(), "GATEWAY_ENDPOINTS", bad)
	}
}

func TestConfig_UnknownClientType(t *testing.T) {
	setMinimalEnv(t)
	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	_, err = cfg.Endpoint("recurring")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "payment")
}

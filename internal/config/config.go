package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/kevin07696/soap-gateway/internal/adapters/soap"
)

// Credentials backends
const (
	BackendEnv   = "env"
	BackendLocal = "local"
	BackendAWS   = "aws"
	BackendVault = "vault"
	BackendGCP   = "gcp"
)

// Config holds all application configuration
type Config struct {
	Environment string
	Logger      LoggerConfig
	Gateway     GatewayConfig
	Credentials CredentialsConfig
}

// LoggerConfig holds logging configuration
type LoggerConfig struct {
	Level       string // debug, info, warn, error
	Development bool
}

// GatewayConfig holds the SOAP gateway transport configuration
type GatewayConfig struct {
	CAFile             string                   // PEM root CA that signs the gateway certificate
	Timeout            time.Duration            // Whole-exchange HTTP timeout
	MaxResponseBytes   int64                    // Response body cap, 0 disables
	Endpoints          map[string]soap.Endpoint // Keyed by client type
	RateLimit          float64                  // Calls per second, 0 disables
	RateBurst          int
	CircuitBreaker     bool
	BreakerMaxFailures int
	BreakerTimeout     time.Duration
}

// CredentialsConfig selects where the gateway API user comes from
type CredentialsConfig struct {
	Backend    string // env, local, aws, vault, gcp
	Username   string // env backend only
	Password   string // env backend only
	SecretPath string // secret holding {"username": ..., "password": ...}
	CacheTTL   time.Duration
	LocalDir   string
	AWS        AWSConfig
	Vault      VaultConfig
	GCP        GCPConfig
}

// AWSConfig holds AWS Secrets Manager settings
type AWSConfig struct {
	Region   string
	Profile  string
	Endpoint string // LocalStack
}

// VaultConfig holds HashiCorp Vault settings
type VaultConfig struct {
	Address    string
	Token      string
	Namespace  string
	MountPath  string
	KVVersion  string
	CACert     string
	AuthMethod string
	RoleID     string
	SecretID   string
	K8sRole    string
}

// GCPConfig holds Google Cloud Secret Manager settings
type GCPConfig struct {
	ProjectID string
}

// Load reads the optional .env files, then builds the configuration from the environment.
// Variables already set in the environment win over values from the files.
func Load(envFiles ...string) (*Config, error) {
	for _, file := range envFiles {
		if file == "" {
			continue
		}
		if err := godotenv.Load(file); err != nil {
			return nil, fmt.Errorf("load env file %s: %w", file, err)
		}
	}
	return LoadFromEnv()
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Logger: LoggerConfig{
			Level:       getEnv("LOG_LEVEL", "info"),
			Development: getEnvAsBool("LOG_DEVELOPMENT", false),
		},
		Gateway: GatewayConfig{
			CAFile:             getEnv("GATEWAY_CA_FILE", ""),
			Timeout:            getEnvAsDuration("GATEWAY_TIMEOUT", 30*time.Second),
			MaxResponseBytes:   int64(getEnvAsInt("GATEWAY_MAX_RESPONSE_BYTES", 10<<20)),
			RateLimit:          getEnvAsFloat("GATEWAY_RATE_LIMIT", 0),
			RateBurst:          getEnvAsInt("GATEWAY_RATE_BURST", 1),
			CircuitBreaker:     getEnvAsBool("GATEWAY_CIRCUIT_BREAKER", false),
			BreakerMaxFailures: getEnvAsInt("GATEWAY_BREAKER_MAX_FAILURES", 5),
			BreakerTimeout:     getEnvAsDuration("GATEWAY_BREAKER_TIMEOUT", 30*time.Second),
		},
		Credentials: CredentialsConfig{
			Backend:    strings.ToLower(getEnv("CREDENTIALS_BACKEND", BackendEnv)),
			Username:   getEnv("GATEWAY_API_USERNAME", ""),
			Password:   getEnv("GATEWAY_API_PASSWORD", ""),
			SecretPath: getEnv("CREDENTIALS_SECRET_PATH", ""),
			CacheTTL:   getEnvAsDuration("SECRETS_CACHE_TTL", 5*time.Minute),
			LocalDir:   getEnv("LOCAL_SECRETS_DIR", "./secrets"),
			AWS: AWSConfig{
				Region:   getEnv("AWS_REGION", ""),
				Profile:  getEnv("AWS_PROFILE", ""),
				Endpoint: getEnv("AWS_SECRETS_ENDPOINT", ""),
			},
			Vault: VaultConfig{
				Address:    getEnv("VAULT_ADDR", ""),
				Token:      getEnv("VAULT_TOKEN", ""),
				Namespace:  getEnv("VAULT_NAMESPACE", ""),
				MountPath:  getEnv("VAULT_MOUNT_PATH", "secret"),
				KVVersion:  getEnv("VAULT_KV_VERSION", "v2"),
				CACert:     getEnv("VAULT_CACERT", ""),
				AuthMethod: getEnv("VAULT_AUTH_METHOD", "token"),
				RoleID:     getEnv("VAULT_ROLE_ID", ""),
				SecretID:   getEnv("VAULT_SECRET_ID", ""),
				K8sRole:    getEnv("VAULT_K8S_ROLE", ""),
			},
			GCP: GCPConfig{
				ProjectID: getEnv("GCP_PROJECT_ID", ""),
			},
		},
	}

	endpoints, err := ParseEndpoints(getEnv("GATEWAY_ENDPOINTS", ""))
	if err != nil {
		return nil, err
	}
	cfg.Gateway.Endpoints = endpoints

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required fields. Errors name the environment variable to set.
func (c *Config) Validate() error {
	var errs []error

	if c.Gateway.CAFile == "" {
		errs = append(errs, fmt.Errorf("GATEWAY_CA_FILE is required"))
	}
	if len(c.Gateway.Endpoints) == 0 {
		errs = append(errs, fmt.Errorf("GATEWAY_ENDPOINTS is required"))
	}
	if c.Gateway.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("GATEWAY_TIMEOUT must be positive"))
	}
	if c.Gateway.RateLimit < 0 {
		errs = append(errs, fmt.Errorf("GATEWAY_RATE_LIMIT must not be negative"))
	}
	if c.Gateway.RateLimit > 0 && c.Gateway.RateBurst < 1 {
		errs = append(errs, fmt.Errorf("GATEWAY_RATE_BURST must be at least 1 when GATEWAY_RATE_LIMIT is set"))
	}

	creds := c.Credentials
	require := func(key, value string) {
		if value == "" {
			errs = append(errs, fmt.Errorf("%s is required when CREDENTIALS_BACKEND=%s", key, creds.Backend))
		}
	}

	switch creds.Backend {
	case BackendEnv:
		require("GATEWAY_API_USERNAME", creds.Username)
		require("GATEWAY_API_PASSWORD", creds.Password)
	case BackendLocal:
		require("LOCAL_SECRETS_DIR", creds.LocalDir)
		require("CREDENTIALS_SECRET_PATH", creds.SecretPath)
	case BackendAWS:
		require("AWS_REGION", creds.AWS.Region)
		require("CREDENTIALS_SECRET_PATH", creds.SecretPath)
	case BackendVault:
		require("VAULT_ADDR", creds.Vault.Address)
		require("CREDENTIALS_SECRET_PATH", creds.SecretPath)
		if creds.Vault.KVVersion != "v1" && creds.Vault.KVVersion != "v2" {
			errs = append(errs, fmt.Errorf("VAULT_KV_VERSION must be v1 or v2, got %q", creds.Vault.KVVersion))
		}
	case BackendGCP:
		require("GCP_PROJECT_ID", creds.GCP.ProjectID)
		require("CREDENTIALS_SECRET_PATH", creds.SecretPath)
	default:
		errs = append(errs, fmt.Errorf("CREDENTIALS_BACKEND %q is not one of env, local, aws, vault, gcp", creds.Backend))
	}

	return errors.Join(errs...)
}

// Endpoint returns the endpoint configured for clientType
func (c *Config) Endpoint(clientType string) (soap.Endpoint, error) {
	endpoint, ok := c.Gateway.Endpoints[clientType]
	if !ok {
		return soap.Endpoint{}, fmt.Errorf("no endpoint configured for client type %q (known: %s)",
			clientType, strings.Join(c.ClientTypes(), ", "))
	}
	return endpoint, nil
}

// ClientTypes lists the configured client types in sorted order
func (c *Config) ClientTypes() []string {
	types := make([]string, 0, len(c.Gateway.Endpoints))
	for t := range c.Gateway.Endpoints {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// ParseEndpoints parses "type=https://host[:port]/path,..." into endpoints keyed by type
func ParseEndpoints(value string) (map[string]soap.Endpoint, error) {
	endpoints := make(map[string]soap.Endpoint)
	for _, entry := range strings.Split(value, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		clientType, rawURL, ok := strings.Cut(entry, "=")
		clientType = strings.TrimSpace(clientType)
		if !ok || clientType == "" {
			return nil, fmt.Errorf("GATEWAY_ENDPOINTS entry %q must be type=url", entry)
		}
		if _, dup := endpoints[clientType]; dup {
			return nil, fmt.Errorf("GATEWAY_ENDPOINTS lists client type %q twice", clientType)
		}

		endpoint, err := soap.ParseEndpoint(strings.TrimSpace(rawURL))
		if err != nil {
			return nil, fmt.Errorf("GATEWAY_ENDPOINTS entry %q: %w", clientType, err)
		}
		endpoints[clientType] = endpoint
	}
	return endpoints, nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration accepts Go durations ("45s") or a bare number of seconds
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	if seconds, err := strconv.Atoi(valueStr); err == nil {
		return time.Duration(seconds) * time.Second
	}
	return defaultValue
}

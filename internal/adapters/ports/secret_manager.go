package ports

import (
	"context"
)

// Secret represents a retrieved secret with metadata
type Secret struct {
	Value     string            // The secret value (JSON credentials document for the gateway API user)
	Version   string            // Secret version identifier
	Metadata  map[string]string // Additional secret metadata
	CreatedAt string            // When this version was created
}

// SecretManagerAdapter is the read-only port for the secret backends holding gateway credentials.
// Supported backends: AWS Secrets Manager, HashiCorp Vault, GCP Secret Manager, local filesystem.
// Writing and rotating secrets is managed outside this service.
type SecretManagerAdapter interface {
	// GetSecret retrieves the current version of a secret by its path/name
	// Path format depends on implementation:
	//   - AWS: "soap-gateway/api-user" or full ARN
	//   - Vault: "soap-gateway/api-user" under the configured KV mount
	//   - GCP: secret ID in the configured project
	//   - Local: path relative to the secrets directory
	GetSecret(ctx context.Context, path string) (*Secret, error)

	// GetSecretVersion retrieves a specific version of a secret
	GetSecretVersion(ctx context.Context, path string, version string) (*Secret, error)
}

package secrets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kevin07696/soap-gateway/internal/adapters/ports"
)

var (
	// ErrIncompleteCredentials is returned when username or password is missing
	ErrIncompleteCredentials = errors.New("gateway credentials need both username and password")
	// ErrSecretNotFound is returned by every backend when the secret does not exist
	ErrSecretNotFound = errors.New("secret not found")
)

// StaticCredentialsProvider serves credentials taken from configuration
type StaticCredentialsProvider struct {
	creds ports.Credentials
}

// NewStaticCredentialsProvider creates a provider for fixed credentials
func NewStaticCredentialsProvider(username, password string) *StaticCredentialsProvider {
	return &StaticCredentialsProvider{creds: ports.Credentials{Username: username, Password: password}}
}

// Credentials implements ports.CredentialsProvider
func (p *StaticCredentialsProvider) Credentials(ctx context.Context) (ports.Credentials, error) {
	if !p.creds.Complete() {
		return ports.Credentials{}, ErrIncompleteCredentials
	}
	return p.creds, nil
}

// SecretCredentialsProvider reads the gateway API user from a secret manager.
// The secret value is a JSON document: {"username": "...", "password": "..."}.
type SecretCredentialsProvider struct {
	manager ports.SecretManagerAdapter
	path    string
}

// NewSecretCredentialsProvider creates a provider reading path from manager
func NewSecretCredentialsProvider(manager ports.SecretManagerAdapter, path string) *SecretCredentialsProvider {
	return &SecretCredentialsProvider{manager: manager, path: path}
}

// Credentials implements ports.CredentialsProvider. Caching is the manager's job.
func (p *SecretCredentialsProvider) Credentials(ctx context.Context) (ports.Credentials, error) {
	secret, err := p.manager.GetSecret(ctx, p.path)
	if err != nil {
		return ports.Credentials{}, err
	}
	creds, err := ParseCredentials(secret.Value)
	if err != nil {
		return ports.Credentials{}, fmt.Errorf("secret %s: %w", p.path, err)
	}
	return creds, nil
}

// ParseCredentials decodes a credentials document. Errors never include the document.
func ParseCredentials(value string) (ports.Credentials, error) {
	var doc struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.Unmarshal([]byte(value), &doc); err != nil {
		return ports.Credentials{}, fmt.Errorf("credentials secret is not a JSON document")
	}

	creds := ports.Credentials{Username: doc.Username, Password: doc.Password}
	if !creds.Complete() {
		return ports.Credentials{}, ErrIncompleteCredentials
	}
	return creds, nil
}

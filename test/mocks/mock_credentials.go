package mocks

import (
	"context"
	"sync"

	"github.com/kevin07696/soap-gateway/internal/adapters/ports"
)

// MockCredentialsProvider returns fixed credentials or an error
type MockCredentialsProvider struct {
	mu    sync.Mutex
	creds ports.Credentials
	err   error
	Calls int
}

// NewMockCredentialsProvider creates a provider returning creds
func NewMockCredentialsProvider(username, password string) *MockCredentialsProvider {
	return &MockCredentialsProvider{creds: ports.Credentials{Username: username, Password: password}}
}

// SetError makes subsequent lookups fail with err
func (m *MockCredentialsProvider) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Credentials implements ports.CredentialsProvider
func (m *MockCredentialsProvider) Credentials(ctx context.Context) (ports.Credentials, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	if m.err != nil {
		return ports.Credentials{}, m.err
	}
	return m.creds, nil
}

// CallCount returns the number of lookups
func (m *MockCredentialsProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Calls
}

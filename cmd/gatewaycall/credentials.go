package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kevin07696/soap-gateway/internal/adapters/ports"
	"github.com/kevin07696/soap-gateway/internal/adapters/secrets"
	"github.com/kevin07696/soap-gateway/internal/config"
)

// initCredentials builds the provider for CREDENTIALS_BACKEND.
// The returned func releases backend clients and is safe to call once.
func initCredentials(ctx context.Context, cfg *config.Config, logger *zap.Logger) (ports.CredentialsProvider, func(), error) {
	noop := func() {}
	c := cfg.Credentials

	var (
		manager ports.SecretManagerAdapter
		err     error
	)
	closer := noop

	switch c.Backend {
	case config.BackendEnv:
		logger.Info("Using gateway credentials from environment")
		return secrets.NewStaticCredentialsProvider(c.Username, c.Password), noop, nil

	case config.BackendLocal:
		logger.Warn("Using local secret files, not for production",
			zap.String("dir", c.LocalDir),
		)
		manager = secrets.NewLocalSecretManager(c.LocalDir, logger)

	case config.BackendAWS:
		awsCfg := secrets.DefaultAWSSecretsManagerConfig(c.AWS.Region)
		awsCfg.Profile = c.AWS.Profile
		awsCfg.Endpoint = c.AWS.Endpoint
		awsCfg.CacheTTL = c.CacheTTL
		manager, err = secrets.NewAWSSecretsManagerAdapter(ctx, awsCfg, logger)

	case config.BackendVault:
		vaultCfg := secrets.DefaultVaultConfig(c.Vault.Address)
		vaultCfg.AuthMethod = c.Vault.AuthMethod
		vaultCfg.Token = c.Vault.Token
		vaultCfg.RoleID = c.Vault.RoleID
		vaultCfg.SecretID = c.Vault.SecretID
		vaultCfg.K8sRole = c.Vault.K8sRole
		vaultCfg.Namespace = c.Vault.Namespace
		vaultCfg.MountPath = c.Vault.MountPath
		vaultCfg.KVVersion = c.Vault.KVVersion
		vaultCfg.CACert = c.Vault.CACert
		vaultCfg.CacheTTL = c.CacheTTL
		manager, err = secrets.NewVaultAdapter(ctx, vaultCfg, logger)

	case config.BackendGCP:
		gcpCfg := secrets.DefaultGCPSecretManagerConfig(c.GCP.ProjectID)
		gcpCfg.CacheTTL = c.CacheTTL
		var sm *secrets.GCPSecretManager
		sm, err = secrets.NewGCPSecretManager(ctx, gcpCfg, logger)
		if err == nil {
			manager = sm
			closer = func() {
				if err := sm.Close(); err != nil {
					logger.Warn("Failed to close GCP Secret Manager client", zap.Error(err))
				}
			}
		}

	default:
		return nil, nil, fmt.Errorf("unsupported credentials backend %q", c.Backend)
	}

	if err != nil {
		return nil, nil, fmt.Errorf("%s credentials backend: %w", c.Backend, err)
	}

	logger.Info("Gateway credentials read from secret manager",
		zap.String("backend", c.Backend),
		zap.String("secret_path", c.SecretPath),
	)
	return secrets.NewSecretCredentialsProvider(manager, c.SecretPath), closer, nil
}

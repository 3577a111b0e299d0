package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/emilydias-boop/mcf-insight-hub/internal/adapters/secrets"
	"github.com/emilydias-boop/mcf-insight-hub/internal/config"
	"github.com/emilydias-boop/mcf-insight-hub/internal/domain/ports"
)

// initSecretReader builds the reader for SECRETS_BACKEND:
//   - env:   environment variables, then files under SECRETS_DIR
//   - aws:   AWS Secrets Manager in AWS_REGION
//   - vault: HashiCorp Vault at VAULT_ADDR
func initSecretReader(ctx context.Context, cfg *config.Config, logger *zap.Logger) (ports.SecretReader, error) {
	sc := cfg.Secrets

	switch sc.Backend {
	case "aws":
		awsCfg := secrets.DefaultAWSSecretsManagerConfig(sc.AWSRegion)
		awsCfg.Profile = sc.AWSProfile
		awsCfg.Endpoint = sc.AWSEndpoint
		if sc.CacheTTL > 0 {
			awsCfg.CacheTTL = sc.CacheTTL
		}
		return secrets.NewAWSSecretsManagerReader(ctx, awsCfg, logger)

	case "vault":
		vaultCfg := secrets.DefaultVaultConfig(sc.VaultAddress)
		if sc.VaultAuthMethod != "" {
			vaultCfg.AuthMethod = sc.VaultAuthMethod
		}
		vaultCfg.Token = sc.VaultToken
		vaultCfg.RoleID = sc.VaultRoleID
		vaultCfg.SecretID = sc.VaultSecretID
		if sc.VaultMountPath != "" {
			vaultCfg.MountPath = sc.VaultMountPath
		}
		if sc.VaultKVVersion != "" {
			vaultCfg.KVVersion = sc.VaultKVVersion
		}
		if sc.CacheTTL > 0 {
			vaultCfg.CacheTTL = sc.CacheTTL
		}
		return secrets.NewVaultReader(ctx, vaultCfg, logger)

	default:
		return secrets.NewEnvSecretReader(sc.Dir, logger), nil
	}
}

// resolveCredentials fills passwords that are configured by secret reference
func resolveCredentials(ctx context.Context, cfg *config.Config, reader ports.SecretReader) error {
	if cfg.Database.PasswordSecret != "" {
		secret, err := reader.GetSecret(ctx, cfg.Database.PasswordSecret)
		if err != nil {
			return fmt.Errorf("resolve database password: %w", err)
		}
		cfg.Database.Password = secret.Value
	}

	if cfg.Redis.Enabled && cfg.Redis.PasswordSecret != "" {
		secret, err := reader.GetSecret(ctx, cfg.Redis.PasswordSecret)
		if err != nil {
			return fmt.Errorf("resolve redis password: %w", err)
		}
		cfg.Redis.Password = secret.Value
	}

	return nil
}

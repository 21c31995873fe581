package repos

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hashicorp/vault/api"

	"github.com/architeacher/svc-job-worker/internal/domain"
)

const (
	appRoleLoginPath = "auth/approle/login"
	appSecretsPrefix = "apps/data/"
)

type (
	// VaultRepository reads the service secrets from a KV v2 engine.
	VaultRepository struct {
		vaultClient *api.Client
	}
)

func NewVaultRepository(vaultClient *api.Client) *VaultRepository {
	return &VaultRepository{
		vaultClient: vaultClient,
	}
}

// Authenticate sets the client token, logging in through AppRole when asked to.
func (r *VaultRepository) Authenticate(ctx context.Context, creds domain.SecretCredentials) error {
	switch strings.ToLower(creds.Method) {
	case "token":
		r.vaultClient.SetToken(creds.Token)

		return nil

	case "approle":
		resp, err := r.vaultClient.Logical().WriteWithContext(ctx, appRoleLoginPath, map[string]any{
			"role_id":   creds.RoleID,
			"secret_id": creds.SecretID,
		})
		if err != nil {
			return fmt.Errorf("failed to authenticate via approle: %w", err)
		}

		if resp == nil || resp.Auth == nil {
			return fmt.Errorf("no auth info returned from Vault")
		}

		r.vaultClient.SetToken(resp.Auth.ClientToken)

		return nil

	default:
		return fmt.Errorf("unsupported auth method: %s", creds.Method)
	}
}

// ReadSecrets reads apps/data/<mountPath> and unwraps the KV v2 envelope.
// A missing secret yields an empty bundle.
func (r *VaultRepository) ReadSecrets(ctx context.Context, mountPath string) (domain.SecretBundle, error) {
	path := appSecretsPrefix + mountPath

	secret, err := r.vaultClient.Logical().ReadWithContext(ctx, path)
	if err != nil {
		return domain.SecretBundle{}, fmt.Errorf("failed to read from path %s: %w", path, err)
	}

	if secret == nil || secret.Data == nil {
		return domain.SecretBundle{}, nil
	}

	values, ok := secret.Data["data"].(map[string]any)
	if !ok {
		return domain.SecretBundle{}, fmt.Errorf("invalid secret format at path %s, missing 'data' key", path)
	}

	metadata, ok := secret.Data["metadata"].(map[string]any)
	if !ok {
		return domain.SecretBundle{}, fmt.Errorf("invalid secret format at path %s, missing 'metadata' key", path)
	}

	version, err := secretVersion(metadata)
	if err != nil {
		return domain.SecretBundle{}, err
	}

	return domain.SecretBundle{Values: values, Version: version}, nil
}

func secretVersion(metadata map[string]any) (uint, error) {
	raw, ok := metadata["current_version"]
	if !ok {
		raw, ok = metadata["version"]
	}

	if !ok {
		return 0, nil
	}

	switch v := raw.(type) {
	case float64:
		return uint(v), nil
	case int:
		return uint(v), nil
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, fmt.Errorf("failed to parse secret version: %w", err)
		}

		return uint(n), nil
	default:
		return 0, fmt.Errorf("unexpected secret version type: %T", raw)
	}
}

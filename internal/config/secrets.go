package config

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/architeacher/svc-job-worker/internal/domain"
	"github.com/architeacher/svc-job-worker/internal/ports"
)

const secretsRetryStep = time.Second

// secretBindings maps the flat keys stored in Vault onto config fields.
// Every applied key is exported to the environment as well.
var secretBindings = map[string]func(cfg *ServiceConfig, value string){
	"RABBIT_URL":     func(cfg *ServiceConfig, v string) { cfg.Queue.URL = v },
	"REDIS_PASSWORD": func(cfg *ServiceConfig, v string) { cfg.Cache.Password = v },
	"REDIS_ADDR":     func(cfg *ServiceConfig, v string) { cfg.Cache.Addr = v },
	"DOWNSTREAM_CHAT_SERVICE_BASE_URL": func(cfg *ServiceConfig, v string) {
		cfg.Downstream.Chat.BaseURL = v
	},
	"DOWNSTREAM_KNOWLEDGE_SERVICE_BASE_URL": func(cfg *ServiceConfig, v string) {
		cfg.Downstream.KnowledgeExtraction.BaseURL = v
	},
}

// credentials validates the configured auth method before any call to Vault.
func (c SecretStorageConfig) credentials() (domain.SecretCredentials, error) {
	creds := domain.SecretCredentials{
		Method:   strings.ToLower(c.AuthMethod),
		Token:    c.Token,
		RoleID:   c.RoleID,
		SecretID: c.SecretID,
	}

	switch creds.Method {
	case "token":
		if creds.Token == "" {
			return creds, fmt.Errorf("token is required for token auth method")
		}
	case "approle":
		if creds.RoleID == "" || creds.SecretID == "" {
			return creds, fmt.Errorf("role_id and secret_id are required for approle auth method")
		}
	default:
		return creds, fmt.Errorf("unsupported auth method: %s", c.AuthMethod)
	}

	return creds, nil
}

func authenticate(ctx context.Context, repo ports.SecretsRepository, cfg SecretStorageConfig) error {
	creds, err := cfg.credentials()
	if err != nil {
		return err
	}

	return repo.Authenticate(ctx, creds)
}

// fetchSecrets reads the service secrets, retrying with a linear step until
// MaxRetries is exhausted or the storage timeout expires.
func fetchSecrets(ctx context.Context, repo ports.SecretsRepository, cfg SecretStorageConfig) (domain.SecretBundle, error) {
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	var lastErr error

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return domain.SecretBundle{}, fmt.Errorf("failed to read secrets of %s: %w", cfg.MountPath, ctx.Err())
			case <-time.After(time.Duration(attempt) * secretsRetryStep):
			}
		}

		bundle, err := repo.ReadSecrets(ctx, cfg.MountPath)
		if err == nil {
			return bundle, nil
		}

		lastErr = err
	}

	return domain.SecretBundle{}, fmt.Errorf("failed to read secrets of %s after %d retries: %w", cfg.MountPath, cfg.MaxRetries, lastErr)
}

func bindSecrets(cfg *ServiceConfig, values map[string]any) error {
	for key, raw := range values {
		value, ok := raw.(string)
		if !ok || value == "" {
			continue
		}

		if err := os.Setenv(key, value); err != nil {
			return fmt.Errorf("failed to set environment variable %s: %w", key, err)
		}

		if bind, found := secretBindings[key]; found {
			bind(cfg, value)
		}
	}

	return nil
}

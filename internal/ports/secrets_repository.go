//go:generate go tool github.com/maxbrunsfeld/counterfeiter/v6 -generate

package ports

import (
	"context"

	"github.com/architeacher/svc-job-worker/internal/domain"
)

//counterfeiter:generate -o ../mocks/secrets_repository.go . SecretsRepository

type (
	// SecretsRepository reads the service secrets from the secret store.
	SecretsRepository interface {
		Authenticate(ctx context.Context, creds domain.SecretCredentials) error
		ReadSecrets(ctx context.Context, mountPath string) (domain.SecretBundle, error)
	}
)

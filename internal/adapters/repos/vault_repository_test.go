package repos

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hashicorp/vault/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/architeacher/svc-job-worker/internal/domain"
)

func newTestVaultRepository(t *testing.T, handler http.HandlerFunc) (*VaultRepository, *api.Client) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := api.DefaultConfig()
	cfg.Address = server.URL

	client, err := api.NewClient(cfg)
	require.NoError(t, err)

	client.SetToken("")

	return NewVaultRepository(client), client
}

func writeJSON(t *testing.T, w http.ResponseWriter, body any) {
	t.Helper()

	w.Header().Set("Content-Type", "application/json")
	assert.NoError(t, json.NewEncoder(w).Encode(body))
}

func TestVaultRepository_Authenticate(t *testing.T) {
	t.Parallel()

	t.Run("token sets the client token", func(t *testing.T) {
		t.Parallel()

		repo, client := newTestVaultRepository(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})

		err := repo.Authenticate(context.Background(), domain.SecretCredentials{Method: "token", Token: "root"})

		require.NoError(t, err)
		assert.Equal(t, "root", client.Token())
	})

	t.Run("approle logs in", func(t *testing.T) {
		t.Parallel()

		repo, client := newTestVaultRepository(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPut, r.Method)
			assert.Equal(t, "/v1/auth/approle/login", r.URL.Path)

			var body map[string]string
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, map[string]string{"role_id": "role", "secret_id": "secret"}, body)

			writeJSON(t, w, map[string]any{"auth": map[string]any{"client_token": "s.approle"}})
		})

		err := repo.Authenticate(context.Background(), domain.SecretCredentials{
			Method:   "approle",
			RoleID:   "role",
			SecretID: "secret",
		})

		require.NoError(t, err)
		assert.Equal(t, "s.approle", client.Token())
	})

	t.Run("approle without auth info", func(t *testing.T) {
		t.Parallel()

		repo, _ := newTestVaultRepository(t, func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(t, w, map[string]any{"data": map[string]any{}})
		})

		err := repo.Authenticate(context.Background(), domain.SecretCredentials{Method: "approle", RoleID: "r", SecretID: "s"})

		require.ErrorContains(t, err, "no auth info")
	})

	t.Run("unsupported method", func(t *testing.T) {
		t.Parallel()

		repo, _ := newTestVaultRepository(t, func(http.ResponseWriter, *http.Request) {})

		err := repo.Authenticate(context.Background(), domain.SecretCredentials{Method: "kubernetes"})

		require.ErrorContains(t, err, "unsupported auth method")
	})
}

func TestVaultRepository_ReadSecrets(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		response map[string]any
		expected domain.SecretBundle
		errMsg   string
	}{
		{
			name: "unwraps data and version",
			response: map[string]any{"data": map[string]any{
				"data":     map[string]any{"RABBIT_URL": "amqp://vault@rabbit:5672/"},
				"metadata": map[string]any{"version": 4},
			}},
			expected: domain.SecretBundle{
				Values:  map[string]any{"RABBIT_URL": "amqp://vault@rabbit:5672/"},
				Version: 4,
			},
		},
		{
			name: "current version wins",
			response: map[string]any{"data": map[string]any{
				"data":     map[string]any{},
				"metadata": map[string]any{"current_version": 9, "version": 4},
			}},
			expected: domain.SecretBundle{Values: map[string]any{}, Version: 9},
		},
		{
			name: "missing metadata",
			response: map[string]any{"data": map[string]any{
				"data": map[string]any{},
			}},
			errMsg: "missing 'metadata' key",
		},
		{
			name: "unexpected version type",
			response: map[string]any{"data": map[string]any{
				"data":     map[string]any{},
				"metadata": map[string]any{"version": "four"},
			}},
			errMsg: "unexpected secret version type",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			repo, _ := newTestVaultRepository(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/v1/apps/data/svc-job-worker", r.URL.Path)

				writeJSON(t, w, tc.response)
			})

			bundle, err := repo.ReadSecrets(context.Background(), "svc-job-worker")
			if tc.errMsg != "" {
				require.ErrorContains(t, err, tc.errMsg)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.expected, bundle)
		})
	}
}

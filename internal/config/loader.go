package config

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/architeacher/svc-job-worker/internal/ports"
	"github.com/kelseyhightower/envconfig"
)

// Loader keeps a ServiceConfig in sync with the secret store.
//
// SIGHUP triggers a reload, SIGUSR1 dumps the active configuration.
// When secret storage is enabled with a poll interval, a ticker raises
// reloads on the same path as SIGHUP.
type Loader struct {
	cfg         *ServiceConfig
	secretsRepo ports.SecretsRepository
	signals     chan os.Signal
	reloads     chan error
	lastVersion uint
}

func NewLoader(cfg *ServiceConfig, secretsRepo ports.SecretsRepository, initialVersion uint) *Loader {
	return &Loader{
		cfg:         cfg,
		secretsRepo: secretsRepo,
		signals:     make(chan os.Signal, 1),
		reloads:     make(chan error, 1),
		lastVersion: initialVersion,
	}
}

// Init builds the configuration from the environment.
func Init() (*ServiceConfig, error) {
	cfg := &ServiceConfig{}

	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("unable to parse service configuration: %w", err)
	}

	if ServiceVersion != "" {
		cfg.AppConfig.ServiceVersion = ServiceVersion
	}

	if CommitSHA != "" {
		cfg.AppConfig.CommitSHA = CommitSHA
	}

	return cfg, nil
}

// WatchConfigSignals starts the reload loop and returns the channel on
// which each reload outcome is reported. A nil value means success.
func (l *Loader) WatchConfigSignals(ctx context.Context) <-chan error {
	signal.Notify(l.signals, syscall.SIGHUP, syscall.SIGUSR1)

	var (
		ticker *time.Ticker
		poll   <-chan time.Time
	)

	if l.cfg.SecretStorage.Enabled && l.cfg.SecretStorage.PollInterval > 0 {
		ticker = time.NewTicker(l.cfg.SecretStorage.PollInterval)
		poll = ticker.C
	}

	go func() {
		defer close(l.reloads)
		defer signal.Stop(l.signals)

		if ticker != nil {
			defer ticker.Stop()
		}

		for {
			select {
			case <-ctx.Done():
				return

			case <-poll:
				l.reload(ctx)

			case sig := <-l.signals:
				if sig == syscall.SIGUSR1 {
					l.DumpConfig()

					continue
				}

				l.reload(ctx)
			}
		}
	}()

	return l.reloads
}

// DumpConfig writes the active configuration to stdout as indented JSON.
func (l *Loader) DumpConfig() {
	out, err := json.MarshalIndent(l.cfg, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stdout, "Error marshaling config: %v\n", err)

		return
	}

	fmt.Fprintf(os.Stdout, "\n=== Configuration Dump ===\n%s\n=== End Configuration ===\n\n", out)
}

// Load authenticates against the secret store, applies the stored secrets
// to cfg and returns the secret version that was applied.
func (l *Loader) Load(ctx context.Context, secretsRepo ports.SecretsRepository, cfg *ServiceConfig) (uint, error) {
	if !cfg.SecretStorage.Enabled {
		return 0, fmt.Errorf("secret storage is not enabled")
	}

	if err := authenticate(ctx, secretsRepo, cfg.SecretStorage); err != nil {
		return 0, fmt.Errorf("failed to authenticate with Vault: %w", err)
	}

	bundle, err := fetchSecrets(ctx, secretsRepo, cfg.SecretStorage)
	if err != nil {
		return 0, fmt.Errorf("failed to load secrets from Vault: %w", err)
	}

	if err := bindSecrets(cfg, bundle.Values); err != nil {
		return 0, fmt.Errorf("failed to apply secrets to config: %w", err)
	}

	return bundle.Version, nil
}

// reload applies the stored secrets only when their version moved.
func (l *Loader) reload(ctx context.Context) {
	bundle, err := fetchSecrets(ctx, l.secretsRepo, l.cfg.SecretStorage)
	if err != nil {
		l.report(fmt.Errorf("failed to load secret metadata: %w", err))

		return
	}

	if bundle.Version == l.lastVersion {
		return
	}

	version, err := l.Load(ctx, l.secretsRepo, l.cfg)
	if err != nil {
		l.report(err)

		return
	}

	l.lastVersion = version
	l.report(nil)
}

func (l *Loader) report(err error) {
	select {
	case l.reloads <- err:
	default:
	}
}

// Package cmd holds the cobra commands of the jobworker binary.
package cmd

import (
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/architeacher/svc-job-worker/internal/config"
	"github.com/architeacher/svc-job-worker/internal/domain"
	"github.com/architeacher/svc-job-worker/internal/workers"
)

const workerFlag = "worker"

// NewRoot constructs the root command and registers every sub command.
func NewRoot() *cobra.Command {
	root := &cobra.Command{
		Use:           "jobworker",
		Short:         "RabbitMQ job worker",
		Long:          "jobworker consumes jobs of a named worker from RabbitMQ and publishes jobs for it.",
		Version:       config.ServiceVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		NewWorkerCommand(),
		NewPublishCommand(),
		NewTopologyCommand(),
		NewWorkersCommand(),
	)

	return root
}

func workerFlagUsage() string {
	return "worker name (" + strings.Join(workers.CatalogNames(), "|") + ")"
}

func validateWorker(name string) error {
	if !slices.Contains(workers.CatalogNames(), name) {
		return domain.NewUnknownWorkerError(name)
	}

	return nil
}

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/architeacher/svc-job-worker/internal/runtime"
)

func NewWorkerCommand() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Consume the queue of one worker until SIGINT or SIGTERM",
		Args:  cobra.NoArgs,
		PreRunE: func(_ *cobra.Command, _ []string) error {
			return validateWorker(name)
		},
		RunE: func(_ *cobra.Command, _ []string) error {
			return runtime.NewWorker(name).Run()
		},
	}

	cmd.Flags().StringVarP(&name, workerFlag, "w", "", workerFlagUsage())
	_ = cmd.MarkFlagRequired(workerFlag)

	return cmd
}

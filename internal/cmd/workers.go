package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/architeacher/svc-job-worker/internal/runtime"
)

func NewWorkersCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "workers",
		Short: "List the registered workers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			names, err := runtime.WorkerNames()
			if err != nil {
				return err
			}

			for _, name := range names {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}

			return nil
		},
	}
}

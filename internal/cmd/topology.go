package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/architeacher/svc-job-worker/internal/runtime"
)

func NewTopologyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "topology",
		Short: "Topology commands",
	}

	cmd.AddCommand(newTopologyDeclareCommand())

	return cmd
}

func newTopologyDeclareCommand() *cobra.Command {
	var names []string

	cmd := &cobra.Command{
		Use:   "declare",
		Short: "Declare exchanges, queues and bindings without consuming",
		Args:  cobra.NoArgs,
		PreRunE: func(_ *cobra.Command, _ []string) error {
			for _, name := range names {
				if err := validateWorker(name); err != nil {
					return err
				}
			}

			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			topologies, err := runtime.DeclareTopology(cmd.Context(), names...)
			if err != nil {
				return err
			}

			for _, t := range topologies {
				fmt.Fprintf(cmd.OutOrStdout(), "%s (%s) -> %s [%s]\n", t.Exchange, t.ExchangeKind, t.Queue, t.RoutingKey)
			}

			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&names, workerFlag, "w", nil, workerFlagUsage()+", repeatable; all workers when omitted")

	return cmd
}

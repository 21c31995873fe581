package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/architeacher/svc-job-worker/internal/runtime"
)

type publishFlags struct {
	worker   string
	data     string
	delay    time.Duration
	priority uint8
	count    int
}

func NewPublishCommand() *cobra.Command {
	return newPublishCommand(&publishFlags{})
}

func newPublishCommand(flags *publishFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Publish jobs for a worker",
		Example: `  jobworker publish -w TEST_PROCESSOR --data '{"text":"hello"}' --delay 5s
  jobworker publish -w CHAT_PROCESSOR --data '{"prompt":"hi"}' --priority 200 --count 5`,
		Args: cobra.NoArgs,
		PreRunE: func(_ *cobra.Command, _ []string) error {
			return validateWorker(flags.worker)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			req, err := flags.request(cmd)
			if err != nil {
				return err
			}

			results, err := runtime.NewPublisher().Run(req)
			for _, result := range results {
				fmt.Fprintf(cmd.OutOrStdout(), "published %s job to %s with routing key %s, priority %d, delay %s\n",
					result.Worker, result.Exchange, result.RoutingKey, result.Priority, result.Delay)
			}

			return err
		},
	}

	cmd.Flags().StringVarP(&flags.worker, workerFlag, "w", "", workerFlagUsage())
	cmd.Flags().StringVarP(&flags.data, "data", "d", "{}", "job payload as a JSON object")
	cmd.Flags().DurationVar(&flags.delay, "delay", 0, "delay before the job is routed, delay bound workers only")
	cmd.Flags().Uint8Var(&flags.priority, "priority", 0, "priority overriding the worker default")
	cmd.Flags().IntVar(&flags.count, "count", 1, "number of messages to publish")
	_ = cmd.MarkFlagRequired(workerFlag)

	return cmd
}

// request only carries delay and priority when they were given explicitly.
func (f *publishFlags) request(cmd *cobra.Command) (runtime.PublishRequest, error) {
	if f.count < 1 {
		return runtime.PublishRequest{}, fmt.Errorf("invalid --count %d: must be at least 1", f.count)
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(f.data), &payload); err != nil {
		return runtime.PublishRequest{}, fmt.Errorf("invalid --data: %w", err)
	}

	req := runtime.PublishRequest{
		Worker:  f.worker,
		Payload: payload,
		Count:   f.count,
	}

	if cmd.Flags().Changed("delay") {
		if f.delay < 0 {
			return runtime.PublishRequest{}, fmt.Errorf("invalid --delay %s: must not be negative", f.delay)
		}

		req.Delay = &f.delay
	}

	if cmd.Flags().Changed("priority") {
		req.Priority = &f.priority
	}

	return req, nil
}

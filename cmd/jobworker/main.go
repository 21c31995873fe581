package main

import (
	"context"
	"fmt"
	"os"

	"github.com/architeacher/svc-job-worker/internal/cmd"
)

func main() {
	if err := cmd.NewRoot().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		os.Exit(1)
	}
}

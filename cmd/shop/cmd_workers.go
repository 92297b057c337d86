package main

import (
	"context"
	"fmt"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fakush/CoderHouse-Backend-EntregaFinal/config"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/app"
)

var queueWorkersFlag int

// shop queue:work
var queueWorkCmd = &cobra.Command{
	Use:   "queue:work",
	Short: "Run queue workers until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		flushLogs := app.SetupLogging(ctx, cfg)
		defer flushLogs(context.Background()) //nolint:errcheck

		a, err := app.New(ctx, cfg)
		if err != nil {
			return err
		}
		defer a.Close(context.Background()) //nolint:errcheck

		workers := queueWorkersFlag
		if workers < 1 {
			workers = cfg.QueueWorkers
		}
		if cfg.QueueDriver != "redis" {
			fmt.Fprintln(cmd.ErrOrStderr(), "warning: QUEUE_DRIVER is not redis, this process only sees jobs it dispatches itself")
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Queue worker started (%d workers). Press Ctrl+C to stop.\n", workers)

		var wg sync.WaitGroup
		for _, r := range a.WorkerRunners(workers) {
			wg.Add(1)
			go func(r app.Runner) {
				defer wg.Done()
				r.Run(ctx)
			}(r)
		}
		wg.Wait()
		fmt.Fprintln(cmd.OutOrStdout(), "Queue worker stopped.")
		return nil
	},
}

func init() {
	queueWorkCmd.Flags().IntVarP(&queueWorkersFlag, "workers", "w", 0, "Number of concurrent workers (default QUEUE_WORKERS)")
}

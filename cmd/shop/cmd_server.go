package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"sort"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/fakush/CoderHouse-Backend-EntregaFinal/app/routes"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/config"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/internal/kernel"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/internal/server"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/app"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/router"
)

var serveWithoutWorkers bool

// shop serve
var serveCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"run", "start"},
	Short:   "Start the HTTP and gRPC servers with the background workers",
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

		return server.Run(ctx, server.Options{
			HTTPPort: cfg.AppPort,
			GRPCPort: cfg.GRPCPort,
			Handler:  a.Handler(),
			Probe:    a.Ping,
			Runners:  a.Runners(!serveWithoutWorkers),
		})
	},
}

// shop route:list
var routeListCmd = &cobra.Command{
	Use:   "route:list",
	Short: "List every named route",
	RunE: func(cmd *cobra.Command, args []string) error {
		// Handlers are never invoked here, so the routes can be registered
		// against empty controllers.
		deps := routes.Deps{ChatWS: http.NotFound, Files: http.NotFoundHandler()}
		r := kernel.NewHTTPKernel(kernel.Options{
			Routes: []func(*router.Router){func(r *router.Router) { routes.RegisterAPI(r, deps) }},
		})

		infos := r.Routes()
		sort.Slice(infos, func(i, j int) bool {
			if infos[i].Path != infos[j].Path {
				return infos[i].Path < infos[j].Path
			}
			return infos[i].Method < infos[j].Method
		})

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "METHOD\tPATH\tNAME")
		fmt.Fprintln(w, "------\t----\t----")
		for _, ri := range infos {
			fmt.Fprintf(w, "%s\t%s\t%s\n", ri.Method, ri.Path, ri.Name)
		}
		return w.Flush()
	},
}

func init() {
	serveCmd.Flags().BoolVar(&serveWithoutWorkers, "no-workers", false, "Do not run queue workers in this process")
}

// Command shop runs the storefront backend and its maintenance tasks.
//
//	shop serve             # HTTP + gRPC + queue workers + scheduler
//	shop migrate           # apply pending migrations
//	shop migrate:rollback
//	shop migrate:status
//	shop seed              # sample catalog and the default admin
//	shop queue:work        # standalone queue workers
//	shop route:list
//	shop user:admin alice [--revoke]
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	_ "github.com/fakush/CoderHouse-Backend-EntregaFinal/database/migrations"
	_ "github.com/fakush/CoderHouse-Backend-EntregaFinal/database/seeders"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "shop",
	Short:         "Storefront backend",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(routeListCmd)

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(migrateRollbackCmd)
	rootCmd.AddCommand(migrateStatusCmd)
	rootCmd.AddCommand(seedCmd)

	rootCmd.AddCommand(queueWorkCmd)
	rootCmd.AddCommand(userAdminCmd)
}

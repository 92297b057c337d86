package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/fakush/CoderHouse-Backend-EntregaFinal/app/repositories"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/database"
)

var revokeAdmin bool

// shop user:admin <username>
var userAdminCmd = &cobra.Command{
	Use:   "user:admin <username>",
	Short: "Grant (or with --revoke, remove) administrator rights",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := bootDB()
		if err != nil {
			return err
		}
		defer database.Close(db) //nolint:errcheck
		return setAdmin(cmd, db, args[0], !revokeAdmin)
	},
}

func setAdmin(cmd *cobra.Command, db *gorm.DB, username string, admin bool) error {
	if err := repositories.NewUserRepository(db).SetAdmin(cmd.Context(), username, admin); err != nil {
		return err
	}
	if admin {
		fmt.Fprintf(cmd.OutOrStdout(), "%s is now an administrator.\n", username)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "%s is no longer an administrator.\n", username)
	}
	return nil
}

func init() {
	userAdminCmd.Flags().BoolVar(&revokeAdmin, "revoke", false, "Remove administrator rights instead")
}

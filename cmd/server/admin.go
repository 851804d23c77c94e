package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iliyamo/cinema-booking/internal/config"
	"github.com/iliyamo/cinema-booking/internal/database"
	"github.com/iliyamo/cinema-booking/internal/model"
	"github.com/iliyamo/cinema-booking/internal/repository"
	"github.com/iliyamo/cinema-booking/internal/utils"
)

// newAdminCmd creates ADMIN accounts.  The HTTP API only registers
// customers.
func newAdminCmd() *cobra.Command {
	var email, password string
	var cost int
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Create an administrator account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if email == "" || len(password) < 8 {
				return fmt.Errorf("--email and a --password of at least 8 characters are required")
			}
			dbCfg, err := config.LoadDatabaseConfig()
			if err != nil {
				return err
			}
			db, err := database.Open(cmd.Context(), dbCfg)
			if err != nil {
				return err
			}
			defer db.Close()

			hash, err := utils.HashPassword(password, cost)
			if err != nil {
				return err
			}
			id, err := repository.NewUserRepo(db).Create(cmd.Context(), email, hash, model.RoleAdmin)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "admin %s created with id %d\n", repository.NormalizeEmail(email), id)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	cmd.Flags().IntVar(&cost, "bcrypt-cost", 0, "bcrypt cost (default when out of range)")
	return cmd
}

package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/iliyamo/cinema-booking/internal/config"
	"github.com/iliyamo/cinema-booking/internal/database"
	"github.com/iliyamo/cinema-booking/internal/logger"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			log := logger.Must(config.LogSettings())
			defer func() { _ = log.Sync() }()

			dbCfg, err := config.LoadDatabaseConfig()
			if err != nil {
				return err
			}
			db, err := database.Open(cmd.Context(), dbCfg)
			if err != nil {
				return err
			}
			defer db.Close()
			if err := database.Migrate(cmd.Context(), db); err != nil {
				log.Error("migration failed", zap.Error(err))
				return err
			}
			log.Info("schema up to date", zap.String("database", dbCfg.Name))
			return nil
		},
	}
}

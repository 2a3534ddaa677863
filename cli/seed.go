package cli

import (
	"fmt"

	"Gin_postgres_redis_library/db"
	"Gin_postgres_redis_library/seed"

	"github.com/spf13/cobra"
)

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load the demo catalog (authors, books, covers)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log := loadConfig()
			conn, err := db.Open(cfg)
			if err != nil {
				return err
			}
			if sqlDB, err := conn.DB(); err == nil {
				defer sqlDB.Close()
			}

			res, err := seed.Run(cmd.Context(), db.NewRepo(conn), log)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "authors created: %d, books created: %d, covers updated: %d\n",
				res.AuthorsCreated, res.BooksCreated, res.CoversUpdated)
			return nil
		},
	}
}

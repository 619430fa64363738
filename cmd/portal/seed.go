package main

import (
	"fmt"

	"github.com/RigelNana/vitalicio/config"
	"github.com/RigelNana/vitalicio/database"
	"github.com/RigelNana/vitalicio/repository"
	"github.com/spf13/cobra"
)

var cmdSeed = &cobra.Command{
	Use:   "seed",
	Short: "Insert the starter catalog when the materials table is empty",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		logger := newLogger(cfg.Log.Level)

		db, err := database.InitDB(&cfg.Database)
		if err != nil {
			return err
		}
		if err := database.AutoMigrate(db); err != nil {
			return err
		}
		n, err := database.Seed(cmd.Context(), repository.NewMaterialRepository(db))
		if err != nil {
			return fmt.Errorf("seed: %w", err)
		}
		logger.WithField("inserted", n).Info("seed finished")
		return nil
	},
}

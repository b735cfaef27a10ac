package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/config"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/internal/database"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/internal/domain"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/internal/repository"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/internal/service"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	repairRows bool
	seedFile   string
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, logger, db, err := bootstrap()
		if err != nil {
			return err
		}
		defer logger.Sync()
		if err := database.AutoMigrate(db); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		logger.Info("schema migrated", zap.String("driver", cfg.Database.Driver))
		if !repairRows {
			return nil
		}
		settings := service.NewSettingsService(repository.NewSettingRepository(db))
		report, err := database.Repair(db,
			settings.String(domain.ConfigComplaintIDPrefix, "KSC"),
			settings.Int(domain.ConfigComplaintIDStart, 1),
			settings.Int(domain.ConfigComplaintIDLength, 4),
			settings.Int(domain.ConfigDefaultSLAHours, cfg.SLA.DefaultHours))
		if err != nil {
			return fmt.Errorf("repair: %w", err)
		}
		return json.NewEncoder(cmd.OutOrStdout()).Encode(report)
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert default settings, the administrator and optional YAML seed data",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, logger, db, err := bootstrap()
		if err != nil {
			return err
		}
		defer logger.Sync()
		if err := database.AutoMigrate(db); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		n, err := database.SeedConfig(db, database.DefaultSystemConfig)
		if err != nil {
			return fmt.Errorf("seed config: %w", err)
		}
		logger.Info("system config seeded", zap.Int("created", n))
		if cfg.Admin.Password != "" {
			created, err := database.SeedAdmin(db, cfg.Admin.Email, cfg.Admin.Password, cfg.Admin.FullName)
			if err != nil {
				return fmt.Errorf("seed admin: %w", err)
			}
			logger.Info("administrator checked", zap.String("email", cfg.Admin.Email), zap.Bool("created", created))
		}
		if seedFile == "" {
			return nil
		}
		f, err := database.LoadSeedFile(seedFile)
		if err != nil {
			return err
		}
		if err := database.Seed(db, f); err != nil {
			return fmt.Errorf("seed %s: %w", seedFile, err)
		}
		logger.Info("seed file applied", zap.String("file", seedFile),
			zap.Int("complaint_types", len(f.ComplaintTypes)), zap.Int("wards", len(f.Wards)))
		return nil
	},
}

var checkEnvCmd = &cobra.Command{
	Use:   "check-env",
	Short: "Validate the environment configuration",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg := config.Load()
		errs := cfg.Validate()
		out := cmd.OutOrStdout()
		if len(errs) > 0 {
			for _, e := range errs {
				fmt.Fprintln(out, "-", e)
			}
			return errors.New("configuration is invalid")
		}
		db, err := database.NewDB(&cfg.Database)
		if err != nil {
			return fmt.Errorf("database: %w", err)
		}
		if err := database.Ping(db); err != nil {
			return fmt.Errorf("database ping: %w", err)
		}
		fmt.Fprintf(out, "configuration ok (env=%s, database=%s, storage=%s)\n",
			cfg.Server.Env, cfg.Database.Driver, cfg.Storage.Backend)
		return nil
	},
}

func init() {
	migrateCmd.Flags().BoolVar(&repairRows, "repair", false, "Normalise legacy statuses, backfill codes and deadlines")
	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "", "YAML seed file with wards and complaint types")
}

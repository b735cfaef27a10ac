package main

import (
	"fmt"
	"os"

	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/config"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/internal/database"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/internal/logging"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

var rootCmd = &cobra.Command{
	Use:           "cms",
	Short:         "Complaint management API server",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd, seedCmd, checkEnvCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// bootstrap loads configuration, the logger and the database shared by
// every subcommand.
func bootstrap() (*config.Config, *zap.Logger, *gorm.DB, error) {
	cfg := config.Load()
	logger, err := logging.New(cfg.Server.Env)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("logger: %w", err)
	}
	db, err := database.NewDB(&cfg.Database)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("database: %w", err)
	}
	return cfg, logger, db, nil
}

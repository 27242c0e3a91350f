// Package commands implements the identhub CLI.
package commands

import (
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"identhub/internal/platform/config"
	"identhub/internal/platform/logger"
)

var (
	cfg config.Config
	log *slog.Logger

	envFile  string
	logLevel string
)

func Execute() error {
	root := &cobra.Command{
		Use:          "identhub",
		Short:        "Headless host for identification sessions",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := godotenv.Load(envFile); err != nil {
				slog.Debug("no env file loaded", "path", envFile, "error", err)
			}
			cfg = config.FromEnv()
			if logLevel != "" {
				cfg.Server.LogLevel = logLevel
			}
			log = logger.New(cfg.Server.LogLevel, cfg.Server.LogFormat)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "overrides IDENTHUB_LOG_LEVEL")

	root.AddCommand(serveCmd(), sessionCmd())
	return root.Execute()
}

package main

import (
	"context"
	"fmt"
	"os"

	"taskboard/internal/config"
	"taskboard/internal/logger"
	"taskboard/internal/service"

	"github.com/spf13/cobra"
)

var flagConfig string

func main() {
	rootCmd := &cobra.Command{
		Use:           "taskboard",
		Short:         "Personal task board server and client",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "YAML config file (env and .env are always read)")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(bootstrapCmd())
	rootCmd.AddCommand(tokenCmd())
	rootCmd.AddCommand(boardCmd())

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, red("error:"), err)
		os.Exit(1)
	}
}

// loadConfig reads the configuration and sets up logging and tokens.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, err
	}
	logger.Setup(os.Stdout, logger.Options{Level: cfg.LogLevel, JSON: cfg.LogJSON, Version: cfg.AppVersion})
	service.InitJWT(cfg.JWTSecret, cfg.JWTTTL)
	return cfg, nil
}

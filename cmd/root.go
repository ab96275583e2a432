package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lavai-rg/telegram-automation/config"
	"github.com/lavai-rg/telegram-automation/logger"
)

var rootCmd = &cobra.Command{
	Use:   "musicarchiver",
	Short: "Scrapes and organizes a Telegram music channel into a searchable archive.",
}

// loadConfig prepares configuration and logging for every subcommand.
func loadConfig() *config.Config {
	cfg := config.Load()
	logger.Init(logger.Config{
		Level:      cfg.LogLevel,
		OutputPath: cfg.LogPath,
		MaxSize:    50,
		MaxBackups: 5,
		MaxAge:     30,
		Compress:   true,
	})
	return cfg
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

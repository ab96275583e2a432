package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lavai-rg/telegram-automation/cache"
	"github.com/lavai-rg/telegram-automation/db"
	"github.com/lavai-rg/telegram-automation/logger"
	"github.com/lavai-rg/telegram-automation/model"
	"github.com/lavai-rg/telegram-automation/repository"
	"github.com/lavai-rg/telegram-automation/server"
)

var serverAddr string

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Serve the archive dashboard",
	Long: `Server exposes archive statistics, track listings and a live progress
feed for running scans over HTTP and a websocket.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		if serverAddr != "" {
			cfg.DashboardAddr = serverAddr
		}

		gdb, err := db.Connect(cfg)
		if err != nil {
			return fmt.Errorf("failed to connect to tracker database: %w", err)
		}
		defer db.Close(gdb)
		if err := db.AutoMigrate(gdb, &model.TrackItem{}, &model.ScanCheckpoint{}); err != nil {
			return err
		}

		redisClient, err := db.ConnectRedis(cfg)
		if err != nil {
			logger.Warn("redis unavailable, progress feed disabled", logger.ErrorField(err))
			redisClient = nil
		}

		srv := server.New(cfg.DashboardAddr,
			repository.NewMySQLTrackRepository(gdb),
			cache.NewProgressCache(redisClient))

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return srv.Run(ctx)
	},
}

func init() {
	serverCmd.Flags().StringVarP(&serverAddr, "addr", "a", "", "listen address (defaults to DASHBOARD_ADDR)")
	rootCmd.AddCommand(serverCmd)
}

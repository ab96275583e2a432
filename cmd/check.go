package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lavai-rg/telegram-automation/db"
	"github.com/lavai-rg/telegram-automation/storage"
)

// checkCmd verifies that the configured backing services are reachable
// before a long scan is started.
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify connectivity to the tracker database, Redis and MinIO",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		failed := 0

		gdb, err := db.Connect(cfg)
		if err != nil {
			fmt.Printf("mysql   FAIL  %v\n", err)
			failed++
		} else {
			fmt.Printf("mysql   OK    %s:%s/%s\n", cfg.DBHost, cfg.DBPort, cfg.DBName)
			db.Close(gdb)
		}

		redisClient, err := db.ConnectRedis(cfg)
		if err != nil {
			fmt.Printf("redis   FAIL  %v\n", err)
			failed++
		} else {
			fmt.Printf("redis   OK    %s:%s\n", cfg.RedisHost, cfg.RedisPort)
			redisClient.Close()
		}

		if cfg.MinioAccessKey == "" {
			fmt.Println("minio   SKIP  not configured")
		} else if _, err := storage.NewMinioStorage(cfg); err != nil {
			fmt.Printf("minio   FAIL  %v\n", err)
			failed++
		} else {
			fmt.Printf("minio   OK    %s/%s\n", cfg.MinioEndpoint, cfg.MinioBucket)
		}

		if failed > 0 {
			return fmt.Errorf("%d service(s) unreachable", failed)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

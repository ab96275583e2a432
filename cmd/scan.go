package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/lavai-rg/telegram-automation/cache"
	"github.com/lavai-rg/telegram-automation/config"
	"github.com/lavai-rg/telegram-automation/core/metadata"
	"github.com/lavai-rg/telegram-automation/core/scan"
	"github.com/lavai-rg/telegram-automation/core/sink"
	"github.com/lavai-rg/telegram-automation/core/telegram"
	"github.com/lavai-rg/telegram-automation/core/utils"
	"github.com/lavai-rg/telegram-automation/db"
	"github.com/lavai-rg/telegram-automation/logger"
	"github.com/lavai-rg/telegram-automation/model"
	"github.com/lavai-rg/telegram-automation/repository"
	"github.com/lavai-rg/telegram-automation/storage"
)

var (
	scanProfile   string
	scanChannel   string
	scanExportDir string
	scanResume    bool
	scanNoUpload  bool
	scanNoForward bool
	scanMax       int
	scanBatchSize int
	scanDelaySec  float64
	scanStartDate string
	scanEndDate   string
	scanDownload  bool
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan the channel history and run items through the pipeline",
	Long: `Scan iterates the channel history, classifies audio messages, parses
caption metadata, downloads and organizes the files and pushes each track
through the configured sinks (cloud storage, record sync, private channel).
Progress is checkpointed per batch so an interrupted run can resume.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		return runScan(cmd.Context(), cfg)
	},
}

func init() {
	scanCmd.Flags().StringVarP(&scanProfile, "profile", "p", "complete",
		"scan profile: "+strings.Join(scan.ProfileNames(), ", ")+", or custom")
	scanCmd.Flags().StringVarP(&scanChannel, "channel", "c", "", "source channel (defaults to SOURCE_CHANNEL)")
	scanCmd.Flags().StringVar(&scanExportDir, "export-dir", "export", "directory holding the channel export (result.json)")
	scanCmd.Flags().BoolVar(&scanResume, "resume", false, "resume from the stored checkpoint")
	scanCmd.Flags().BoolVar(&scanNoUpload, "no-upload", false, "skip cloud and record sinks")
	scanCmd.Flags().BoolVar(&scanNoForward, "no-forward", false, "skip forwarding to the private channel")
	scanCmd.Flags().IntVar(&scanMax, "max-messages", 0, "custom profile: message cap, 0 = unlimited")
	scanCmd.Flags().IntVar(&scanBatchSize, "batch-size", 100, "custom profile: items per batch")
	scanCmd.Flags().Float64Var(&scanDelaySec, "delay", 3, "custom profile: seconds between batches")
	scanCmd.Flags().StringVar(&scanStartDate, "start-date", "", "custom profile: ignore messages before this date (YYYY-MM-DD)")
	scanCmd.Flags().StringVar(&scanEndDate, "end-date", "", "custom profile: ignore messages after this date (YYYY-MM-DD)")
	scanCmd.Flags().BoolVar(&scanDownload, "download", true, "custom profile: download files (false keeps the scan metadata-only)")
	rootCmd.AddCommand(scanCmd)
}

func runScan(ctx context.Context, cfg *config.Config) error {
	profile, err := resolveProfile()
	if err != nil {
		return err
	}

	channel := scanChannel
	if channel == "" {
		channel = cfg.SourceChannel
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
		logger.Warn("redis unavailable, live progress disabled", logger.ErrorField(err))
		redisClient = nil
	}
	progress := cache.NewProgressCache(redisClient)

	if err := utils.EnsureDir(cfg.RawDir); err != nil {
		return err
	}
	if err := utils.EnsureDir(cfg.OrganizedDir); err != nil {
		return err
	}

	source := telegram.NewExportSource(scanExportDir)

	dispatchers, err := buildDispatchers(cfg, source)
	if err != nil {
		return err
	}

	driver := scan.NewDriver(
		source,
		metadata.NewID3Reader(),
		repository.NewMySQLTrackRepository(gdb),
		repository.NewMySQLCheckpointRepository(gdb),
		dispatchers,
		progress,
		scan.Options{
			Channel:         channel,
			Profile:         profile,
			Resume:          scanResume,
			SideFolders:     cfg.CreateSideFolders,
			RawDir:          cfg.RawDir,
			OrganizedDir:    cfg.OrganizedDir,
			Workers:         cfg.MaxConcurrent,
			DownloadTimeout: time.Duration(cfg.DownloadTimeoutSec) * time.Second,
			ProgressEvery:   cfg.ProgressEvery,
		},
	)

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, runErr := driver.Run(runCtx)
	printSummary(summary)

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	return nil
}

func resolveProfile() (scan.Profile, error) {
	if scanProfile != "custom" {
		profile, ok := scan.ProfileByName(scanProfile)
		if !ok {
			return scan.Profile{}, fmt.Errorf("unknown profile %q (want one of %s, custom)",
				scanProfile, strings.Join(scan.ProfileNames(), ", "))
		}
		return profile, nil
	}

	var start, end time.Time
	var err error
	if scanStartDate != "" {
		if start, err = time.Parse("2006-01-02", scanStartDate); err != nil {
			return scan.Profile{}, fmt.Errorf("invalid --start-date: %w", err)
		}
	}
	if scanEndDate != "" {
		if end, err = time.Parse("2006-01-02", scanEndDate); err != nil {
			return scan.Profile{}, fmt.Errorf("invalid --end-date: %w", err)
		}
	}
	delay := time.Duration(scanDelaySec * float64(time.Second))
	return scan.CustomProfile(scanMax, scanBatchSize, delay, start, end, scanDownload), nil
}

// buildDispatchers wires the sink chain in pipeline order. Sinks whose
// configuration is absent are skipped rather than failing the scan.
func buildDispatchers(cfg *config.Config, source telegram.MessageSource) ([]sink.Dispatcher, error) {
	var dispatchers []sink.Dispatcher

	if !scanNoUpload {
		if cfg.MinioAccessKey != "" {
			store, err := storage.NewMinioStorage(cfg)
			if err != nil {
				return nil, fmt.Errorf("failed to initialize cloud storage: %w", err)
			}
			dispatchers = append(dispatchers, sink.NewCloudDispatcher(store, cfg.OrganizedDir))
		} else {
			logger.Warn("cloud storage not configured, skipping upload sink")
		}

		if cfg.SyncAPIBaseURL != "" {
			client := sink.NewRecordClient(cfg.SyncAPIBaseURL, cfg.SyncAPIKey, cfg.SyncAPITable)
			dispatchers = append(dispatchers, sink.NewRecordDispatcher(client))
		} else {
			logger.Warn("record sync not configured, skipping sync sink")
		}
	}

	if !scanNoForward {
		if cfg.PrivateChannelID != "" {
			dispatchers = append(dispatchers, sink.NewForwardDispatcher(source, cfg.PrivateChannelID))
		} else {
			logger.Warn("private channel not configured, skipping forward sink")
		}
	}

	return dispatchers, nil
}

func printSummary(summary *scan.Summary) {
	fmt.Printf("\nScan %s finished in %s\n", summary.RunID, summary.Duration.Round(time.Second))
	fmt.Printf("  scanned:  %d messages\n", summary.Scanned)
	fmt.Printf("  audio:    %d items\n", summary.Audio)
	for _, status := range model.AllStatuses {
		if n := summary.Counts[status]; n > 0 {
			fmt.Printf("  %-9s %d\n", status+":", n)
		}
	}
}

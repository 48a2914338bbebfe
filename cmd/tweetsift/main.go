package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/subosito/gotenv"

	"github.com/iconidentify/tweetsift/internal/config"
	"github.com/iconidentify/tweetsift/internal/convert"
	"github.com/iconidentify/tweetsift/internal/index"
	"github.com/iconidentify/tweetsift/internal/logging"
	"github.com/iconidentify/tweetsift/internal/scheduler"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "", "Path to config file")
	envFile := flag.String("env", ".env", "Path to .env file")
	recordsDir := flag.String("records", "", "Directory of scraped post JSON files")
	csvPath := flag.String("csv", "", "Tabular output path (overrides config)")
	mediaMapPath := flag.String("media-map", "", "Media mapping output path (overrides config)")
	indexPath := flag.String("index", "", "SQLite archive index path (overrides config)")
	watch := flag.String("watch", "", "Cron schedule for periodic re-conversion (overrides config)")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("tweetsift %s (built %s)\n", Version, BuildTime)
		os.Exit(0)
	}

	if err := gotenv.Load(*envFile); err != nil {
		// Not an error: OS environment alone is fine.
		if *envFile != ".env" {
			fmt.Fprintf(os.Stderr, "Warning: could not load %s: %v\n", *envFile, err)
		}
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: load config: %v\n", err)
		os.Exit(1)
	}
	applyFlags(cfg, *recordsDir, *csvPath, *mediaMapPath, *indexPath, *watch)

	logger := logging.New(cfg.Log.Level)
	logger.Info("tweetsift", "version", Version, "records_dir", cfg.Convert.RecordsDir)

	if cfg.Convert.RecordsDir == "" {
		fmt.Fprintln(os.Stderr, "Error: --records (or RECORDS_DIR) is required")
		flag.PrintDefaults()
		os.Exit(1)
	}
	if _, err := os.Stat(cfg.Convert.RecordsDir); os.IsNotExist(err) {
		logger.Error("records directory does not exist", "path", cfg.Convert.RecordsDir)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := runConvert(ctx, cfg, logger); err != nil {
		if ctx.Err() != nil {
			logger.Info("conversion cancelled")
			os.Exit(130)
		}
		logger.Error("conversion failed", "error", err)
		os.Exit(1)
	}

	if cfg.Convert.Schedule == "" {
		return
	}

	// Watch mode: re-run on the configured cron schedule until signalled.
	sched := scheduler.New(logger)
	if err := sched.AddJob("convert", cfg.Convert.Schedule, func(jobCtx context.Context) error {
		return runConvert(jobCtx, cfg, logger)
	}); err != nil {
		logger.Error("invalid schedule", "error", err)
		os.Exit(1)
	}
	sched.Start()
	<-ctx.Done()
	sched.Stop()
	logger.Info("watch mode stopped")
}

func applyFlags(cfg *config.Config, recordsDir, csvPath, mediaMapPath, indexPath, watch string) {
	if recordsDir != "" {
		cfg.Convert.RecordsDir = recordsDir
	}
	if csvPath != "" {
		cfg.Convert.CSVPath = csvPath
	}
	if mediaMapPath != "" {
		cfg.Convert.MediaMapPath = mediaMapPath
	}
	if indexPath != "" {
		cfg.Index.Path = indexPath
	}
	if watch != "" {
		cfg.Convert.Schedule = watch
	}
}

func runConvert(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	converter := convert.New(logger)
	res, err := converter.Run(ctx, convert.Options{
		RecordsDir:   cfg.Convert.RecordsDir,
		CSVPath:      cfg.Convert.CSVPath,
		MediaMapPath: cfg.Convert.MediaMapPath,
		MaxSkips:     cfg.Convert.MaxSkips,
	})
	if err != nil {
		return err
	}

	if cfg.Index.Path != "" {
		store, err := index.Open(cfg.Index.Path)
		if err != nil {
			return fmt.Errorf("open index: %w", err)
		}
		defer store.Close()
		if err := store.SaveRun(ctx, res); err != nil {
			return fmt.Errorf("index run: %w", err)
		}
		logger.Info("run indexed", "run_id", res.RunID, "path", cfg.Index.Path)
	}

	fmt.Println()
	fmt.Println("Conversion Complete!")
	fmt.Println("--------------------")
	fmt.Printf("Records seen:  %d\n", res.Records)
	fmt.Printf("Rows written:  %d\n", len(res.Rows))
	fmt.Printf("Skipped:       %d\n", res.Skipped)
	fmt.Printf("Media posts:   %d\n", len(res.MediaMap))
	fmt.Printf("Table:         %s\n", cfg.Convert.CSVPath)
	if cfg.Convert.MediaMapPath != "" {
		fmt.Printf("Media map:     %s\n", cfg.Convert.MediaMapPath)
	}
	return nil
}

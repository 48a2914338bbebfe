package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/subosito/gotenv"

	"github.com/iconidentify/tweetsift/internal/api"
	"github.com/iconidentify/tweetsift/internal/config"
	"github.com/iconidentify/tweetsift/internal/index"
	"github.com/iconidentify/tweetsift/internal/logging"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	configPath := flag.String("config", "", "Path to config file")
	indexPath := flag.String("index", "", "SQLite archive index path (overrides config)")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("tweetsift-viewer %s (built %s)\n", Version, BuildTime)
		os.Exit(0)
	}

	_ = gotenv.Load(".env")

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: load config: %v\n", err)
		os.Exit(1)
	}
	if *indexPath != "" {
		cfg.Index.Path = *indexPath
	}

	logger := logging.New(cfg.Log.Level)

	if cfg.Index.Path == "" {
		fmt.Fprintln(os.Stderr, "Error: --index (or INDEX_PATH) is required")
		os.Exit(1)
	}

	store, err := index.Open(cfg.Index.Path)
	if err != nil {
		logger.Error("failed to open index", "path", cfg.Index.Path, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	handler := api.NewHandler(store, logger)
	srv := &http.Server{
		Addr:         cfg.Viewer.Address(),
		Handler:      api.NewRouter(handler),
		ReadTimeout:  cfg.Viewer.ReadTimeout,
		WriteTimeout: cfg.Viewer.WriteTimeout,
	}

	go func() {
		logger.Info("viewer listening", "addr", srv.Addr, "index", cfg.Index.Path)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
	logger.Info("viewer stopped")
}

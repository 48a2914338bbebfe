package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/iconidentify/tweetsift/internal/logging"
	"github.com/iconidentify/tweetsift/internal/validate"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	mapPath := flag.String("media-map", "", "Media mapping JSON produced by tweetsift (required)")
	mediaDir := flag.String("media-dir", "", "Directory of downloaded media files (required)")
	urlList := flag.String("url-list", "", "Write canonical fetch URLs for missing images here")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("mediacheck %s (built %s)\n", Version, BuildTime)
		os.Exit(0)
	}

	if *mapPath == "" || *mediaDir == "" {
		fmt.Fprintln(os.Stderr, "Error: --media-map and --media-dir are required")
		flag.PrintDefaults()
		os.Exit(1)
	}

	logger := logging.New(*logLevel)

	report, err := validate.MissingMedia(logger, *mapPath, *mediaDir, *urlList)
	if err != nil {
		logger.Error("media check failed", "error", err)
		os.Exit(1)
	}

	fmt.Printf("Referenced images: %d\n", report.Referenced)
	fmt.Printf("Present locally:   %d\n", report.Present)
	fmt.Printf("Missing:           %d\n", len(report.Missing))
	if *urlList != "" && len(report.Missing) > 0 {
		fmt.Printf("Fetch URL list:    %s\n", *urlList)
	}

	if len(report.Missing) > 0 {
		os.Exit(2)
	}
}

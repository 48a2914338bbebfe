package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/iconidentify/tweetsift/internal/validate"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	csvPath := flag.String("csv", "", "Row table produced by tweetsift (required)")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("daygaps %s (built %s)\n", Version, BuildTime)
		os.Exit(0)
	}

	if *csvPath == "" {
		fmt.Fprintln(os.Stderr, "Error: --csv is required")
		flag.PrintDefaults()
		os.Exit(1)
	}

	gaps, err := validate.DayGaps(*csvPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if len(gaps) == 0 {
		fmt.Println("No gap days in the post timeline.")
		return
	}

	fmt.Printf("%d gap day(s) with zero posts:\n", len(gaps))
	for _, day := range gaps {
		fmt.Println(day.Format("2006-01-02"))
	}
	os.Exit(2)
}

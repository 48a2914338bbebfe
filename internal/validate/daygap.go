package validate

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"time"
)

const csvTimeLayout = "2006-01-02T15:04:05-07:00"

// DayGaps reads the converted row table and returns every calendar day
// between the earliest and latest post (inclusive) that has zero posts.
// Days are returned in order as midnight-UTC times.
func DayGaps(csvPath string) ([]time.Time, error) {
	f, err := os.Open(csvPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	createdCol := -1
	for i, name := range header {
		if name == "created_at" {
			createdCol = i
			break
		}
	}
	if createdCol < 0 {
		return nil, fmt.Errorf("no created_at column in %s", csvPath)
	}

	days := make(map[time.Time]struct{})
	var minDay, maxDay time.Time
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		ts, err := time.Parse(csvTimeLayout, rec[createdCol])
		if err != nil {
			return nil, fmt.Errorf("parse created_at %q: %w", rec[createdCol], err)
		}
		ts = ts.UTC()
		day := time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)
		days[day] = struct{}{}
		if minDay.IsZero() || day.Before(minDay) {
			minDay = day
		}
		if day.After(maxDay) {
			maxDay = day
		}
	}

	if len(days) == 0 {
		return nil, nil
	}

	var gaps []time.Time
	for day := minDay; !day.After(maxDay); day = day.AddDate(0, 0, 1) {
		if _, ok := days[day]; !ok {
			gaps = append(gaps, day)
		}
	}
	return gaps, nil
}

package scheduler

import (
	"context"
	"io"
	"log/slog"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestAddJob_InvalidSchedule(t *testing.T) {
	s := New(testLogger())

	err := s.AddJob("convert", "not a cron spec", func(ctx context.Context) error { return nil })
	if err == nil {
		t.Error("expected error for invalid cron spec")
	}
}

func TestAddJob_ValidSchedules(t *testing.T) {
	s := New(testLogger())

	specs := []string{"0 7 * * *", "*/5 * * * *", "@hourly"}
	for _, spec := range specs {
		if err := s.AddJob("job-"+spec, spec, func(ctx context.Context) error { return nil }); err != nil {
			t.Errorf("AddJob(%q) returned error: %v", spec, err)
		}
	}

	s.Start()
	s.Stop()
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Convert.CSVPath != "tweets.csv" {
		t.Errorf("CSVPath = %q, want tweets.csv", cfg.Convert.CSVPath)
	}
	if cfg.Convert.MaxSkips != 10 {
		t.Errorf("MaxSkips = %d, want 10", cfg.Convert.MaxSkips)
	}
	if cfg.Viewer.Port != 8750 {
		t.Errorf("Viewer.Port = %d, want 8750", cfg.Viewer.Port)
	}
	if cfg.Viewer.ReadTimeout != 30*time.Second {
		t.Errorf("ReadTimeout = %v, want 30s", cfg.Viewer.ReadTimeout)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %q, want info", cfg.Log.Level)
	}
}

func TestLoad_FromYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	yaml := `
convert:
  records_dir: /data/tweets
  csv_path: /data/out/tweets.csv
  max_skips: 3
index:
  path: /data/archive.db
viewer:
  port: 9000
log:
  level: debug
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Convert.RecordsDir != "/data/tweets" {
		t.Errorf("RecordsDir = %q", cfg.Convert.RecordsDir)
	}
	if cfg.Convert.MaxSkips != 3 {
		t.Errorf("MaxSkips = %d, want 3", cfg.Convert.MaxSkips)
	}
	if cfg.Index.Path != "/data/archive.db" {
		t.Errorf("Index.Path = %q", cfg.Index.Path)
	}
	if cfg.Viewer.Port != 9000 {
		t.Errorf("Viewer.Port = %d, want 9000", cfg.Viewer.Port)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want debug", cfg.Log.Level)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("convert:\n  csv_path: from-file.csv\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("CSV_PATH", "from-env.csv")
	t.Setenv("MAX_SKIPS", "7")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Convert.CSVPath != "from-env.csv" {
		t.Errorf("CSVPath = %q, environment must win", cfg.Convert.CSVPath)
	}
	if cfg.Convert.MaxSkips != 7 {
		t.Errorf("MaxSkips = %d, want 7", cfg.Convert.MaxSkips)
	}
}

func TestLoad_InvalidPort(t *testing.T) {
	t.Setenv("VIEWER_PORT", "70000")

	if _, err := Load(""); err == nil {
		t.Error("expected validation error for out-of-range port")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestViewerConfig_Address(t *testing.T) {
	c := ViewerConfig{Host: "127.0.0.1", Port: 8750}
	if got := c.Address(); got != "127.0.0.1:8750" {
		t.Errorf("Address = %q, want 127.0.0.1:8750", got)
	}
}

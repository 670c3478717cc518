package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing-config.yaml"))
	t.Setenv("TIMEZONE", "UTC")

	cfg := LoadConfig()

	if cfg.DBPath != "./qft_history.db" {
		t.Fatalf("unexpected db path default: %q", cfg.DBPath)
	}
	if cfg.AuditLogPath != "./qft_interpreter_log.csv" {
		t.Fatalf("unexpected audit log default: %q", cfg.AuditLogPath)
	}
	if cfg.ReportOutputDir != "./reports" {
		t.Fatalf("unexpected report output dir default: %q", cfg.ReportOutputDir)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("unexpected http addr default: %q", cfg.HTTPAddr)
	}
	if cfg.DashboardDays != 7 {
		t.Fatalf("unexpected dashboard days default: %d", cfg.DashboardDays)
	}
	if cfg.Location == nil || cfg.Location.String() != "UTC" {
		t.Fatalf("unexpected location: %v", cfg.Location)
	}
}

func TestLoadConfigYAMLAndEnvOverride(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	content := `
db_path: "/data/history.db"
dashboard_days: 30
auto_import_dir: "/data/inbox"
auto_import_schedule: "*/15 * * * *"
timezone: "UTC"
`
	if err := os.WriteFile(cfgPath, []byte(content), 0644); err != nil {
		t.Fatalf("write config failed: %v", err)
	}
	t.Setenv("CONFIG_PATH", cfgPath)
	t.Setenv("DASHBOARD_DAYS", "14")

	cfg := LoadConfig()

	if cfg.DBPath != "/data/history.db" {
		t.Fatalf("yaml db_path not applied: %q", cfg.DBPath)
	}
	if cfg.DashboardDays != 14 {
		t.Fatalf("env override must win over yaml, got %d", cfg.DashboardDays)
	}
	if cfg.AutoImportSchedule != "*/15 * * * *" {
		t.Fatalf("yaml auto_import_schedule not applied: %q", cfg.AutoImportSchedule)
	}
	if cfg.ProcessedDir != "/data/inbox/processed" {
		t.Fatalf("processed dir should default under the import dir, got %q", cfg.ProcessedDir)
	}
}

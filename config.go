package main

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

type Config struct {
	DBPath          string `yaml:"db_path"`
	AuditLogPath    string `yaml:"audit_log_path"`
	ReportOutputDir string `yaml:"report_output_dir"`

	HTTPAddr string `yaml:"http_addr"`

	DashboardDays     int    `yaml:"dashboard_days"`
	DashboardSchedule string `yaml:"dashboard_schedule"`

	AutoImportDir      string `yaml:"auto_import_dir"`
	AutoImportSchedule string `yaml:"auto_import_schedule"`
	ProcessedDir       string `yaml:"processed_dir"`

	SlackBotToken  string `yaml:"slack_bot_token"`
	AlertChannelID string `yaml:"alert_channel_id"`

	Timezone string `yaml:"timezone"`

	Location *time.Location `yaml:"-"`
}

func LoadConfig() Config {
	var cfg Config

	// Load from config.yaml if it exists
	configPath := "config.yaml"
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		configPath = envPath
	}
	if data, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			log.Fatalf("Error parsing %s: %v", configPath, err)
		}
		log.Printf("Loaded config from %s", configPath)
	}

	// Env vars override YAML values
	envOverride(&cfg.DBPath, "DB_PATH")
	envOverride(&cfg.AuditLogPath, "AUDIT_LOG_PATH")
	envOverride(&cfg.ReportOutputDir, "REPORT_OUTPUT_DIR")
	envOverride(&cfg.HTTPAddr, "HTTP_ADDR")
	envOverrideInt(&cfg.DashboardDays, "DASHBOARD_DAYS")
	envOverride(&cfg.DashboardSchedule, "DASHBOARD_SCHEDULE")
	envOverride(&cfg.AutoImportDir, "AUTO_IMPORT_DIR")
	envOverride(&cfg.AutoImportSchedule, "AUTO_IMPORT_SCHEDULE")
	envOverride(&cfg.ProcessedDir, "PROCESSED_DIR")
	envOverride(&cfg.SlackBotToken, "SLACK_BOT_TOKEN")
	envOverride(&cfg.AlertChannelID, "ALERT_CHANNEL_ID")
	envOverride(&cfg.Timezone, "TIMEZONE")

	// Defaults
	if cfg.DBPath == "" {
		cfg.DBPath = "./qft_history.db"
	}
	if cfg.AuditLogPath == "" {
		cfg.AuditLogPath = "./qft_interpreter_log.csv"
	}
	if cfg.ReportOutputDir == "" {
		cfg.ReportOutputDir = "./reports"
	}
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}
	if cfg.DashboardDays == 0 {
		cfg.DashboardDays = 7
	}
	if cfg.ProcessedDir == "" && cfg.AutoImportDir != "" {
		cfg.ProcessedDir = cfg.AutoImportDir + "/processed"
	}
	if cfg.Timezone == "" {
		cfg.Timezone = "Local"
	}

	// Validate
	if cfg.DashboardDays < 1 {
		log.Fatalf("invalid dashboard_days '%d': must be >= 1", cfg.DashboardDays)
	}
	if cfg.SlackBotToken != "" && cfg.AlertChannelID == "" {
		log.Fatalf("alert_channel_id is required when slack_bot_token is set")
	}
	validateCronSchedule("dashboard_schedule", cfg.DashboardSchedule)
	validateCronSchedule("auto_import_schedule", cfg.AutoImportSchedule)

	if strings.EqualFold(cfg.Timezone, "Local") {
		cfg.Location = time.Local
		cfg.Timezone = time.Local.String()
	} else {
		loc, err := time.LoadLocation(cfg.Timezone)
		if err != nil {
			log.Fatalf("invalid timezone '%s': %v", cfg.Timezone, err)
		}
		cfg.Location = loc
		time.Local = loc
	}

	return cfg
}

// validateCronSchedule fails fast on a malformed 5-field cron expression;
// an empty schedule just disables the feature.
func validateCronSchedule(name, schedule string) {
	if strings.TrimSpace(schedule) == "" {
		return
	}
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	if _, err := parser.Parse(schedule); err != nil {
		log.Fatalf("invalid %s '%s': %v", name, schedule, err)
	}
}

func envOverride(field *string, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		*field = val
	}
}

func envOverrideInt(field *int, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.Atoi(val)
		if err != nil {
			log.Fatalf("invalid %s '%s': %v", envKey, val, err)
		}
		*field = parsed
	}
}

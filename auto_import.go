package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// ImportResult tracks one sweep of the auto-import directory.
type ImportResult struct {
	Files     int
	Processed int
	Skipped   int
	Errors    []string
}

// ScanAndImport ingests every batch CSV sitting in the auto-import dir and
// moves each file to the processed dir afterwards so it is handled exactly
// once. A file that fails (bad header, unreadable) is reported and moved
// aside too, so one malformed export cannot wedge the sweep. The run ID for
// imported rows is derived from the file name.
func ScanAndImport(cfg Config, it *Interpreter) (ImportResult, error) {
	entries, err := os.ReadDir(cfg.AutoImportDir)
	if err != nil {
		return ImportResult{}, fmt.Errorf("read import dir: %w", err)
	}
	if err := os.MkdirAll(cfg.ProcessedDir, 0755); err != nil {
		return ImportResult{}, fmt.Errorf("create processed dir: %w", err)
	}

	var result ImportResult
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".csv") {
			continue
		}
		result.Files++
		path := filepath.Join(cfg.AutoImportDir, entry.Name())
		runID := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))

		rows, err := ReadBatchCSV(path)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", entry.Name(), err))
		} else {
			outcome, err := IngestBatch(it, rows, "auto-import", runID)
			result.Processed += outcome.Processed()
			result.Skipped += outcome.Skipped
			if err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", entry.Name(), err))
			}
		}

		dest := filepath.Join(cfg.ProcessedDir, entry.Name())
		if err := os.Rename(path, dest); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: move to processed: %v", entry.Name(), err))
		}
	}
	return result, nil
}

func FormatImportSummary(r ImportResult) string {
	msg := fmt.Sprintf("Imported %d file(s): %d processed, %d skipped", r.Files, r.Processed, r.Skipped)
	if len(r.Errors) > 0 {
		msg += fmt.Sprintf("\nWarnings:\n%s", strings.Join(r.Errors, "\n"))
	}
	return msg
}

// StartAutoImportScheduler starts a cron-based scheduler that periodically
// sweeps the auto-import directory for instrument batch exports.
// The schedule is a standard 5-field cron expression (minute hour day-of-month month day-of-week).
// Examples: "*/15 * * * *" (every 15 min), "0 7 * * 1-5" (weekdays 7am).
func StartAutoImportScheduler(cfg Config, it *Interpreter, notifier *Notifier) {
	schedule := strings.TrimSpace(cfg.AutoImportSchedule)
	if schedule == "" || cfg.AutoImportDir == "" {
		log.Println("Auto-import disabled (auto_import_schedule or auto_import_dir not set)")
		return
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	sched, err := parser.Parse(schedule)
	if err != nil {
		log.Printf("Invalid auto_import_schedule '%s': %v — auto-import disabled", schedule, err)
		return
	}

	log.Printf("Auto-import scheduled (cron: %s) from %s", schedule, cfg.AutoImportDir)

	go func() {
		for {
			now := time.Now().In(cfg.Location)
			next := sched.Next(now)
			wait := next.Sub(now)
			log.Printf("Next auto-import at %s (in %s)", next.Format("Mon Jan 2 15:04"), wait.Round(time.Minute))

			time.Sleep(wait)

			result, importErr := ScanAndImport(cfg, it)
			summary := FormatImportSummary(result)
			if importErr != nil {
				log.Printf("Auto-import error: %v", importErr)
			}
			log.Printf("Auto-import complete: %s", summary)

			if result.Files > 0 {
				notifier.Post("Auto-import complete: " + summary)
			}
		}
	}()
}

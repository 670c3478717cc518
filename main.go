package main

import (
	"log"
	"net/http"
	"os"
)

func main() {
	cfg := LoadConfig()

	db, err := InitDB(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to init database: %v", err)
	}
	defer db.Close()
	store := NewStore(db)

	audit, err := NewAuditLog(cfg.AuditLogPath)
	if err != nil {
		log.Fatalf("Failed to open audit log: %v", err)
	}

	os.MkdirAll(cfg.ReportOutputDir, 0755)

	notifier := NewNotifier(cfg)
	interp := &Interpreter{Store: store, Audit: audit, Notify: notifier}

	StartAutoImportScheduler(cfg, interp, notifier)
	StartDashboardScheduler(cfg, store, notifier)

	log.Printf("Starting QFT interpretation service on %s...", cfg.HTTPAddr)
	if err := http.ListenAndServe(cfg.HTTPAddr, NewRouter(cfg, store, interp)); err != nil {
		log.Fatalf("HTTP server error: %v", err)
	}
}

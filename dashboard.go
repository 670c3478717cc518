package main

import (
	"log"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// StartDashboardScheduler posts the rolling dashboard summary to the alert
// channel on a cron schedule. The on-demand dashboard endpoint runs the same
// aggregation, so the posted numbers always match what the API reports for
// the same window.
func StartDashboardScheduler(cfg Config, store *Store, notifier *Notifier) {
	schedule := strings.TrimSpace(cfg.DashboardSchedule)
	if schedule == "" {
		log.Println("Dashboard posting disabled (dashboard_schedule not set)")
		return
	}
	if notifier == nil {
		log.Println("Dashboard posting disabled: Slack is not configured")
		return
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	sched, err := parser.Parse(schedule)
	if err != nil {
		log.Printf("Invalid dashboard_schedule '%s': %v — dashboard posting disabled", schedule, err)
		return
	}

	log.Printf("Dashboard posting scheduled (cron: %s, window: %d days)", schedule, cfg.DashboardDays)

	go func() {
		for {
			now := time.Now().In(cfg.Location)
			next := sched.Next(now)
			wait := next.Sub(now)
			log.Printf("Next dashboard post at %s (in %s)", next.Format("Mon Jan 2 15:04"), wait.Round(time.Minute))

			time.Sleep(wait)

			summary, err := RefreshDashboard(store, cfg.DashboardDays, time.Now().In(cfg.Location))
			if err != nil {
				log.Printf("Dashboard refresh error: %v", err)
				continue
			}
			notifier.Post(FormatDashboardMessage(summary))
		}
	}()
}

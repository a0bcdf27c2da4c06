package main

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// StartReportCleanupScheduler starts a cron-based sweep that deletes
// exported report files older than report_retention_days. The schedule is
// a standard 5-field cron expression (minute hour day-of-month month
// day-of-week), e.g. "0 3 * * *" for daily at 3am.
func StartReportCleanupScheduler(cfg Config) {
	if cfg.ReportRetentionDays == 0 {
		log.Println("Report cleanup disabled (report_retention_days not set)")
		return
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	sched, err := parser.Parse(cfg.ReportCleanupSchedule)
	if err != nil {
		log.Printf("Invalid report_cleanup_schedule '%s': %v — cleanup disabled", cfg.ReportCleanupSchedule, err)
		return
	}

	log.Printf("Report cleanup scheduled (cron: %s, retention: %d days)", cfg.ReportCleanupSchedule, cfg.ReportRetentionDays)

	go func() {
		for {
			now := time.Now()
			next := sched.Next(now)
			wait := next.Sub(now)
			log.Printf("Next report cleanup at %s (in %s)", next.Format("Mon Jan 2 15:04"), wait.Round(time.Minute))

			time.Sleep(wait)

			removed, err := cleanupReports(cfg.ReportOutputDir, cfg.ReportRetentionDays, time.Now())
			if err != nil {
				log.Printf("Report cleanup error: %v", err)
			}
			log.Printf("Report cleanup complete: removed %d files", removed)
		}
	}()
}

// cleanupReports removes exported PDFs older than retentionDays. Only
// files matching the exporter's naming scheme are touched.
func cleanupReports(dir string, retentionDays int, now time.Time) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}

	cutoff := now.AddDate(0, 0, -retentionDays)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasPrefix(name, "employee_churn_") || !strings.HasSuffix(name, ".pdf") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(dir, name)); err != nil {
			log.Printf("Report cleanup: remove %s: %v", name, err)
			continue
		}
		removed++
	}
	return removed, nil
}

package main

import (
	"log"

	"github.com/joho/godotenv"
)

func main() {
	godotenv.Load()

	cfg := LoadConfig()

	predictor, err := LoadChurnModel(cfg.ModelPath)
	if err != nil {
		log.Fatalf("Failed to load churn model: %v", err)
	}
	log.Printf("Churn model loaded path=%s version=%s", cfg.ModelPath, predictor.Version())

	stats, err := LoadReferenceData(cfg.ReferenceDataPath)
	if err != nil {
		log.Fatalf("Failed to load reference dataset: %v", err)
	}
	log.Printf("Reference dataset loaded path=%s rows=%d", cfg.ReferenceDataPath, stats.RowCount())

	db, err := InitDB(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to init database: %v", err)
	}
	defer db.Close()
	log.Printf("Database initialized at %s", cfg.DBPath)

	chatLog, err := NewChatLog(cfg.ChatLogDir)
	if err != nil {
		log.Fatalf("Failed to init chat log: %v", err)
	}

	gen := NewGenerationClient(cfg)
	exporter := NewReportExporter(cfg.ReportOutputDir)
	notifier := NewSlackNotifier(cfg)
	if notifier == nil {
		log.Println("Slack alerts disabled (slack_alert_channel_id not set)")
	}

	StartReportCleanupScheduler(cfg)

	server := NewServer(cfg, db, predictor, stats, gen, exporter, chatLog, notifier)
	log.Printf("Starting Churn Advisor on %s (provider=%s model=%s)", cfg.ListenAddr, cfg.LLMProvider, gen.model)
	if err := server.Router().Run(cfg.ListenAddr); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/Lars-will/FOMO-Bot/internal/app"
	"github.com/Lars-will/FOMO-Bot/internal/config"
	"github.com/Lars-will/FOMO-Bot/internal/domain"
	"github.com/Lars-will/FOMO-Bot/internal/infrastructure/calendar"
	"github.com/Lars-will/FOMO-Bot/internal/logging"
)

func main() {
	var (
		dateFlag     = flag.String("date", "", "report date (YYYY-MM-DD), defaults to today")
		marketFlag   = flag.String("market", "FDAX", "market symbol to analyze for")
		calendarFlag = flag.String("calendar", "", "path to a saved economic-calendar HTML page to ingest")
	)
	flag.Parse()

	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level)
	ctx := context.Background()

	day := time.Now()
	if *dateFlag != "" {
		parsed, err := time.Parse(domain.DateLayout, *dateFlag)
		if err != nil {
			logger.Error("invalid -date value", "value", *dateFlag, "error", err)
			os.Exit(1)
		}
		day = parsed
	}

	application, err := app.New(cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer application.Close()

	if *calendarFlag != "" {
		source := calendar.NewFileSource(*calendarFlag, logger.With("component", "calendar"))
		if _, err := application.Ingest(ctx, source, day); err != nil {
			logger.Error("ingestion failed", "error", err)
			os.Exit(1)
		}
	}

	runID, err := application.Runner().Start(ctx, day, *marketFlag)
	if err != nil {
		logger.Error("run rejected", "error", err)
		os.Exit(1)
	}

	updates, ok := application.Runner().Subscribe(runID)
	if !ok {
		logger.Error("run vanished before subscription", "run_id", runID)
		os.Exit(1)
	}

	for update := range updates {
		logger.Info("run update",
			"status", update.Status, "progress", update.Progress, "message", update.Message)
		if update.Status == domain.RunError {
			os.Exit(1)
		}
		if update.Status == domain.RunComplete {
			report, err := application.Report(ctx, day, *marketFlag)
			if err != nil || report == nil {
				logger.Error("report lookup failed", "error", err)
				os.Exit(1)
			}
			fmt.Print(report.Content)
			return
		}
	}
}

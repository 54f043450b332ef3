package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"ms-turnos/internal/clock"
	"ms-turnos/internal/config"
	"ms-turnos/internal/logger"
	"ms-turnos/internal/turnos/db"
	"ms-turnos/internal/turnos/report"
	pdftemplate "ms-turnos/internal/turnos/template"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `report writes the ticket report of a period to a PDF file.

Usage: report [flags]

Flags:
%s`, flagSet.FlagUsages())
}

func main() {
	log := logger.NewWithWriter(os.Stdout)
	_ = godotenv.Load()
	cfg := config.Load()

	var (
		periodFlag string
		outFlag    string
		dateFlag   string
	)
	flagSet := pflag.NewFlagSet("report", pflag.ContinueOnError)
	flagSet.StringVarP(&periodFlag, "period", "p", "daily", "daily, weekly or monthly (diario, semanal, mensual)")
	flagSet.StringVarP(&outFlag, "out", "o", filepath.Join(cfg.Reports.Dir, "reporte_turnos.pdf"), "output file")
	flagSet.StringVar(&dateFlag, "date", "", "report as of this YYYY-MM-DD instead of today")
	flagSet.StringVar(&cfg.Database.Path, "db", cfg.Database.Path, "sqlite database file")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			printHelp(flagSet)
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	clk := clock.Real(cfg.Location)
	if dateFlag != "" {
		asOf, err := time.ParseInLocation(clock.DateLayout, dateFlag, cfg.Location)
		if err != nil {
			log.Fatal("REPORT", fmt.Sprintf("Invalid --date %q: %v", dateFlag, err))
		}
		clk = clock.NewFixed(asOf)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	bunDB, err := db.Open(ctx, cfg.Database)
	if err != nil {
		log.Fatal("REPORT", fmt.Sprintf("Failed to open store: %v", err))
	}
	defer bunDB.Close()

	period := report.ParsePeriod(periodFlag)
	tickets, err := report.NewService(&db.DB{Bun: bunDB}, clk).Query(ctx, period)
	if err != nil {
		log.Fatal("REPORT", fmt.Sprintf("Failed to query %s report: %v", period, err))
	}

	if err := pdftemplate.NewReportPDFGenerator().WriteFile(outFlag, period.Title(), tickets); err != nil {
		log.Fatal("REPORT", fmt.Sprintf("Failed to write %s: %v", outFlag, err))
	}
	log.Info("REPORT", fmt.Sprintf("Wrote %s with %d tickets to %s", period, len(tickets), outFlag))
}

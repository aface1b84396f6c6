package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/sslguardian/dashboard/internal/config"
	"github.com/sslguardian/dashboard/internal/database"
	"github.com/sslguardian/dashboard/internal/reports"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	var (
		suitePath = flag.String("suite", "", "YAML suite file declaring which reports to run")
		name      = flag.String("report", "", "single report to run: expiring-soon, expired, weak-hash, shared-keys, san-blast-radius, lifecycle")
		days      = flag.Int("days", reports.DefaultExpiringDays, "renewal window for expiring-soon")
		threshold = flag.Int("threshold", reports.DefaultSANThreshold, "SAN count threshold for san-blast-radius")
		format    = flag.String("format", "csv", "output format for a single report: csv or json")
		outDir    = flag.String("out", ".", "output directory")
	)
	flag.Parse()

	if *suitePath == "" && *name == "" {
		slog.Error("either -suite or -report is required")
		os.Exit(1)
	}

	cfg := config.Load()
	client, err := database.Connect(cfg.MongoURL)
	if err != nil {
		slog.Error("mongodb connection failed", "error", err)
		os.Exit(1)
	}
	defer client.Disconnect(context.Background())

	coll := client.Database(cfg.MongoDatabase).Collection(database.CertificatesCollection)
	runner := reports.NewRunner(coll)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	suite, err := buildSuite(*suitePath, *name, *days, *threshold, *format, *outDir)
	if err != nil {
		slog.Error("invalid report selection", "error", err)
		os.Exit(1)
	}

	if err := runner.Run(ctx, suite); err != nil {
		slog.Error("report run failed", "error", err)
		os.Exit(1)
	}
}

// buildSuite turns either a suite file or the single-report flags into
// one Suite to run.
func buildSuite(path, name string, days, threshold int, format, outDir string) (reports.Suite, error) {
	if path != "" {
		return reports.LoadSuite(path)
	}
	if format != "csv" && format != "json" {
		return reports.Suite{}, fmt.Errorf("unsupported format %q (want csv or json)", format)
	}
	return reports.Suite{
		OutputDir: outDir,
		Format:    format,
		Reports: []reports.SuiteItem{
			{Name: name, Days: days, Threshold: threshold},
		},
	}, nil
}

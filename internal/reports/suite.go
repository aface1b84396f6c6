package reports

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Suite is a YAML-declared batch of reports, e.g.:
//
//	output_dir: ./out
//	format: csv
//	reports:
//	  - name: expiring-soon
//	    days: 30
//	  - name: san-blast-radius
//	    threshold: 50
type Suite struct {
	OutputDir string      `yaml:"output_dir"`
	Format    string      `yaml:"format"`
	Reports   []SuiteItem `yaml:"reports"`
}

type SuiteItem struct {
	Name      string `yaml:"name"`
	Days      int    `yaml:"days"`
	Threshold int    `yaml:"threshold"`
}

// reportNames are the audits a suite may reference.
var reportNames = map[string]bool{
	"expiring-soon":    true,
	"expired":          true,
	"weak-hash":        true,
	"shared-keys":      true,
	"san-blast-radius": true,
	"lifecycle":        true,
}

func LoadSuite(path string) (Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Suite{}, fmt.Errorf("reading suite file: %w", err)
	}

	var suite Suite
	if err := yaml.Unmarshal(data, &suite); err != nil {
		return Suite{}, fmt.Errorf("parsing suite file: %w", err)
	}

	if suite.OutputDir == "" {
		suite.OutputDir = "."
	}
	if suite.Format == "" {
		suite.Format = "csv"
	}
	if suite.Format != "csv" && suite.Format != "json" {
		return Suite{}, fmt.Errorf("unsupported format %q (want csv or json)", suite.Format)
	}
	if len(suite.Reports) == 0 {
		return Suite{}, fmt.Errorf("suite declares no reports")
	}
	for _, item := range suite.Reports {
		if !reportNames[item.Name] {
			return Suite{}, fmt.Errorf("unknown report %q", item.Name)
		}
	}
	return suite, nil
}

// Run executes every report in the suite and writes one file per
// report into the output directory.
func (r *Runner) Run(ctx context.Context, suite Suite) error {
	if err := os.MkdirAll(suite.OutputDir, 0o755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}

	for _, item := range suite.Reports {
		report, err := r.runOne(ctx, item)
		if err != nil {
			return err
		}

		path := filepath.Join(suite.OutputDir, report.Name+"."+suite.Format)
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("creating %s: %w", path, err)
		}
		if suite.Format == "json" {
			err = WriteJSON(f, report)
		} else {
			err = WriteCSV(f, report)
		}
		if closeErr := f.Close(); err == nil {
			err = closeErr
		}
		if err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
		slog.Info("report written", "report", report.Name, "rows", len(report.Rows), "path", path)
	}
	return nil
}

func (r *Runner) runOne(ctx context.Context, item SuiteItem) (Report, error) {
	switch item.Name {
	case "expiring-soon":
		return r.ExpiringSoon(ctx, item.Days)
	case "expired":
		return r.Expired(ctx)
	case "weak-hash":
		return r.WeakHash(ctx)
	case "shared-keys":
		return r.SharedKeys(ctx)
	case "san-blast-radius":
		return r.SANBlastRadius(ctx, item.Threshold)
	case "lifecycle":
		return r.Lifecycle(ctx)
	default:
		return Report{}, fmt.Errorf("unknown report %q", item.Name)
	}
}

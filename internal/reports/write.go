package reports

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
)

// WriteCSV emits the report with its column header.
func WriteCSV(w io.Writer, report Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(report.Columns); err != nil {
		return fmt.Errorf("writing %s header: %w", report.Name, err)
	}
	for _, row := range report.Rows {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing %s row: %w", report.Name, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON emits the report as an array of column-keyed objects, the
// shape the HTML renderers consume.
func WriteJSON(w io.Writer, report Report) error {
	records := make([]map[string]string, 0, len(report.Rows))
	for _, row := range report.Rows {
		record := make(map[string]string, len(report.Columns))
		for i, col := range report.Columns {
			if i < len(row) {
				record[col] = row[i]
			}
		}
		records = append(records, record)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("encoding %s: %w", report.Name, err)
	}
	return nil
}

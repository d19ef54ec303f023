package queries

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// SummaryFilename is the run summary written next to the query exports.
const SummaryFilename = "_query_summary.csv"

// Exporter writes query results and the run summary as CSV files into a
// single output directory.
type Exporter struct {
	dir string
}

// NewExporter creates an exporter rooted at dir, creating it if needed.
func NewExporter(dir string) (*Exporter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &Exporter{dir: dir}, nil
}

// ExportResult writes one result set as <name>.csv with a header row and
// returns the file path. Failed results are not exported; they appear
// only in the summary.
func (e *Exporter) ExportResult(result *Result) (string, error) {
	if result.Err != nil {
		return "", fmt.Errorf("refusing to export failed query %s: %w", result.Name, result.Err)
	}

	path := filepath.Join(e.dir, result.Name+".csv")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(result.Columns); err != nil {
		return "", fmt.Errorf("failed to write header for %s: %w", result.Name, err)
	}
	for _, row := range result.Rows {
		if err := w.Write(row); err != nil {
			return "", fmt.Errorf("failed to write row for %s: %w", result.Name, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("failed to flush %s: %w", result.Name, err)
	}

	return path, nil
}

// ExportSummary writes the run summary: one row per query with its row
// count, column count, elapsed time, and status.
func (e *Exporter) ExportSummary(report *RunReport) (string, error) {
	path := filepath.Join(e.dir, SummaryFilename)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create summary: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{"query", "rows", "columns", "elapsed_ms", "status", "error"}
	if err := w.Write(header); err != nil {
		return "", fmt.Errorf("failed to write summary header: %w", err)
	}

	for i := range report.Results {
		res := &report.Results[i]
		status := "success"
		errText := ""
		if res.Err != nil {
			status = "failed"
			errText = res.Err.Error()
		}
		record := []string{
			res.Name,
			strconv.Itoa(res.RowCount()),
			strconv.Itoa(len(res.Columns)),
			strconv.FormatInt(res.Elapsed.Milliseconds(), 10),
			status,
			errText,
		}
		if err := w.Write(record); err != nil {
			return "", fmt.Errorf("failed to write summary row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("failed to flush summary: %w", err)
	}

	return path, nil
}

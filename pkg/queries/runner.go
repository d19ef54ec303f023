package queries

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"go.uber.org/zap"

	"github.com/skysurvey-labs/exodb/pkg/database"
)

// Result is the rectangular outcome of one catalog query. When Err is
// set Columns and Rows are empty; the rest of the batch still runs.
type Result struct {
	Name        string
	Description string
	Columns     []string
	Rows        [][]string
	Elapsed     time.Duration
	Err         error
}

// RowCount returns the number of result rows.
func (r *Result) RowCount() int { return len(r.Rows) }

// RunReport is the outcome of one query-runner batch.
type RunReport struct {
	RunID      uuid.UUID
	StartedAt  time.Time
	FinishedAt time.Time
	Results    []Result
}

// Failed returns how many queries in the batch errored.
func (r *RunReport) Failed() int {
	failed := 0
	for i := range r.Results {
		if r.Results[i].Err != nil {
			failed++
		}
	}
	return failed
}

// Runner executes the catalog sequentially against a populated schema.
type Runner struct {
	db     *database.DB
	logger *zap.Logger
}

// NewRunner creates a query runner.
func NewRunner(db *database.DB, logger *zap.Logger) *Runner {
	return &Runner{db: db, logger: logger}
}

// Run executes each spec in order. A per-query failure (bad column, a
// view not yet migrated, a cluster id not yet computed) is recorded on
// its Result and does not stop the remaining queries.
func (r *Runner) Run(ctx context.Context, specs []Spec) *RunReport {
	report := &RunReport{
		RunID:     uuid.New(),
		StartedAt: time.Now(),
	}

	for _, spec := range specs {
		result := r.runOne(ctx, spec)
		if result.Err != nil {
			r.logger.Warn("query failed",
				zap.String("query", spec.Name),
				zap.Error(result.Err))
		} else {
			r.logger.Info("query executed",
				zap.String("query", spec.Name),
				zap.Int("rows", result.RowCount()),
				zap.Duration("elapsed", result.Elapsed))
		}
		report.Results = append(report.Results, result)
	}

	report.FinishedAt = time.Now()
	return report
}

func (r *Runner) runOne(ctx context.Context, spec Spec) Result {
	result := Result{
		Name:        spec.Name,
		Description: spec.Description,
	}

	normalized, err := ValidateReadOnly(spec.SQL)
	if err != nil {
		result.Err = fmt.Errorf("rejected by statement guard: %w", err)
		return result
	}

	start := time.Now()
	rows, err := r.db.Query(ctx, normalized)
	if err != nil {
		result.Elapsed = time.Since(start)
		result.Err = err
		return result
	}
	defer rows.Close()

	for _, fd := range rows.FieldDescriptions() {
		result.Columns = append(result.Columns, fd.Name)
	}

	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			result.Elapsed = time.Since(start)
			result.Err = err
			return result
		}

		record := make([]string, len(values))
		for i, v := range values {
			record[i] = formatValue(v)
		}
		result.Rows = append(result.Rows, record)
	}
	result.Elapsed = time.Since(start)

	if err := rows.Err(); err != nil {
		result.Err = err
	}
	return result
}

// formatValue renders a scanned pgx value for CSV export. NULL becomes
// the empty cell, matching the source dataset convention.
func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []byte:
		return string(val)
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'g', -1, 32)
	case int64:
		return strconv.FormatInt(val, 10)
	case int32:
		return strconv.FormatInt(int64(val), 10)
	case int16:
		return strconv.FormatInt(int64(val), 10)
	case bool:
		return strconv.FormatBool(val)
	case time.Time:
		return val.Format(time.RFC3339)
	case pgtype.Numeric:
		// ROUND(...)::numeric scans as pgtype.Numeric; its driver value
		// is the decimal string.
		if !val.Valid {
			return ""
		}
		if dv, err := val.Value(); err == nil {
			if s, ok := dv.(string); ok {
				return s
			}
		}
		return ""
	default:
		return fmt.Sprint(val)
	}
}

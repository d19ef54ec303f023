package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/skysurvey-labs/exodb/pkg/apperrors"
)

// SourceRow is one record of the flat source dataset, keyed by planet
// name. Optional fields are nil when the source cell is empty.
type SourceRow struct {
	PlName   string
	Hostname string

	SyDist   *float64
	PlMasse  *float64
	PlRade   *float64
	PlOrbper *float64
	PlEqt    *float64
	Density  *float64

	DiscoveryMethod *string
	DiscYear        *int32

	InStage1  bool
	InStage1c bool
	InStage2  bool
	InStage2c bool
}

// Source is the parsed dataset plus rows dropped during parsing.
type Source struct {
	Rows []SourceRow

	// SkippedRows counts records missing a planet name or hostname;
	// Skipped holds a short reason per dropped record for the report.
	SkippedRows int
	Skipped     []string
}

// ReadSourceFile parses a flat CSV dataset from disk.
func ReadSourceFile(path string) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open source dataset: %w", err)
	}
	defer f.Close()
	return ParseSource(f)
}

// ParseSource reads a flat CSV dataset. The header row names the columns;
// order does not matter and unknown columns are ignored. pl_name and
// hostname are required per row. When the dataset carries no density
// column, density is derived from mass and radius (mass / radius^3).
func ParseSource(r io.Reader) (*Source, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, apperrors.ErrEmptySource
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"pl_name", "hostname"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("source dataset is missing required column %q", required)
		}
	}
	_, hasDensity := col["density"]

	src := &Source{}
	line := 1
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("failed to read record at line %d: %w", line, err)
		}

		cell := func(name string) string {
			i, ok := col[name]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		plName := cell("pl_name")
		hostname := cell("hostname")
		if plName == "" || hostname == "" {
			src.SkippedRows++
			src.Skipped = append(src.Skipped,
				fmt.Sprintf("line %d: missing pl_name or hostname", line))
			continue
		}

		row := SourceRow{
			PlName:   plName,
			Hostname: hostname,
		}

		if row.SyDist, err = parseFloat(cell("sy_dist")); err != nil {
			return nil, fmt.Errorf("line %d: bad sy_dist: %w", line, err)
		}
		if row.PlMasse, err = parseFloat(cell("pl_masse")); err != nil {
			return nil, fmt.Errorf("line %d: bad pl_masse: %w", line, err)
		}
		if row.PlRade, err = parseFloat(cell("pl_rade")); err != nil {
			return nil, fmt.Errorf("line %d: bad pl_rade: %w", line, err)
		}
		if row.PlOrbper, err = parseFloat(cell("pl_orbper")); err != nil {
			return nil, fmt.Errorf("line %d: bad pl_orbper: %w", line, err)
		}
		if row.PlEqt, err = parseFloat(cell("pl_eqt")); err != nil {
			return nil, fmt.Errorf("line %d: bad pl_eqt: %w", line, err)
		}
		if hasDensity {
			if row.Density, err = parseFloat(cell("density")); err != nil {
				return nil, fmt.Errorf("line %d: bad density: %w", line, err)
			}
		} else {
			row.Density = deriveDensity(row.PlMasse, row.PlRade)
		}

		if method := cell("discoverymethod"); method != "" {
			row.DiscoveryMethod = &method
		}
		if row.DiscYear, err = parseYear(cell("disc_year")); err != nil {
			return nil, fmt.Errorf("line %d: bad disc_year: %w", line, err)
		}

		row.InStage1 = parseFlag(cell("in_stage1"))
		row.InStage1c = parseFlag(cell("in_stage1c"))
		row.InStage2 = parseFlag(cell("in_stage2"))
		row.InStage2c = parseFlag(cell("in_stage2c"))

		src.Rows = append(src.Rows, row)
	}

	if len(src.Rows) == 0 {
		return nil, apperrors.ErrEmptySource
	}
	return src, nil
}

// deriveDensity computes relative density (mass / radius^3) when both
// inputs are present. NaN from the archive's sentinel values never
// reaches here: parseFloat rejects non-numeric cells.
func deriveDensity(masse, rade *float64) *float64 {
	if masse == nil || rade == nil || *rade == 0 {
		return nil
	}
	d := *masse / math.Pow(*rade, 3)
	return &d
}

func parseFloat(s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, nil
	}
	return &v, nil
}

func parseYear(s string) (*int32, error) {
	if s == "" {
		return nil, nil
	}
	// Archive exports years as floats ("2011.0").
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	y := int32(f)
	return &y, nil
}

func parseFlag(s string) bool {
	switch strings.ToLower(s) {
	case "true", "t", "1", "yes":
		return true
	}
	return false
}

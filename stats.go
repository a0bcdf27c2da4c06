package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
)

// cohortMetrics are the five numeric columns averaged per cohort, in the
// order they appear in prompts and responses.
var cohortMetrics = []string{
	"satisfaction_level",
	"last_evaluation",
	"number_project",
	"average_monthly_hours",
	"time_spend_company",
}

type referenceRow struct {
	department string
	left       bool
	metrics    [5]float64
}

// DepartmentStatsService computes cohort means over the static reference
// dataset. The dataset is loaded once; results are cached per
// (department, cohort) since the underlying data never changes.
type DepartmentStatsService struct {
	rows []referenceRow

	mu    sync.Mutex
	cache map[string]DepartmentStats
}

// LoadReferenceData reads the historical employee CSV. Required columns:
// the five metrics, "left" (0/1) and "department". Extra columns are
// ignored; a missing required column or malformed cell fails the load.
func LoadReferenceData(path string) (*DepartmentStatsService, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open reference dataset: %w", err)
	}
	defer f.Close()
	return parseReferenceData(f)
}

func parseReferenceData(r io.Reader) (*DepartmentStatsService, error) {
	reader := csv.NewReader(r)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read reference header: %w", err)
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(strings.ToLower(name))] = i
	}
	required := append([]string{"left", "department"}, cohortMetrics...)
	for _, name := range required {
		if _, ok := col[name]; !ok {
			return nil, fmt.Errorf("reference dataset missing column %q", name)
		}
	}

	var rows []referenceRow
	line := 1
	for {
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("read reference row %d: %w", line, err)
		}
		var row referenceRow
		row.department = strings.TrimSpace(fields[col["department"]])
		leftVal, err := strconv.Atoi(strings.TrimSpace(fields[col["left"]]))
		if err != nil {
			return nil, fmt.Errorf("reference row %d: bad left flag: %w", line, err)
		}
		row.left = leftVal == 1
		for i, metric := range cohortMetrics {
			v, err := strconv.ParseFloat(strings.TrimSpace(fields[col[metric]]), 64)
			if err != nil {
				return nil, fmt.Errorf("reference row %d: bad %s: %w", line, metric, err)
			}
			row.metrics[i] = v
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("reference dataset has no data rows")
	}

	return &DepartmentStatsService{
		rows:  rows,
		cache: make(map[string]DepartmentStats),
	}, nil
}

// Stats returns the mean of the five metrics for a department cohort.
// leftFilter nil means the whole department; true/false slices by
// attrition outcome. An empty cohort is an EmptyCohortError, never a NaN
// map.
func (s *DepartmentStatsService) Stats(department string, leftFilter *bool) (DepartmentStats, error) {
	cohort := cohortName(leftFilter)
	key := department + "|" + cohort

	s.mu.Lock()
	if cached, ok := s.cache[key]; ok {
		s.mu.Unlock()
		return cached, nil
	}
	s.mu.Unlock()

	var sums [5]float64
	count := 0
	for _, row := range s.rows {
		if row.department != department {
			continue
		}
		if leftFilter != nil && row.left != *leftFilter {
			continue
		}
		for i := range cohortMetrics {
			sums[i] += row.metrics[i]
		}
		count++
	}
	if count == 0 {
		return DepartmentStats{}, &EmptyCohortError{Department: department, Cohort: cohort}
	}

	means := make(map[string]float64, len(cohortMetrics))
	for i, metric := range cohortMetrics {
		means[metric] = sums[i] / float64(count)
	}
	result := DepartmentStats{
		Department: department,
		Cohort:     cohort,
		Rows:       count,
		Means:      means,
	}

	s.mu.Lock()
	s.cache[key] = result
	s.mu.Unlock()
	return result, nil
}

// RowCount reports the total number of reference rows loaded.
func (s *DepartmentStatsService) RowCount() int { return len(s.rows) }

func cohortName(leftFilter *bool) string {
	switch {
	case leftFilter == nil:
		return "all"
	case *leftFilter:
		return "left"
	default:
		return "stayed"
	}
}

func boolPtr(b bool) *bool { return &b }

package main

import (
	"errors"
	"math"
	"reflect"
	"strings"
	"testing"
)

const testReferenceCSV = `satisfaction_level,last_evaluation,number_project,average_monthly_hours,time_spend_company,work_accident,left,promotion_last_5years,department,salary
0.38,0.53,2,157,3,0,1,0,sales,low
0.80,0.86,5,262,6,0,1,0,sales,medium
0.72,0.87,5,223,5,0,0,0,sales,low
0.90,0.95,4,180,3,0,0,1,sales,high
0.45,0.54,2,135,3,0,1,0,technical,low
0.92,0.85,4,210,4,0,0,0,management,high
`

func testStatsService(t *testing.T) *DepartmentStatsService {
	t.Helper()
	service, err := parseReferenceData(strings.NewReader(testReferenceCSV))
	if err != nil {
		t.Fatalf("parse reference data: %v", err)
	}
	return service
}

func TestParseReferenceDataMissingColumn(t *testing.T) {
	csv := "satisfaction_level,last_evaluation,department\n0.5,0.5,sales\n"
	_, err := parseReferenceData(strings.NewReader(csv))
	if err == nil || !strings.Contains(err.Error(), "missing column") {
		t.Fatalf("expected missing column error, got %v", err)
	}
}

func TestStatsCohortMeans(t *testing.T) {
	service := testStatsService(t)

	all, err := service.Stats("sales", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if all.Rows != 4 {
		t.Fatalf("expected 4 sales rows, got %d", all.Rows)
	}
	wantSatisfaction := (0.38 + 0.80 + 0.72 + 0.90) / 4
	if math.Abs(all.Means["satisfaction_level"]-wantSatisfaction) > 1e-9 {
		t.Errorf("satisfaction mean = %f, want %f", all.Means["satisfaction_level"], wantSatisfaction)
	}

	left, err := service.Stats("sales", boolPtr(true))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if left.Rows != 2 {
		t.Fatalf("expected 2 sales leavers, got %d", left.Rows)
	}
	wantHours := (157.0 + 262.0) / 2
	if math.Abs(left.Means["average_monthly_hours"]-wantHours) > 1e-9 {
		t.Errorf("leaver hours mean = %f, want %f", left.Means["average_monthly_hours"], wantHours)
	}

	stayed, err := service.Stats("sales", boolPtr(false))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stayed.Rows != 2 {
		t.Fatalf("expected 2 sales stayers, got %d", stayed.Rows)
	}
	if stayed.Cohort != "stayed" {
		t.Errorf("expected cohort name stayed, got %q", stayed.Cohort)
	}
}

func TestStatsIdempotent(t *testing.T) {
	service := testStatsService(t)

	first, err := service.Stats("technical", boolPtr(true))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := service.Stats("technical", boolPtr(true))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated stats calls differ: %+v vs %+v", first, second)
	}
}

func TestStatsEmptyCohortIsTypedError(t *testing.T) {
	service := testStatsService(t)

	// Unknown department: no rows at all.
	_, err := service.Stats("warehouse", nil)
	var empty *EmptyCohortError
	if !errors.As(err, &empty) {
		t.Fatalf("expected EmptyCohortError for unknown department, got %v", err)
	}
	if empty.Department != "warehouse" {
		t.Errorf("expected department warehouse in error, got %q", empty.Department)
	}

	// Known department, empty slice: management has no leavers.
	_, err = service.Stats("management", boolPtr(true))
	if !errors.As(err, &empty) {
		t.Fatalf("expected EmptyCohortError for empty leaver cohort, got %v", err)
	}
	if empty.Cohort != "left" {
		t.Errorf("expected cohort left in error, got %q", empty.Cohort)
	}
}

func TestStatsNeverReturnsNaN(t *testing.T) {
	service := testStatsService(t)
	stats, err := service.Stats("management", boolPtr(false))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for metric, mean := range stats.Means {
		if math.IsNaN(mean) {
			t.Errorf("metric %s is NaN", metric)
		}
	}
}

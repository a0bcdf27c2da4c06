package main

import (
	"fmt"
	"strings"
)

const Unselected = "unselected"

// departmentCodes maps display names to the categorical codes the
// classifier was trained with. The table is exhaustive: anything not in it
// is rejected, never silently dropped.
var departmentCodes = map[string]string{
	"Sales":                    "sales",
	"Technical":                "technical",
	"Support":                  "support",
	"IT":                       "IT",
	"Research and Development": "RandD",
	"Product Manager":          "product_mng",
	"Marketing":                "marketing",
	"Accounting":               "accounting",
	"Human Resources":          "hr",
	"Management":               "management",
	"Others":                   "Others",
}

// salaryCodes carries the training encoding: high=0, low=1, medium=2.
var salaryCodes = map[string]int{
	"high":   0,
	"low":    1,
	"medium": 2,
}

// Departments lists the selectable department display names in form order.
var Departments = []string{
	"Sales", "Technical", "Support", "IT", "Research and Development",
	"Product Manager", "Marketing", "Accounting", "Human Resources",
	"Management", "Others",
}

// EncodedRecord is a FeatureRecord mapped to the model artifact's input
// schema: booleans as 0/1, salary as its numeric code, department as its
// categorical code.
type EncodedRecord struct {
	SatisfactionLevel   float64
	LastEvaluation      float64
	NumberProject       float64
	AverageMonthlyHours float64
	TimeSpendCompany    float64
	WorkAccident        float64
	PromotedLast5Years  float64
	DepartmentCode      string
	SalaryCode          int
}

// ValidateRecord enforces the pre-prediction invariant: both categorical
// fields resolved and all numerics inside their form ranges.
func ValidateRecord(r FeatureRecord) error {
	if isUnselected(r.Department) {
		return &InvalidInputError{Field: "department", Reason: "must be selected before prediction"}
	}
	if isUnselected(r.SalaryBand) {
		return &InvalidInputError{Field: "salary_band", Reason: "must be selected before prediction"}
	}
	if _, ok := departmentCodes[r.Department]; !ok {
		return &InvalidInputError{Field: "department", Reason: fmt.Sprintf("unknown department %q", r.Department)}
	}
	if _, ok := salaryCodes[strings.ToLower(r.SalaryBand)]; !ok {
		return &InvalidInputError{Field: "salary_band", Reason: fmt.Sprintf("unknown salary band %q", r.SalaryBand)}
	}
	if r.SatisfactionLevel < 0 || r.SatisfactionLevel > 1 {
		return &InvalidInputError{Field: "satisfaction_level", Reason: "must be between 0 and 1"}
	}
	if r.LastEvaluation < 0 || r.LastEvaluation > 1 {
		return &InvalidInputError{Field: "last_evaluation", Reason: "must be between 0 and 1"}
	}
	if r.NumberProject < 0 || r.NumberProject > 10 {
		return &InvalidInputError{Field: "number_project", Reason: "must be between 0 and 10"}
	}
	if r.AverageMonthlyHours < 50 || r.AverageMonthlyHours > 400 {
		return &InvalidInputError{Field: "average_monthly_hours", Reason: "must be between 50 and 400"}
	}
	if r.TimeSpendCompany < 1 || r.TimeSpendCompany > 10 {
		return &InvalidInputError{Field: "time_spend_company", Reason: "must be between 1 and 10"}
	}
	return nil
}

// EncodeRecord validates and maps a record to the artifact's encoding.
func EncodeRecord(r FeatureRecord) (EncodedRecord, error) {
	if err := ValidateRecord(r); err != nil {
		return EncodedRecord{}, err
	}
	return EncodedRecord{
		SatisfactionLevel:   r.SatisfactionLevel,
		LastEvaluation:      r.LastEvaluation,
		NumberProject:       float64(r.NumberProject),
		AverageMonthlyHours: float64(r.AverageMonthlyHours),
		TimeSpendCompany:    float64(r.TimeSpendCompany),
		WorkAccident:        boolToFloat(r.WorkAccident),
		PromotedLast5Years:  boolToFloat(r.PromotedLast5Years),
		DepartmentCode:      departmentCodes[r.Department],
		SalaryCode:          salaryCodes[strings.ToLower(r.SalaryBand)],
	}, nil
}

// AttributeTable renders the record as the ordered key/value rows shown in
// the report and restated in the narrative prompt.
func AttributeTable(r FeatureRecord) (map[string]string, []string) {
	order := []string{
		"Department", "Salary", "Satisfaction Level", "Last Evaluation",
		"Assigned Projects", "Monthly Working Time", "Time in the Company",
		"Work Accident", "Promoted (Last 5 Years)",
	}
	table := map[string]string{
		"Department":              r.Department,
		"Salary":                  r.SalaryBand,
		"Satisfaction Level":      fmt.Sprintf("%.2f", r.SatisfactionLevel),
		"Last Evaluation":         fmt.Sprintf("%.2f", r.LastEvaluation),
		"Assigned Projects":       fmt.Sprintf("%d", r.NumberProject),
		"Monthly Working Time":    fmt.Sprintf("%d hours", r.AverageMonthlyHours),
		"Time in the Company":     fmt.Sprintf("%d years", r.TimeSpendCompany),
		"Work Accident":           boolToWord(r.WorkAccident),
		"Promoted (Last 5 Years)": boolToWord(r.PromotedLast5Years),
	}
	return table, order
}

func isUnselected(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "" || s == Unselected || s == "select"
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func boolToWord(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

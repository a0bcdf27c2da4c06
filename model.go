package main

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
)

// modelArtifact is the on-disk schema of the pre-trained classifier: a
// logistic model exported with its intercept, one weight per numeric
// feature, one per department code and one per salary code. The training
// process is out of scope; the file is treated as an opaque versioned
// artifact whose schema must match exactly.
type modelArtifact struct {
	Version           string             `json:"version"`
	Threshold         float64            `json:"threshold"`
	Intercept         float64            `json:"intercept"`
	NumericWeights    map[string]float64 `json:"numeric_weights"`
	DepartmentWeights map[string]float64 `json:"department_weights"`
	SalaryWeights     map[string]float64 `json:"salary_weights"`
}

var requiredNumericWeights = []string{
	"satisfaction_level", "last_evaluation", "number_project",
	"average_monthly_hours", "time_spend_company", "work_accident",
	"promotion_last_5years",
}

// ChurnPredictor wraps the loaded artifact. Predict is a pure function
// over the frozen weights; the predictor is safe for concurrent use.
type ChurnPredictor struct {
	artifact modelArtifact
	path     string
}

// LoadChurnModel reads and schema-checks the artifact. Any mismatch is a
// ModelLoadError and the caller must treat it as fatal.
func LoadChurnModel(path string) (*ChurnPredictor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ModelLoadError{Path: path, Reason: err.Error()}
	}
	var art modelArtifact
	if err := json.Unmarshal(data, &art); err != nil {
		return nil, &ModelLoadError{Path: path, Reason: fmt.Sprintf("parse: %v", err)}
	}
	if art.Version == "" {
		return nil, &ModelLoadError{Path: path, Reason: "missing version"}
	}
	for _, name := range requiredNumericWeights {
		if _, ok := art.NumericWeights[name]; !ok {
			return nil, &ModelLoadError{Path: path, Reason: fmt.Sprintf("missing numeric weight %q", name)}
		}
	}
	for _, code := range departmentCodes {
		if _, ok := art.DepartmentWeights[code]; !ok {
			return nil, &ModelLoadError{Path: path, Reason: fmt.Sprintf("missing department weight %q", code)}
		}
	}
	for _, code := range salaryCodes {
		key := fmt.Sprintf("%d", code)
		if _, ok := art.SalaryWeights[key]; !ok {
			return nil, &ModelLoadError{Path: path, Reason: fmt.Sprintf("missing salary weight %q", key)}
		}
	}
	if art.Threshold <= 0 || art.Threshold >= 1 {
		art.Threshold = 0.5
	}
	return &ChurnPredictor{artifact: art, path: path}, nil
}

// Version reports the artifact version string.
func (p *ChurnPredictor) Version() string { return p.artifact.Version }

// Predict maps a FeatureRecord to a churn verdict plus per-class
// probabilities. Unresolved categorical fields fail validation before the
// model is touched.
func (p *ChurnPredictor) Predict(record FeatureRecord) (PredictionResult, error) {
	enc, err := EncodeRecord(record)
	if err != nil {
		return PredictionResult{}, err
	}

	w := p.artifact.NumericWeights
	z := p.artifact.Intercept
	z += w["satisfaction_level"] * enc.SatisfactionLevel
	z += w["last_evaluation"] * enc.LastEvaluation
	z += w["number_project"] * enc.NumberProject
	z += w["average_monthly_hours"] * enc.AverageMonthlyHours
	z += w["time_spend_company"] * enc.TimeSpendCompany
	z += w["work_accident"] * enc.WorkAccident
	z += w["promotion_last_5years"] * enc.PromotedLast5Years
	z += p.artifact.DepartmentWeights[enc.DepartmentCode]
	z += p.artifact.SalaryWeights[fmt.Sprintf("%d", enc.SalaryCode)]

	churnProb := sigmoid(z)
	return PredictionResult{
		Churn:       churnProb >= p.artifact.Threshold,
		Probability: [2]float64{1 - churnProb, churnProb},
	}, nil
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

package main

import "time"

// FeatureRecord holds one employee's attributes in the shape the
// classifier was trained on. Categorical fields stay human-readable here;
// EncodeRecord maps them to the artifact's encoding.
type FeatureRecord struct {
	SatisfactionLevel   float64 `json:"satisfaction_level"`    // 0.0 - 1.0
	LastEvaluation      float64 `json:"last_evaluation"`       // 0.0 - 1.0
	NumberProject       int     `json:"number_project"`        // 0 - 10
	AverageMonthlyHours int     `json:"average_monthly_hours"` // 50 - 400
	TimeSpendCompany    int     `json:"time_spend_company"`    // years, 1 - 10
	WorkAccident        bool    `json:"work_accident"`
	PromotedLast5Years  bool    `json:"promoted_last_5years"`
	Department          string  `json:"department"`  // "Sales", "IT", ... or "unselected"
	SalaryBand          string  `json:"salary_band"` // "low", "medium", "high" or "unselected"
}

// PredictionResult is derived solely from a FeatureRecord and immutable
// once computed. Probability holds [P(stay), P(churn)] and sums to 1.
type PredictionResult struct {
	Churn       bool       `json:"churn"`
	Probability [2]float64 `json:"probability"`
}

// Score returns the probability of the predicted class, the number shown
// to the user next to the verdict.
func (p PredictionResult) Score() float64 {
	if p.Churn {
		return p.Probability[1]
	}
	return p.Probability[0]
}

// DepartmentStats maps metric name to its mean over a cohort.
type DepartmentStats struct {
	Department string             `json:"department"`
	Cohort     string             `json:"cohort"` // "all", "left", "stayed"
	Rows       int                `json:"rows"`
	Means      map[string]float64 `json:"means"`
}

// ChatMessage is one turn of a generation conversation.
type ChatMessage struct {
	Role    string `json:"role"` // "system", "user", "assistant"
	Content string `json:"content"`
}

// Transcript is the ordered, append-only conversation resent in full on
// every generation call. It is a value owned by the session, not shared
// process state.
type Transcript struct {
	Messages []ChatMessage
}

func (t *Transcript) Append(role, content string) {
	t.Messages = append(t.Messages, ChatMessage{Role: role, Content: content})
}

func (t *Transcript) Len() int { return len(t.Messages) }

// Report is the exportable artifact for one prediction.
type Report struct {
	NarrativeText  string
	AttributeTable map[string]string
	AttributeOrder []string
	GeneratedAt    time.Time
}

// PredictionRecord is the sqlite history row for one completed pipeline run.
type PredictionRecord struct {
	ID          int64         `json:"id"`
	Record      FeatureRecord `json:"record"`
	Churn       bool          `json:"churn"`
	Probability float64       `json:"probability"` // score of the predicted class
	Narrative   string        `json:"narrative,omitempty"`
	ReportPath  string        `json:"report_path,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
}

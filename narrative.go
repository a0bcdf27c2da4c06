package main

import (
	"fmt"
	"strings"
)

// systemPersona seeds every session transcript. Kept from the production
// prompt: the narrative reads as senior HR advice without self-reference.
const systemPersona = "Write like a world-known expert HR manager. Do not mention that you are HR manager."

// fixedFindings are pre-computed statistical-test summaries over the
// historical dataset. They are static domain knowledge baked into every
// report prompt, not recomputed per request.
var fixedFindings = []string{
	"Employees who left reported significantly lower satisfaction levels than those who stayed (two-sample t-test, p < 0.001).",
	"Attrition is concentrated among employees with either very low (2 or fewer) or very high (6 or more) assigned projects.",
	"Average monthly working hours above 275 are strongly associated with leaving, especially when combined with low satisfaction.",
	"Employees in their third to fifth year at the company leave at the highest rate; attrition drops sharply after year six.",
	"Salary band and attrition are dependent (chi-squared test, p < 0.001): the low band shows the highest churn share.",
	"A promotion within the last five years materially reduces the probability of leaving.",
}

// ComposeNarrativePrompt deterministically assembles the single user turn
// sent for report generation: restated attributes, the verdict with its
// rounded score, the fixed findings and all three cohort summaries.
func ComposeNarrativePrompt(record FeatureRecord, prediction PredictionResult, statsAll, statsLeft, statsStayed DepartmentStats) string {
	table, order := AttributeTable(record)

	var b strings.Builder
	b.WriteString("How can I increase the productivity of this employee? Employee information:\n")
	for _, key := range order {
		b.WriteString(fmt.Sprintf("- %s: %s\n", key, table[key]))
	}

	b.WriteString("\n")
	b.WriteString(verdictSentence(prediction))
	b.WriteString("\n")

	b.WriteString("\nStatistical findings from the historical employee dataset:\n")
	for _, finding := range fixedFindings {
		b.WriteString("- " + finding + "\n")
	}

	b.WriteString(fmt.Sprintf("\nHistorical averages for the %s department:\n", record.Department))
	writeCohortSummary(&b, "All employees", statsAll)
	writeCohortSummary(&b, "Employees who left", statsLeft)
	writeCohortSummary(&b, "Employees who stayed", statsStayed)

	b.WriteString("\nConsider the employee information and evaluate each attribute. Include numbers and values. ")
	b.WriteString("Also comment on churn with the ML score rounded. Write an engaging conclusion.")
	return b.String()
}

// verdictSentence renders the churn verdict with the predicted-class
// probability rounded to two decimals, the number quoted in the report.
func verdictSentence(p PredictionResult) string {
	if p.Churn {
		return fmt.Sprintf("This employee is predicted to churn according to the ML model with a %.2f score.", p.Probability[1])
	}
	return fmt.Sprintf("This employee is predicted not to churn according to the ML model with a %.2f score.", p.Probability[0])
}

func writeCohortSummary(b *strings.Builder, label string, stats DepartmentStats) {
	b.WriteString(fmt.Sprintf("%s (%d records): ", label, stats.Rows))
	parts := make([]string, 0, len(cohortMetrics))
	for _, metric := range cohortMetrics {
		parts = append(parts, fmt.Sprintf("%s %.2f", strings.ReplaceAll(metric, "_", " "), stats.Means[metric]))
	}
	b.WriteString(strings.Join(parts, ", "))
	b.WriteString("\n")
}

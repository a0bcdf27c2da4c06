package main

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

func InitDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	schema := `
	CREATE TABLE IF NOT EXISTS predictions (
		id                    INTEGER PRIMARY KEY AUTOINCREMENT,
		satisfaction_level    REAL NOT NULL,
		last_evaluation       REAL NOT NULL,
		number_project        INTEGER NOT NULL,
		average_monthly_hours INTEGER NOT NULL,
		time_spend_company    INTEGER NOT NULL,
		work_accident         INTEGER NOT NULL,
		promoted_last_5years  INTEGER NOT NULL,
		department            TEXT NOT NULL,
		salary_band           TEXT NOT NULL,
		churn                 INTEGER NOT NULL,
		probability           REAL NOT NULL,
		narrative             TEXT DEFAULT '',
		report_path           TEXT DEFAULT '',
		created_at            DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_predictions_created_at ON predictions(created_at);
	CREATE INDEX IF NOT EXISTS idx_predictions_department ON predictions(department);
	`
	_, err = db.Exec(schema)
	if err != nil {
		return nil, err
	}

	return db, nil
}

func InsertPrediction(db *sql.DB, rec PredictionRecord) (int64, error) {
	result, err := db.Exec(
		`INSERT INTO predictions (
			satisfaction_level, last_evaluation, number_project,
			average_monthly_hours, time_spend_company, work_accident,
			promoted_last_5years, department, salary_band,
			churn, probability, narrative, report_path, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Record.SatisfactionLevel, rec.Record.LastEvaluation, rec.Record.NumberProject,
		rec.Record.AverageMonthlyHours, rec.Record.TimeSpendCompany, rec.Record.WorkAccident,
		rec.Record.PromotedLast5Years, rec.Record.Department, rec.Record.SalaryBand,
		rec.Churn, rec.Probability, rec.Narrative, rec.ReportPath, rec.CreatedAt,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

func UpdatePredictionReportPath(db *sql.DB, id int64, reportPath string) error {
	_, err := db.Exec(`UPDATE predictions SET report_path = ? WHERE id = ?`, reportPath, id)
	return err
}

func GetPredictionByID(db *sql.DB, id int64) (PredictionRecord, error) {
	var rec PredictionRecord
	err := db.QueryRow(
		`SELECT id, satisfaction_level, last_evaluation, number_project,
		        average_monthly_hours, time_spend_company, work_accident,
		        promoted_last_5years, department, salary_band,
		        churn, probability, narrative, report_path, created_at
		 FROM predictions WHERE id = ?`,
		id,
	).Scan(
		&rec.ID, &rec.Record.SatisfactionLevel, &rec.Record.LastEvaluation, &rec.Record.NumberProject,
		&rec.Record.AverageMonthlyHours, &rec.Record.TimeSpendCompany, &rec.Record.WorkAccident,
		&rec.Record.PromotedLast5Years, &rec.Record.Department, &rec.Record.SalaryBand,
		&rec.Churn, &rec.Probability, &rec.Narrative, &rec.ReportPath, &rec.CreatedAt,
	)
	return rec, err
}

func GetRecentPredictions(db *sql.DB, limit int) ([]PredictionRecord, error) {
	if limit < 1 {
		limit = 20
	}
	rows, err := db.Query(
		`SELECT id, satisfaction_level, last_evaluation, number_project,
		        average_monthly_hours, time_spend_company, work_accident,
		        promoted_last_5years, department, salary_band,
		        churn, probability, narrative, report_path, created_at
		 FROM predictions ORDER BY created_at DESC, id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []PredictionRecord
	for rows.Next() {
		var rec PredictionRecord
		err := rows.Scan(
			&rec.ID, &rec.Record.SatisfactionLevel, &rec.Record.LastEvaluation, &rec.Record.NumberProject,
			&rec.Record.AverageMonthlyHours, &rec.Record.TimeSpendCompany, &rec.Record.WorkAccident,
			&rec.Record.PromotedLast5Years, &rec.Record.Department, &rec.Record.SalaryBand,
			&rec.Churn, &rec.Probability, &rec.Narrative, &rec.ReportPath, &rec.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func CountPredictionsSince(db *sql.DB, since time.Time) (int, error) {
	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM predictions WHERE created_at >= ?`, since).Scan(&count)
	return count, err
}

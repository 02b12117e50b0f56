package db

import (
	"database/sql"
	"fmt"
	"time"
)

// SessionReportRecord represents a generated PDF report for a capture session
type SessionReportRecord struct {
	ID           int       `json:"id"`
	SessionID    string    `json:"session_id"`
	Filepath     string    `json:"filepath"`      // Path to the generated PDF
	Filename     string    `json:"filename"`      // PDF filename
	PlotFilepath *string   `json:"plot_filepath"` // Path to the route PNG
	PlotFilename *string   `json:"plot_filename"` // Route PNG filename
	Timezone     string    `json:"timezone"`      // Report timezone
	Units        string    `json:"units"`         // km or mi
	CreatedAt    time.Time `json:"created_at"`
}

// CreateSessionReport creates a new report record in the database
func (db *DB) CreateSessionReport(report *SessionReportRecord) error {
	query := `
		INSERT INTO session_reports (
			session_id, filepath, filename, plot_filepath, plot_filename,
			timezone, units
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	result, err := db.DB.Exec(
		query,
		report.SessionID,
		report.Filepath,
		report.Filename,
		report.PlotFilepath,
		report.PlotFilename,
		report.Timezone,
		report.Units,
	)
	if err != nil {
		return fmt.Errorf("failed to create session report: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert ID: %w", err)
	}

	report.ID = int(id)
	return nil
}

// GetSessionReport retrieves a report by ID
func (db *DB) GetSessionReport(id int) (*SessionReportRecord, error) {
	query := `
		SELECT id, session_id, filepath, filename, plot_filepath, plot_filename,
		       timezone, units, created_at
		FROM session_reports
		WHERE id = ?
	`

	var report SessionReportRecord
	err := db.DB.QueryRow(query, id).Scan(
		&report.ID,
		&report.SessionID,
		&report.Filepath,
		&report.Filename,
		&report.PlotFilepath,
		&report.PlotFilename,
		&report.Timezone,
		&report.Units,
		&report.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("report not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session report: %w", err)
	}

	return &report, nil
}

// GetRecentReportsForSession retrieves the most recent N reports for a session
func (db *DB) GetRecentReportsForSession(sessionID string, limit int) ([]SessionReportRecord, error) {
	query := `
		SELECT id, session_id, filepath, filename, plot_filepath, plot_filename,
		       timezone, units, created_at
		FROM session_reports
		WHERE session_id = ?
		ORDER BY created_at DESC
		LIMIT ?
	`

	rows, err := db.DB.Query(query, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query session reports: %w", err)
	}
	defer rows.Close()

	var reports []SessionReportRecord
	for rows.Next() {
		var report SessionReportRecord
		err := rows.Scan(
			&report.ID,
			&report.SessionID,
			&report.Filepath,
			&report.Filename,
			&report.PlotFilepath,
			&report.PlotFilename,
			&report.Timezone,
			&report.Units,
			&report.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session report: %w", err)
		}
		reports = append(reports, report)
	}

	return reports, nil
}

// GetRecentReports retrieves the most recent N reports across all sessions
func (db *DB) GetRecentReports(limit int) ([]SessionReportRecord, error) {
	query := `
		SELECT id, session_id, filepath, filename, plot_filepath, plot_filename,
		       timezone, units, created_at
		FROM session_reports
		ORDER BY created_at DESC
		LIMIT ?
	`

	rows, err := db.DB.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query session reports: %w", err)
	}
	defer rows.Close()

	var reports []SessionReportRecord
	for rows.Next() {
		var report SessionReportRecord
		err := rows.Scan(
			&report.ID,
			&report.SessionID,
			&report.Filepath,
			&report.Filename,
			&report.PlotFilepath,
			&report.PlotFilename,
			&report.Timezone,
			&report.Units,
			&report.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session report: %w", err)
		}
		reports = append(reports, report)
	}

	return reports, nil
}

// DeleteSessionReport deletes a session report by ID
func (db *DB) DeleteSessionReport(id int) error {
	query := `DELETE FROM session_reports WHERE id = ?`

	result, err := db.DB.Exec(query, id)
	if err != nil {
		return fmt.Errorf("failed to delete session report: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("report not found")
	}

	return nil
}

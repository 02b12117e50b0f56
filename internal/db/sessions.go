package db

import (
	"database/sql"
	"fmt"
	"time"
)

// CaptureSession is the archived summary of one capture run.
type CaptureSession struct {
	ID             string     `json:"id"`
	Operator       string     `json:"operator"`
	StartedAt      time.Time  `json:"started_at"`
	EndedAt        *time.Time `json:"ended_at"`
	SampleCount    int        `json:"sample_count"`
	GoodCount      int        `json:"good_count"`
	FairCount      int        `json:"fair_count"`
	PoorCount      int        `json:"poor_count"`
	DistanceMeters float64    `json:"distance_meters"`
	CreatedAt      time.Time  `json:"created_at"`
}

// CreateCaptureSession records the start of a session.
func (db *DB) CreateCaptureSession(session *CaptureSession) error {
	query := `
		INSERT INTO capture_sessions (id, operator, started_at)
		VALUES (?, ?, ?)
	`

	_, err := db.DB.Exec(query, session.ID, session.Operator, session.StartedAt)
	if err != nil {
		return fmt.Errorf("failed to create capture session: %w", err)
	}

	return nil
}

// FinishCaptureSession records the end-of-session summary.
func (db *DB) FinishCaptureSession(session *CaptureSession) error {
	query := `
		UPDATE capture_sessions
		SET ended_at = ?, sample_count = ?, good_count = ?,
		    fair_count = ?, poor_count = ?, distance_meters = ?
		WHERE id = ?
	`

	result, err := db.DB.Exec(
		query,
		session.EndedAt,
		session.SampleCount,
		session.GoodCount,
		session.FairCount,
		session.PoorCount,
		session.DistanceMeters,
		session.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to finish capture session: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("capture session not found")
	}

	return nil
}

// GetCaptureSession retrieves a session by ID.
func (db *DB) GetCaptureSession(id string) (*CaptureSession, error) {
	query := `
		SELECT id, operator, started_at, ended_at, sample_count,
		       good_count, fair_count, poor_count, distance_meters, created_at
		FROM capture_sessions
		WHERE id = ?
	`

	var session CaptureSession
	err := db.DB.QueryRow(query, id).Scan(
		&session.ID,
		&session.Operator,
		&session.StartedAt,
		&session.EndedAt,
		&session.SampleCount,
		&session.GoodCount,
		&session.FairCount,
		&session.PoorCount,
		&session.DistanceMeters,
		&session.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("capture session not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get capture session: %w", err)
	}

	return &session, nil
}

// ListCaptureSessions retrieves the most recent N sessions, newest first.
func (db *DB) ListCaptureSessions(limit int) ([]CaptureSession, error) {
	query := `
		SELECT id, operator, started_at, ended_at, sample_count,
		       good_count, fair_count, poor_count, distance_meters, created_at
		FROM capture_sessions
		ORDER BY created_at DESC
		LIMIT ?
	`

	rows, err := db.DB.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query capture sessions: %w", err)
	}
	defer rows.Close()

	var sessions []CaptureSession
	for rows.Next() {
		var session CaptureSession
		err := rows.Scan(
			&session.ID,
			&session.Operator,
			&session.StartedAt,
			&session.EndedAt,
			&session.SampleCount,
			&session.GoodCount,
			&session.FairCount,
			&session.PoorCount,
			&session.DistanceMeters,
			&session.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan capture session: %w", err)
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return sessions, nil
}

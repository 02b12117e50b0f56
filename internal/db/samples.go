package db

import (
	"database/sql"
	"fmt"
	"time"
)

// SampleRecord is one archived road-quality observation.
type SampleRecord struct {
	ID          string    `json:"id"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	Rating      string    `json:"rating"`
	Image       []byte    `json:"-"`
	ImageWidth  int       `json:"image_width"`
	ImageHeight int       `json:"image_height"`
	UserID      string    `json:"user_id"`
	ImageSize   int       `json:"image_size"`
	CapturedAt  time.Time `json:"captured_at"`
	CreatedAt   time.Time `json:"created_at"`
}

// InsertSample stores a sample. The image blob is stored as-is.
func (db *DB) InsertSample(sample *SampleRecord) error {
	query := `
		INSERT INTO samples (
			id, latitude, longitude, rating, image,
			image_width, image_height, user_id, captured_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := db.DB.Exec(
		query,
		sample.ID,
		sample.Latitude,
		sample.Longitude,
		sample.Rating,
		sample.Image,
		sample.ImageWidth,
		sample.ImageHeight,
		sample.UserID,
		sample.CapturedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert sample: %w", err)
	}

	return nil
}

// GetSample retrieves a sample by ID, without its image blob.
func (db *DB) GetSample(id string) (*SampleRecord, error) {
	query := `
		SELECT id, latitude, longitude, rating, image_width, image_height,
		       user_id, LENGTH(COALESCE(image, '')), captured_at, created_at
		FROM samples
		WHERE id = ?
	`

	var sample SampleRecord
	err := db.DB.QueryRow(query, id).Scan(
		&sample.ID,
		&sample.Latitude,
		&sample.Longitude,
		&sample.Rating,
		&sample.ImageWidth,
		&sample.ImageHeight,
		&sample.UserID,
		&sample.ImageSize,
		&sample.CapturedAt,
		&sample.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("sample not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sample: %w", err)
	}

	return &sample, nil
}

// GetSampleImage retrieves just the image blob for a sample.
func (db *DB) GetSampleImage(id string) ([]byte, error) {
	var image []byte
	err := db.DB.QueryRow(`SELECT image FROM samples WHERE id = ?`, id).Scan(&image)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("sample not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sample image: %w", err)
	}
	if len(image) == 0 {
		return nil, fmt.Errorf("sample has no image")
	}

	return image, nil
}

// ListSamples retrieves the most recent N samples, newest first, without
// image blobs.
func (db *DB) ListSamples(limit int) ([]SampleRecord, error) {
	query := `
		SELECT id, latitude, longitude, rating, image_width, image_height,
		       user_id, LENGTH(COALESCE(image, '')), captured_at, created_at
		FROM samples
		ORDER BY created_at DESC
		LIMIT ?
	`

	rows, err := db.DB.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query samples: %w", err)
	}
	defer rows.Close()

	var samples []SampleRecord
	for rows.Next() {
		var sample SampleRecord
		err := rows.Scan(
			&sample.ID,
			&sample.Latitude,
			&sample.Longitude,
			&sample.Rating,
			&sample.ImageWidth,
			&sample.ImageHeight,
			&sample.UserID,
			&sample.ImageSize,
			&sample.CapturedAt,
			&sample.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sample: %w", err)
		}
		samples = append(samples, sample)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return samples, nil
}

// SamplesForSession retrieves the samples captured during a session's time
// window, oldest first, without image blobs. The archive keys samples by
// capture time rather than session id, so an unfinished session covers
// everything from its start onward.
func (db *DB) SamplesForSession(sessionID string) ([]SampleRecord, error) {
	session, err := db.GetCaptureSession(sessionID)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT id, latitude, longitude, rating, image_width, image_height,
		       user_id, LENGTH(COALESCE(image, '')), captured_at, created_at
		FROM samples
		WHERE captured_at >= ?
	`
	args := []interface{}{session.StartedAt}
	if session.EndedAt != nil {
		query += ` AND captured_at <= ?`
		args = append(args, *session.EndedAt)
	}
	query += ` ORDER BY captured_at ASC`

	rows, err := db.DB.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query session samples: %w", err)
	}
	defer rows.Close()

	var samples []SampleRecord
	for rows.Next() {
		var sample SampleRecord
		err := rows.Scan(
			&sample.ID,
			&sample.Latitude,
			&sample.Longitude,
			&sample.Rating,
			&sample.ImageWidth,
			&sample.ImageHeight,
			&sample.UserID,
			&sample.ImageSize,
			&sample.CapturedAt,
			&sample.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sample: %w", err)
		}
		samples = append(samples, sample)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return samples, nil
}

// CountSamplesByRating returns sample counts keyed by rating label.
func (db *DB) CountSamplesByRating() (map[string]int, error) {
	rows, err := db.DB.Query(`SELECT rating, COUNT(*) FROM samples GROUP BY rating`)
	if err != nil {
		return nil, fmt.Errorf("failed to count samples: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var rating string
		var count int
		if err := rows.Scan(&rating, &count); err != nil {
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		counts[rating] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return counts, nil
}

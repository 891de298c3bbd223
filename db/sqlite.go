package db

import (
	"database/sql"
	"errors"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

var database *sql.DB

// InitDB initializes the SQLite database holding the prediction audit log
func InitDB(path string) error {
	var err error
	database, err = sql.Open("sqlite3", path)
	if err != nil {
		return err
	}

	query := `
    CREATE TABLE IF NOT EXISTS predictions (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        title TEXT,
        category TEXT NOT NULL,
        confidence REAL NOT NULL,
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP
    );
    `

	_, err = database.Exec(query)
	return err
}

// Close closes the database handle
func Close() error {
	if database == nil {
		return nil
	}
	err := database.Close()
	database = nil
	return err
}

type PredictionRow struct {
	ID         int64     `json:"id"`
	Title      string    `json:"title,omitempty"`
	Category   string    `json:"category"`
	Confidence float64   `json:"confidence"`
	CreatedAt  time.Time `json:"created_at"`
}

// SavePrediction appends one served prediction to the audit log
func SavePrediction(title, category string, confidence float64) error {
	if database == nil {
		return errors.New("database not initialized")
	}
	_, err := database.Exec(`
        INSERT INTO predictions (title, category, confidence)
        VALUES (?, ?, ?)`,
		title, category, confidence)
	return err
}

// RecentPredictions returns the most recent audit log rows, newest first
func RecentPredictions(limit int) ([]PredictionRow, error) {
	if database == nil {
		return nil, errors.New("database not initialized")
	}
	if limit <= 0 {
		limit = 100
	}
	rows, err := database.Query(`
        SELECT id, title, category, confidence, created_at
        FROM predictions
        ORDER BY id DESC
        LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var predictions []PredictionRow
	for rows.Next() {
		var p PredictionRow
		var title sql.NullString
		if err := rows.Scan(&p.ID, &title, &p.Category, &p.Confidence, &p.CreatedAt); err != nil {
			return nil, err
		}
		if title.Valid {
			p.Title = title.String
		}
		predictions = append(predictions, p)
	}
	return predictions, rows.Err()
}

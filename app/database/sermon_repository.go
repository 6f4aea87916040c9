package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// ErrDuplicate is returned by Insert when a uniqueness constraint on
// audio_url, file_path or id rejects the row. Callers treat this as a benign
// race outcome, not a failure: the store's own constraint is the authority
// for check-then-insert races.
var ErrDuplicate = errors.New("sermon already exists")

// ErrNotFound is returned by GetByID for unknown ids.
var ErrNotFound = errors.New("sermon not found")

// TimeLayout is the storage format for fetched_date. Second precision, and
// lexicographic order equals chronological order, so the date filter in
// ListSince can compare strings the same way the schema intends.
const TimeLayout = "2006-01-02 15:04:05"

var _ SermonRepositoryInterface = (*SermonRepository)(nil)

// SermonRepository handles database operations for sermons
type SermonRepository struct {
	db *DB
}

// NewSermonRepository creates a new sermon repository
func NewSermonRepository(db *DB) *SermonRepository {
	return &SermonRepository{db: db}
}

// Insert stores a sermon inside a transaction. A uniqueness-constraint
// violation rolls back and surfaces as ErrDuplicate; any other failure rolls
// back and is returned as-is.
func (r *SermonRepository) Insert(sermon Sermon) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	_, err = tx.Exec(`
		INSERT INTO sermons (id, title, audio_url, file_path, categories, fetched_date)
		VALUES (?, ?, ?, ?, ?, ?)
	`, sermon.ID, sermon.Title, sermon.AudioURL, sermon.FilePath,
		sermon.Categories, sermon.FetchedDate.Format(TimeLayout))

	if err != nil {
		tx.Rollback()
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to insert sermon: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit sermon insert: %w", err)
	}

	return nil
}

// ExistsByAudioURL reports whether any sermon was ingested from the given URL
func (r *SermonRepository) ExistsByAudioURL(audioURL string) (bool, error) {
	return r.exists("audio_url", audioURL)
}

// ExistsByFilePath reports whether any sermon references the given local path
func (r *SermonRepository) ExistsByFilePath(filePath string) (bool, error) {
	return r.exists("file_path", filePath)
}

// ExistsByTitle reports whether any sermon carries the given title
func (r *SermonRepository) ExistsByTitle(title string) (bool, error) {
	return r.exists("title", title)
}

func (r *SermonRepository) exists(column, value string) (bool, error) {
	var count int
	query := fmt.Sprintf("SELECT COUNT(*) FROM sermons WHERE %s = ?", column)
	if err := r.db.QueryRow(query, value).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check %s: %w", column, err)
	}
	return count > 0, nil
}

// GetByID returns the sermon with the given id, or ErrNotFound
func (r *SermonRepository) GetByID(id string) (*Sermon, error) {
	var sermon Sermon
	var fetchedDate string

	err := r.db.QueryRow(`
		SELECT id, title, audio_url, file_path, COALESCE(categories, ''), fetched_date
		FROM sermons
		WHERE id = ?
	`, id).Scan(&sermon.ID, &sermon.Title, &sermon.AudioURL,
		&sermon.FilePath, &sermon.Categories, &fetchedDate)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sermon: %w", err)
	}

	sermon.FetchedDate, err = time.ParseInLocation(TimeLayout, fetchedDate, time.Local)
	if err != nil {
		return nil, fmt.Errorf("failed to parse fetched_date: %w", err)
	}

	return &sermon, nil
}

// ListSince returns all sermons fetched at or after the given time,
// newest first
func (r *SermonRepository) ListSince(since time.Time) ([]Sermon, error) {
	rows, err := r.db.Query(`
		SELECT id, title, audio_url, file_path, COALESCE(categories, ''), fetched_date
		FROM sermons
		WHERE fetched_date >= ?
		ORDER BY fetched_date DESC
	`, since.Format(TimeLayout))
	if err != nil {
		return nil, fmt.Errorf("failed to list sermons: %w", err)
	}
	defer rows.Close()

	var sermons []Sermon
	for rows.Next() {
		var sermon Sermon
		var fetchedDate string

		err := rows.Scan(&sermon.ID, &sermon.Title, &sermon.AudioURL,
			&sermon.FilePath, &sermon.Categories, &fetchedDate)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sermon row: %w", err)
		}

		sermon.FetchedDate, err = time.ParseInLocation(TimeLayout, fetchedDate, time.Local)
		if err != nil {
			return nil, fmt.Errorf("failed to parse fetched_date: %w", err)
		}

		sermons = append(sermons, sermon)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sermon rows: %w", err)
	}

	return sermons, nil
}

// GetSermonCount returns the total number of stored sermons
func (r *SermonRepository) GetSermonCount() (int, error) {
	var count int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM sermons").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to get sermon count: %w", err)
	}
	return count, nil
}

func isUniqueViolation(err error) bool {
	var serr *sqlite.Error
	if !errors.As(err, &serr) {
		return false
	}
	switch serr.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	}
	return false
}

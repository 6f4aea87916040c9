package database

import (
	"time"
)

// Sermon is one ingested sermon. Rows are written exactly once and never
// updated: AudioURL and FilePath are both unique across the table.
type Sermon struct {
	ID          string
	Title       string
	AudioURL    string
	FilePath    string
	Categories  string // comma-joined tag list, "Uncategorized" when absent
	FetchedDate time.Time
}

package database

import "time"

type SermonRepositoryInterface interface {
	Insert(sermon Sermon) error
	ExistsByAudioURL(audioURL string) (bool, error)
	ExistsByFilePath(filePath string) (bool, error)
	ExistsByTitle(title string) (bool, error)
	GetByID(id string) (*Sermon, error)
	ListSince(since time.Time) ([]Sermon, error)
	GetSermonCount() (int, error)
}

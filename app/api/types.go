package api

import (
	"github.com/tcf-av/sermon-vault/app/database"
	"github.com/tcf-av/sermon-vault/app/source"
	"github.com/tcf-av/sermon-vault/app/tasks"
)

type Handler struct {
	repo      database.SermonRepositoryInterface
	configs   map[string]*source.Config
	scheduler tasks.TaskSchedulerInterface
	baseUrl   string
}

// SermonResponse is one sermon as served by GET /sermons, augmented with
// the computed download URL for its audio file
type SermonResponse struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	AudioURL    string `json:"audio_url"`
	Categories  string `json:"categories"`
	FetchedDate string `json:"fetched_date"`
	DownloadURL string `json:"download_url"`
}

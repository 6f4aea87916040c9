package api

import (
	"errors"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tcf-av/sermon-vault/app/database"
	"github.com/tcf-av/sermon-vault/app/source"
	"github.com/tcf-av/sermon-vault/app/tasks"
)

func NewHandler(repo database.SermonRepositoryInterface, configs map[string]*source.Config,
	scheduler tasks.TaskSchedulerInterface, baseUrl string) *Handler {
	return &Handler{
		repo:      repo,
		configs:   configs,
		scheduler: scheduler,
		baseUrl:   baseUrl,
	}
}

// GetSermons serves GET /sermons?date=YYYY-MM-DD: every sermon fetched on or
// after the given date at midnight, newest first
func (h *Handler) GetSermons(c *gin.Context) {
	dateParam := strings.TrimSpace(c.Query("date"))
	if dateParam == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing date parameter. Expected format: YYYY-MM-DD"})
		return
	}

	since, err := time.ParseInLocation("2006-01-02", dateParam, time.Local)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date format. Expected format: YYYY-MM-DD"})
		return
	}

	sermons, err := h.repo.ListSince(since)
	if err != nil {
		slog.Error("Database error", "operation", "list_sermons", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve sermons"})
		return
	}

	base := h.downloadBase(c)
	response := make([]SermonResponse, 0, len(sermons))
	for _, sermon := range sermons {
		response = append(response, SermonResponse{
			ID:          sermon.ID,
			Title:       sermon.Title,
			AudioURL:    sermon.AudioURL,
			Categories:  sermon.Categories,
			FetchedDate: sermon.FetchedDate.Format(database.TimeLayout),
			DownloadURL: base + "/download/" + sermon.ID,
		})
	}

	c.JSON(http.StatusOK, response)
}

// DownloadSermon serves GET /download/:id: the stored audio file as an
// attachment
func (h *Handler) DownloadSermon(c *gin.Context) {
	id := c.Param("id")

	sermon, err := h.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Sermon not found"})
			return
		}
		slog.Error("Database error", "operation", "get_sermon", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve sermon"})
		return
	}

	c.FileAttachment(sermon.FilePath, filepath.Base(sermon.FilePath))
}

// TriggerIngest serves POST /api/sources/:name/ingest: an on-demand
// ingestion pass, collapsed against any pass already in flight
func (h *Handler) TriggerIngest(c *gin.Context) {
	name := c.Param("name")

	err := h.scheduler.TriggerSource(name)
	switch {
	case err == nil:
		c.JSON(http.StatusAccepted, gin.H{"status": "queued", "source": name})
	case errors.Is(err, tasks.ErrUnknownSource):
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown source"})
	case errors.Is(err, tasks.ErrPassInFlight):
		c.JSON(http.StatusConflict, gin.H{"error": "Ingestion pass already in flight"})
	default:
		slog.Error("Failed to trigger ingestion", "source", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to trigger ingestion"})
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if count, err := h.repo.GetSermonCount(); err == nil {
		health["sermons"] = count
	}

	health["loaded_sources"] = len(h.configs)

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	sources := make([]map[string]interface{}, 0, len(h.configs))
	for name, config := range h.configs {
		info := map[string]interface{}{
			"name":     name,
			"type":     string(config.Type),
			"enabled":  config.Settings.Enabled,
			"interval": (time.Duration(config.Settings.Interval) * time.Second).String(),
		}
		if summary, ok := h.scheduler.LastSummary(name); ok {
			info["last_pass"] = summary
		}
		sources = append(sources, info)
	}

	stats := map[string]interface{}{
		"sources": sources,
	}
	if count, err := h.repo.GetSermonCount(); err == nil {
		stats["sermons"] = count
	}

	c.JSON(http.StatusOK, stats)
}

// downloadBase returns the configured public base URL, falling back to the
// request's own host
func (h *Handler) downloadBase(c *gin.Context) string {
	if h.baseUrl != "" {
		return strings.TrimSuffix(h.baseUrl, "/")
	}

	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + c.Request.Host
}

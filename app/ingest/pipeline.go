package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/tcf-av/sermon-vault/app/database"
	"github.com/tcf-av/sermon-vault/app/fetcher"
	"github.com/tcf-av/sermon-vault/app/source"
)

// Summary reports the outcome of one ingestion pass over one source.
type Summary struct {
	Total    int `json:"total"`
	Inserted int `json:"inserted"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
}

// Pipeline runs ingestion passes: fetch candidates from a source, resolve
// duplicates against the store, reconcile filesystem drift, download audio
// and commit metadata. Candidates are processed strictly sequentially; one
// candidate's failure never aborts the pass.
type Pipeline struct {
	repo     database.SermonRepositoryInterface
	fetcher  *fetcher.Fetcher
	filterer *source.Filterer
}

func NewPipeline(repo database.SermonRepositoryInterface, f *fetcher.Fetcher) *Pipeline {
	return &Pipeline{
		repo:     repo,
		fetcher:  f,
		filterer: source.NewFilterer(),
	}
}

// Run executes one pass over the given source. Source retrieval failure and
// store failure are pass-level errors; everything else is contained per
// candidate and reflected in the summary.
func (p *Pipeline) Run(ctx context.Context, src source.Source, config *source.Config) (Summary, error) {
	var summary Summary

	candidates, err := src.Fetch(ctx)
	if err != nil {
		return summary, fmt.Errorf("source %s: %w", src.Name(), err)
	}

	candidates, excluded := p.filterer.Run(candidates, config)
	summary.Total = len(candidates) + excluded
	summary.Skipped += excluded

	for _, candidate := range candidates {
		// Cancellation point between candidates, never mid-download
		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		outcome, err := p.processCandidate(ctx, candidate)
		if err != nil {
			// Store errors mean duplicate detection cannot be trusted
			return summary, fmt.Errorf("source %s: %w", src.Name(), err)
		}

		switch outcome {
		case outcomeInserted:
			summary.Inserted++
		case outcomeSkipped:
			summary.Skipped++
		case outcomeFailed:
			summary.Failed++
		}
	}

	return summary, nil
}

type outcome int

const (
	outcomeInserted outcome = iota
	outcomeSkipped
	outcomeFailed
)

func (p *Pipeline) processCandidate(ctx context.Context, candidate source.Candidate) (outcome, error) {
	derivedPath, err := p.fetcher.DerivePath(candidate.AudioURL)
	if err != nil {
		slog.Error("Cannot derive file path for candidate", "title", candidate.Title, "audio_url", candidate.AudioURL, "error", err)
		return outcomeFailed, nil
	}

	duplicate, err := p.isDuplicate(candidate, derivedPath)
	if err != nil {
		return outcomeFailed, err
	}
	if duplicate {
		slog.Info("Duplicate sermon, skipping", "title", candidate.Title, "path", derivedPath)
		return outcomeSkipped, nil
	}

	// Drift: a file at the derived path with no referencing row means an
	// earlier pass downloaded it but never committed metadata. Delete it so
	// the download below starts clean.
	if _, statErr := os.Stat(derivedPath); statErr == nil {
		slog.Info("Audio file exists on disk without a record, removing to force re-download", "path", derivedPath)
		if err := os.Remove(derivedPath); err != nil {
			slog.Error("Failed to remove stale audio file", "path", derivedPath, "error", err)
			return outcomeFailed, nil
		}
	}

	filePath, err := p.fetcher.Fetch(ctx, candidate.AudioURL)
	if err != nil {
		slog.Error("Download failed for candidate", "title", candidate.Title, "audio_url", candidate.AudioURL, "error", err)
		return outcomeFailed, nil
	}

	// The fetcher's actual output path is authoritative for the record
	if filePath != derivedPath {
		slog.Warn("Derived file path differs from downloaded path", "derived", derivedPath, "actual", filePath, "title", candidate.Title)
	}

	sermon := database.Sermon{
		ID:          uuid.NewString(),
		Title:       candidate.Title,
		AudioURL:    candidate.AudioURL,
		FilePath:    filePath,
		Categories:  candidate.Categories,
		FetchedDate: time.Now().Truncate(time.Second),
	}

	if err := p.repo.Insert(sermon); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			// Benign: a duplicate slipped past the check-then-insert window
			// and the store's constraint caught it
			slog.Info("Sermon already exists (detected at insert)", "title", candidate.Title, "path", filePath)
			return outcomeSkipped, nil
		}
		slog.Error("Failed to insert sermon", "title", candidate.Title, "audio_url", candidate.AudioURL, "error", err)
		return outcomeFailed, nil
	}

	slog.Info("Sermon ingested", "title", candidate.Title, "id", sermon.ID, "path", filePath)
	return outcomeInserted, nil
}

// isDuplicate applies the three-key OR policy: a match on audio URL, derived
// file path, or title is each sufficient on its own. Title matching can
// reject genuinely distinct sermons sharing a title; missed ingestion is
// preferred over duplicate storage.
func (p *Pipeline) isDuplicate(candidate source.Candidate, derivedPath string) (bool, error) {
	if exists, err := p.repo.ExistsByAudioURL(candidate.AudioURL); err != nil {
		return false, fmt.Errorf("duplicate check failed: %w", err)
	} else if exists {
		return true, nil
	}

	if exists, err := p.repo.ExistsByFilePath(derivedPath); err != nil {
		return false, fmt.Errorf("duplicate check failed: %w", err)
	} else if exists {
		return true, nil
	}

	if exists, err := p.repo.ExistsByTitle(candidate.Title); err != nil {
		return false, fmt.Errorf("duplicate check failed: %w", err)
	} else if exists {
		return true, nil
	}

	return false, nil
}

package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tcf-av/sermon-vault/app/ingest"
	"github.com/tcf-av/sermon-vault/app/source"
)

type IngestSourceTask struct {
	Task
	SourceConfig *source.Config
	src          source.Source
	pipeline     *ingest.Pipeline
	onComplete   func(sourceName string, summary ingest.Summary)
}

func NewIngestSourceTask(sourceConfig *source.Config, src source.Source,
	pipeline *ingest.Pipeline, onComplete func(string, ingest.Summary)) *IngestSourceTask {
	return &IngestSourceTask{
		Task:         NewTask(TaskTypeIngestSource, sourceConfig.Name),
		SourceConfig: sourceConfig,
		src:          src,
		pipeline:     pipeline,
		onComplete:   onComplete,
	}
}

func (t *IngestSourceTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	summary, err := t.pipeline.Run(ctx, t.src, t.SourceConfig)
	if err != nil {
		slog.Error("Task failed", "type", "IngestSource", "source", t.SourceName, "error", err)
		return fmt.Errorf("ingestion pass failed: %w", err)
	}

	if t.onComplete != nil {
		t.onComplete(t.SourceName, summary)
	}

	slog.Info("Task completed",
		"type", "IngestSource",
		"source", t.SourceName,
		"duration", t.GetDuration(),
		"total", summary.Total,
		"inserted", summary.Inserted,
		"skipped", summary.Skipped,
		"failed", summary.Failed)

	return nil
}

package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/tcf-av/sermon-vault/app/cfg"
	"github.com/tcf-av/sermon-vault/app/ingest"
	"github.com/tcf-av/sermon-vault/app/source"
)

// ErrPassInFlight is returned when a trigger arrives for a source whose
// ingestion pass is already queued or running. Overlapping passes would race
// on the duplicate-check-then-insert sequence, so triggers collapse instead.
var ErrPassInFlight = errors.New("ingestion pass already in flight")

// ErrUnknownSource is returned for triggers naming an unconfigured source.
var ErrUnknownSource = errors.New("unknown source")

var _ TaskSchedulerInterface = (*Scheduler)(nil)

// Scheduler drives periodic and on-demand ingestion passes. A single worker
// goroutine executes tasks, so passes are strictly sequential; the in-flight
// set collapses duplicate triggers per source.
type Scheduler struct {
	configs     map[string]*source.Config
	sources     map[string]source.Source
	pipeline    *ingest.Pipeline
	interval    time.Duration
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	taskQueue   chan TaskInterface
	mu          sync.Mutex
	inFlight    map[string]bool
	lastRun     map[string]time.Time
	lastSummary map[string]ingest.Summary
}

func NewScheduler(configs map[string]*source.Config, sources map[string]source.Source,
	pipeline *ingest.Pipeline) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		configs:     configs,
		sources:     sources,
		pipeline:    pipeline,
		interval:    time.Duration(cfg.Get().SchedulerInterval) * time.Second,
		ctx:         ctx,
		cancel:      cancel,
		taskQueue:   make(chan TaskInterface, 100),
		inFlight:    make(map[string]bool),
		lastRun:     make(map[string]time.Time),
		lastSummary: make(map[string]ingest.Summary),
	}
}

func (s *Scheduler) Start() {
	s.wg.Add(1)
	go s.worker()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.enqueueDueTasks()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.enqueueDueTasks()
			}
		}
	}()
}

func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
	close(s.taskQueue)
}

// TriggerSource enqueues an on-demand pass for the named source,
// collapsing against any pass already queued or running
func (s *Scheduler) TriggerSource(sourceName string) error {
	config, ok := s.configs[sourceName]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSource, sourceName)
	}

	return s.enqueueSource(config)
}

// LastSummary returns the outcome of the most recent completed pass
// for the named source
func (s *Scheduler) LastSummary(sourceName string) (ingest.Summary, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	summary, ok := s.lastSummary[sourceName]
	return summary, ok
}

func (s *Scheduler) enqueueDueTasks() {
	now := time.Now()

	for name, config := range s.configs {
		if !config.Settings.Enabled {
			slog.Debug("Source disabled, skipping", "source", name)
			continue
		}

		s.mu.Lock()
		last, ran := s.lastRun[name]
		s.mu.Unlock()

		if ran && now.Sub(last) < time.Duration(config.Settings.Interval)*time.Second {
			slog.Debug("Source not due for ingestion yet", "source", name, "last_run", last)
			continue
		}

		if err := s.enqueueSource(config); err != nil {
			if errors.Is(err, ErrPassInFlight) {
				slog.Debug("Pass already in flight, trigger collapsed", "source", name)
			} else {
				slog.Warn("Failed to enqueue IngestSourceTask", "source", name, "error", err)
			}
		}
	}
}

func (s *Scheduler) enqueueSource(config *source.Config) error {
	src, ok := s.sources[config.Name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSource, config.Name)
	}

	s.mu.Lock()
	if s.inFlight[config.Name] {
		s.mu.Unlock()
		return ErrPassInFlight
	}
	s.inFlight[config.Name] = true
	s.mu.Unlock()

	task := NewIngestSourceTask(config, src, s.pipeline, s.recordSummary)
	if err := s.enqueue(task); err != nil {
		s.clearInFlight(config.Name)
		return err
	}

	return nil
}

// enqueue pushes a task whose in-flight slot is already held
func (s *Scheduler) enqueue(task TaskInterface) error {
	select {
	case s.taskQueue <- task:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
		return fmt.Errorf("task queue is full")
	}
}

func (s *Scheduler) recordSummary(sourceName string, summary ingest.Summary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSummary[sourceName] = summary
}

func (s *Scheduler) clearInFlight(sourceName string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight[sourceName] = false
	s.lastRun[sourceName] = time.Now()
}

func (s *Scheduler) worker() {
	defer s.wg.Done()

	for {
		select {
		case task, ok := <-s.taskQueue:
			if !ok {
				return
			}
			s.executeTask(task)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(task TaskInterface) {
	task.Start()

	// Generous ceiling: a full pass may download many audio files
	taskCtx, cancel := context.WithTimeout(s.ctx, 30*time.Minute)
	defer cancel()

	err := task.Execute(taskCtx)

	if err == nil {
		s.clearInFlight(task.GetSourceName())
		return
	}

	slog.Error("Worker task execution failed", "type", string(task.GetType()), "id", task.GetID(), "source", task.GetSourceName(), "retry_count", task.GetRetryCount(), "error", err)

	if !task.CanRetry() {
		slog.Error("Task failed after maximum retries", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "last_error", err)
		s.clearInFlight(task.GetSourceName())
		return
	}

	task.IncrementRetryCount()
	retryDelay := time.Duration(1<<uint(task.GetRetryCount()-1)) * time.Second
	if retryDelay > 30*time.Second {
		retryDelay = 30 * time.Second
	}

	slog.Warn("Task retry scheduled", "type", string(task.GetType()), "source", task.GetSourceName(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "delay", retryDelay.String())

	// The retrying task keeps its in-flight slot so parallel triggers
	// still collapse against it
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		select {
		case <-s.ctx.Done():
			slog.Debug("Scheduler stopped, skipping task retry", "type", string(task.GetType()), "id", task.GetID())
			return
		case <-time.After(retryDelay):
		}

		if retryErr := s.enqueue(task); retryErr != nil {
			slog.Error("Failed to re-enqueue task for retry", "type", string(task.GetType()), "id", task.GetID(), "error", retryErr)
			s.clearInFlight(task.GetSourceName())
		}
	}()
}

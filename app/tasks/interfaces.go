package tasks

import "github.com/tcf-av/sermon-vault/app/ingest"

// TaskSchedulerInterface is the scheduling surface used by the main
// application and the HTTP API. Triggering is collapse-on-overlap: a trigger
// for a source whose pass is already queued or running is rejected with
// ErrPassInFlight rather than run concurrently.
type TaskSchedulerInterface interface {
	Start()
	Stop()
	TriggerSource(sourceName string) error
	LastSummary(sourceName string) (ingest.Summary, bool)
}

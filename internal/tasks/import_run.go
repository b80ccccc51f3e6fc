package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"
)

// ImportRunTask asks a worker to run one full import of an export file.
type ImportRunTask struct {
	ExportPath string `json:"export_path"`
}

// Config returns the queue configuration for import runs. A failed run is
// not retried automatically: reruns are cheap and idempotent, but they
// should be a deliberate operator action, not a background surprise.
func (t ImportRunTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "import_run",
		MaxAttempts: 1,
		Backoff:     time.Minute,
		Timeout:     2 * time.Hour,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// ImportRunner is what the queue needs to execute an import.
type ImportRunner interface {
	RunImport(ctx context.Context, exportPath string) error
}

// ImportRunProcessor creates a processor function for ImportRunTask.
func ImportRunProcessor(runner ImportRunner) backlite.QueueProcessor[ImportRunTask] {
	return func(ctx context.Context, task ImportRunTask) error {
		if runner == nil {
			return fmt.Errorf("import runner not configured")
		}

		start := time.Now()
		if err := runner.RunImport(ctx, task.ExportPath); err != nil {
			return fmt.Errorf("import %s: %w", task.ExportPath, err)
		}

		log.Printf("[TASK] Import of %s finished in %v", task.ExportPath, time.Since(start).Round(time.Millisecond))
		return nil
	}
}

// NewImportRunQueue creates a backlite queue for import runs.
func NewImportRunQueue(runner ImportRunner) backlite.Queue {
	return backlite.NewQueue(ImportRunProcessor(runner))
}

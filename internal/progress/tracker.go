// Package progress persists the observable state of an import run. The
// tracker is a one-way reporting channel: writers update it, the status
// command reads it, and nothing in the pipeline depends on it working.
package progress

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"wpmigrate/internal/entities"
)

// ErrNoRun means no import has recorded state yet.
var ErrNoRun = errors.New("no import run recorded")

// Storage is the slice of the storage facility the tracker writes
// through.
type Storage interface {
	Exists(path string) bool
	ReadFile(path string) ([]byte, error)
	WriteFile(path string, content io.Reader) error
}

// Tracker keeps the current run state in memory and mirrors persisted
// updates to a JSON state file. Safe for concurrent use.
type Tracker struct {
	mu    sync.Mutex
	store Storage
	path  string
	state entities.ImportRun
}

func NewTracker(store Storage, path string) *Tracker {
	return &Tracker{store: store, path: path}
}

// Start opens a fresh run with a new id and persists it.
func (t *Tracker) Start(message string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now().UTC()
	t.state = entities.ImportRun{
		RunID:     uuid.New().String(),
		Status:    entities.RunStatusRunning,
		Message:   message,
		StartedAt: now,
		UpdatedAt: now,
	}
	t.persist()
}

// RunID returns the current run's id, "" before Start.
func (t *Tracker) RunID() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state.RunID
}

// Publish advances the completion percentage by delta and updates the
// message. The state file is only rewritten when persist is set;
// high-frequency updates pass false and ride along with the next
// persisted one.
func (t *Tracker) Publish(delta float64, message string, persist bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.state.Percent += delta
	if t.state.Percent > 100 {
		t.state.Percent = 100
	}
	if message != "" {
		t.state.Message = message
	}
	t.state.UpdatedAt = time.Now().UTC()
	if persist {
		t.persist()
	}
}

// UpdateCounts replaces the aggregate counters. Not persisted on its
// own.
func (t *Tracker) UpdateCounts(entriesImported, entriesFailed, mediaImported, mediaFailed, mediaSkipped, categoriesCreated int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.state.EntriesImported = entriesImported
	t.state.EntriesFailed = entriesFailed
	t.state.MediaImported = mediaImported
	t.state.MediaFailed = mediaFailed
	t.state.MediaSkipped = mediaSkipped
	t.state.CategoriesCreated = categoriesCreated
	t.state.UpdatedAt = time.Now().UTC()
}

// Fail marks the run failed with a reason and persists.
func (t *Tracker) Fail(reason string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.state.Status = entities.RunStatusFailed
	t.state.Error = reason
	t.state.UpdatedAt = time.Now().UTC()
	t.persist()
}

// Complete marks the run finished at 100% and persists.
func (t *Tracker) Complete(message string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.state.Status = entities.RunStatusCompleted
	t.state.Percent = 100
	if message != "" {
		t.state.Message = message
	}
	t.state.UpdatedAt = time.Now().UTC()
	t.persist()
}

// Read returns the last persisted run state, from any process, or
// ErrNoRun when no state file exists.
func (t *Tracker) Read() (*entities.ImportRun, error) {
	if !t.store.Exists(t.path) {
		return nil, ErrNoRun
	}
	raw, err := t.store.ReadFile(t.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read run state: %w", err)
	}
	var run entities.ImportRun
	if err := json.Unmarshal(raw, &run); err != nil {
		return nil, fmt.Errorf("failed to decode run state: %w", err)
	}
	return &run, nil
}

// persist writes the state file. Progress is observability, not control:
// a write failure is logged and the run carries on.
func (t *Tracker) persist() {
	raw, err := json.MarshalIndent(t.state, "", "  ")
	if err != nil {
		log.Printf("progress: failed to encode run state: %v", err)
		return
	}
	if err := t.store.WriteFile(t.path, bytes.NewReader(raw)); err != nil {
		log.Printf("progress: failed to write run state: %v", err)
	}
}

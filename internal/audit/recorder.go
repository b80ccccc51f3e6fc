// Package audit collects per-item failures during an import run and
// writes them out as a JSON report, so a large migration can be repaired
// selectively instead of being re-run blind.
package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Stages a failure can come from.
const (
	StageCategory = "category"
	StageMedia    = "media"
	StageEntry    = "entry"
	StageRewrite  = "rewrite"
)

// Record is one failed item with enough context to locate it in the
// export.
type Record struct {
	Stage    string    `json:"stage"`
	SourceID int64     `json:"source_id"`
	Title    string    `json:"title,omitempty"`
	Reason   string    `json:"reason"`
	At       time.Time `json:"at"`
}

// Report is the persisted shape of one run's failures.
type Report struct {
	RunID   string    `json:"run_id,omitempty"`
	Created time.Time `json:"created"`
	Records []Record  `json:"records"`
}

// Recorder accumulates failure records for one run. Safe for concurrent
// use.
type Recorder struct {
	mu        sync.Mutex
	reportDir string
	records   []Record
}

func NewRecorder(reportDir string) *Recorder {
	return &Recorder{reportDir: reportDir}
}

// Record appends one failure.
func (r *Recorder) Record(stage string, sourceID int64, title, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, Record{
		Stage:    stage,
		SourceID: sourceID,
		Title:    title,
		Reason:   reason,
		At:       time.Now().UTC(),
	})
}

// Len reports how many failures were recorded.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

// SaveReport writes the collected records to a UUID-named JSON file in
// the report directory and returns the file name. With nothing recorded
// it writes nothing and returns "".
func (r *Recorder) SaveReport(runID string) (string, error) {
	r.mu.Lock()
	records := append([]Record(nil), r.records...)
	r.mu.Unlock()

	if len(records) == 0 {
		return "", nil
	}
	if err := os.MkdirAll(r.reportDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}

	report := Report{RunID: runID, Created: time.Now().UTC(), Records: records}
	raw, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal report: %w", err)
	}

	name := fmt.Sprintf("%s.json", uuid.New().String())
	if err := os.WriteFile(filepath.Join(r.reportDir, name), raw, 0o644); err != nil {
		return "", fmt.Errorf("failed to write report file: %w", err)
	}
	return name, nil
}

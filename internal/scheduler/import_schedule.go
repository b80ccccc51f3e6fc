// Package scheduler re-runs imports on a cron schedule so large
// migrations can happen in stages: a nightly media pass first, the final
// content pass once editors sign off.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// RunFunc triggers one import. It must honor ctx cancellation; the
// orchestrator's run lock already prevents concurrent imports across
// processes.
type RunFunc func(ctx context.Context) error

// Importer manages periodic import runs.
type Importer struct {
	schedule string
	run      RunFunc

	cron       *cron.Cron
	entryID    cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	isWorking  bool
	cancelFunc context.CancelFunc
}

// NewImporter creates a scheduler for the given five-field cron schedule.
// An empty schedule produces a disabled scheduler.
func NewImporter(schedule string, run RunFunc) *Importer {
	return &Importer{
		schedule: schedule,
		run:      run,
		cron:     cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow))),
	}
}

// Start begins the scheduler if a schedule is configured.
func (s *Importer) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	if s.schedule == "" {
		log.Printf("import scheduler: disabled")
		return nil
	}

	entryID, err := s.cron.AddFunc(s.schedule, func() {
		s.runImport()
	})
	if err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", s.schedule, err)
	}
	s.entryID = entryID

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	log.Printf("import scheduler: started with schedule %q, next run %v",
		s.schedule, s.cron.Entry(entryID).Next)

	// Monitor for context cancellation
	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop gracefully stops the scheduler, waiting for a running import to
// finish.
func (s *Importer) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	s.cancelFunc = nil
	s.mu.Unlock()

	// The drain happens outside the lock: a finishing run needs it to
	// clear its in-progress flag.
	ctx := s.cron.Stop()
	<-ctx.Done()

	log.Printf("import scheduler: stopped")
}

// RunNow triggers an immediate import without waiting for the schedule.
func (s *Importer) RunNow() {
	go s.runImport()
}

// IsRunning returns whether the scheduler is active.
func (s *Importer) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// IsImporting returns whether an import is currently in progress.
func (s *Importer) IsImporting() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isWorking
}

// NextRunTime returns when the next import will start, nil when the
// scheduler is not active.
func (s *Importer) NextRunTime() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}

	for _, entry := range s.cron.Entries() {
		if entry.ID == s.entryID {
			t := entry.Next
			return &t
		}
	}
	return nil
}

// runImport performs one scheduled run, skipping when the previous one is
// still going.
func (s *Importer) runImport() {
	s.mu.Lock()
	if s.isWorking {
		s.mu.Unlock()
		log.Printf("import scheduler: run skipped (previous run still in progress)")
		return
	}
	s.isWorking = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.isWorking = false
		s.mu.Unlock()
	}()

	start := time.Now()
	log.Printf("import scheduler: starting scheduled run")

	if err := s.run(context.Background()); err != nil {
		log.Printf("import scheduler: run failed: %v", err)
		return
	}

	log.Printf("import scheduler: run finished in %v", time.Since(start).Round(time.Millisecond))
}

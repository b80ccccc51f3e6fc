package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"wpmigrate/internal/audit"
	"wpmigrate/internal/destination/gormstore"
	"wpmigrate/internal/destination/pgstore"
	"wpmigrate/internal/fetch"
	"wpmigrate/internal/hierarchy"
	"wpmigrate/internal/importer"
	"wpmigrate/internal/progress"
	"wpmigrate/internal/runlock"
	"wpmigrate/internal/storage"
)

// =============================================================================
// Destination Writers
// =============================================================================

// EntryWriter implementations
var _ importer.EntryWriter = (*gormstore.Store)(nil)
var _ importer.EntryWriter = (*pgstore.Store)(nil)

// MediaWriter implementations
var _ importer.MediaWriter = (*gormstore.Store)(nil)
var _ importer.MediaWriter = (*pgstore.Store)(nil)

// CategoryWriter implementations
var _ hierarchy.CategoryWriter = (*gormstore.Store)(nil)
var _ hierarchy.CategoryWriter = (*pgstore.Store)(nil)

// =============================================================================
// Media Transfer
// =============================================================================

// Fetcher implementations
var _ importer.Fetcher = (*fetch.Fetcher)(nil)

// Storage implementations
var _ storage.Client = (*storage.Disk)(nil)
var _ fetch.Storage = (*storage.Disk)(nil)
var _ progress.Storage = (*storage.Disk)(nil)

// =============================================================================
// Run Lifecycle
// =============================================================================

// ProgressSink implementations
var _ importer.ProgressSink = (*progress.Tracker)(nil)

// Lock implementations
var _ importer.Lock = (*runlock.FileLock)(nil)

// FailureSink implementations
var _ importer.FailureSink = (*audit.Recorder)(nil)

// Package interfaces documents the core abstractions used throughout the application.
//
// This package consolidates interface documentation to help code agents understand
// extension points and how to implement new functionality.
//
// # Interface Categories
//
// The application uses several categories of interfaces:
//
// ## Destination Writer Interfaces
//
//   - EntryWriter: Persist entries with their links, tags, fields and comments (internal/importer/orchestrator.go)
//   - MediaWriter: Persist media records for transferred files (internal/importer/orchestrator.go)
//   - CategoryWriter: Nested-interval category tree access (internal/hierarchy/builder.go)
//
// ## Media Transfer Interfaces
//
//   - Fetcher: Transfer one origin asset to local storage (internal/importer/orchestrator.go)
//   - fetch.Storage: File sink the fetcher writes into (internal/fetch/fetcher.go)
//
// ## Run Lifecycle Interfaces
//
//   - ProgressSink: Run lifecycle and progress events (internal/importer/orchestrator.go)
//   - Lock: Cross-process run exclusivity (internal/importer/orchestrator.go)
//   - FailureSink: Per-item failure collection for the post-run report (internal/importer/orchestrator.go)
//   - progress.Storage: State file persistence (internal/progress/tracker.go)
//
// ## Task Queue Interfaces
//
//   - ImportRunner: Executes a queued import run (internal/tasks/import_run.go)
//
// # Adding a New Destination Driver
//
// To write imported content into a new destination (e.g. MySQL):
//
//  1. Create a store package under internal/destination/
//
//     type Store struct { db *sql.DB }
//
//     func Connect(ctx context.Context, dsn string) (*Store, error)
//
//  2. Implement the three writer interfaces:
//
//     func (s *Store) WriteEntry(ctx context.Context, e *entities.Entry, maps *destination.Maps) (int64, error)
//     func (s *Store) WriteMedia(ctx context.Context, m *entities.Media, localPath string) (int64, string, error)
//
//     plus the five hierarchy.CategoryWriter methods. Writers must be
//     idempotent: matching on source ids, a re-run updates rows instead
//     of duplicating them.
//
//  3. Add compile-time checks here:
//
//     var _ importer.EntryWriter = (*Store)(nil)
//     var _ importer.MediaWriter = (*Store)(nil)
//     var _ hierarchy.CategoryWriter = (*Store)(nil)
//
//  4. Wire the driver switch in internal/cli/import.go
//
// # Adding a New Progress Sink
//
// To publish run progress somewhere other than the state file (e.g. a
// websocket or a metrics gateway):
//
//  1. Implement importer.ProgressSink:
//
//     type Broadcaster struct { ... }
//
//     func (b *Broadcaster) Start(message string)
//     func (b *Broadcaster) Publish(delta float64, message string, persist bool)
//     func (b *Broadcaster) UpdateCounts(entriesImported, entriesFailed, mediaImported, mediaFailed, mediaSkipped, categoriesCreated int)
//     func (b *Broadcaster) Fail(reason string)
//     func (b *Broadcaster) Complete(message string)
//
//     Published deltas across one run sum to 100.
//
//  2. Pass it as Deps.Progress when building the orchestrator
//
// # Adding a New Storage Backend
//
// To keep transferred media somewhere other than local disk (e.g. S3):
//
//  1. Implement fetch.Storage in internal/storage/
//
//     type S3 struct { client *s3.Client; bucket string }
//
//     func (s *S3) Exists(path string) bool
//     func (s *S3) WriteFile(path string, content io.Reader) error
//     func (s *S3) Remove(path string) error
//
//  2. Add a compile-time check:
//
//     var _ fetch.Storage = (*S3)(nil)
//
//  3. Root it in internal/cli/import.go instead of the disk client
//
// # Compile-Time Interface Checks
//
// All implementations should include compile-time checks to ensure they satisfy
// their interfaces. This catches missing methods at compile time rather than runtime:
//
//	var _ SomeInterface = (*MyImplementation)(nil)
//
// This pattern is used throughout the codebase. See checks.go for examples.
package interfaces

// Package importer drives a full import run: categories first, then
// media, then entries, in adaptively sized batches. Individual items are
// isolated failure boundaries; only orchestration-level errors abort a
// run.
package importer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"runtime"
	"time"

	"wpmigrate/internal/audit"
	"wpmigrate/internal/destination"
	"wpmigrate/internal/entities"
	"wpmigrate/internal/fetch"
	"wpmigrate/internal/hierarchy"
	"wpmigrate/internal/rewrite"
)

// ErrLockReleased is returned when the run lock disappears between
// batches, which is the cooperative way to stop a running import.
var ErrLockReleased = errors.New("import lock was released externally")

// Progress shares per phase. Published deltas across a run sum to 100.
const (
	categoriesShare = 10.0
	mediaShare      = 45.0
	entriesShare    = 45.0
)

const (
	DefaultBatchSize    = 50
	DefaultMinBatchSize = 10
	DefaultMaxBatchSize = 200
)

// EntryWriter persists one entry and everything hanging off it. The maps
// carry destination ids for category links and media references.
type EntryWriter interface {
	WriteEntry(ctx context.Context, e *entities.Entry, maps *destination.Maps) (int64, error)
}

// MediaWriter persists one media record whose file already sits at
// localPath, returning the destination id and the stored relative path.
type MediaWriter interface {
	WriteMedia(ctx context.Context, m *entities.Media, localPath string) (int64, string, error)
}

// Fetcher transfers one asset to local storage.
type Fetcher interface {
	Fetch(ctx context.Context, m *entities.Media) fetch.Result
}

// Rewriter adjusts one entry body for the destination.
type Rewriter interface {
	Rewrite(body string) (string, rewrite.Stats)
}

// RewriterFactory builds a Rewriter once imported media refs are known.
type RewriterFactory func(assets []*entities.Media, refs map[int64]destination.MediaRef) Rewriter

// ProgressSink receives run lifecycle events. *progress.Tracker satisfies
// it.
type ProgressSink interface {
	Start(message string)
	Publish(delta float64, message string, persist bool)
	UpdateCounts(entriesImported, entriesFailed, mediaImported, mediaFailed, mediaSkipped, categoriesCreated int)
	Fail(reason string)
	Complete(message string)
}

// Lock guards against concurrent runs. *runlock.FileLock satisfies it.
type Lock interface {
	TryLock() error
	Unlock()
	IsLocked() bool
}

// FailureSink collects per-item failures for the post-run report.
// *audit.Recorder satisfies it.
type FailureSink interface {
	Record(stage string, sourceID int64, title, reason string)
}

// Config carries the run tunables.
type Config struct {
	// ContainerID is the destination category container node.
	ContainerID int64
	BatchSize   int
	// Min/MaxBatchSize clamp memory-driven adjustments.
	MinBatchSize int
	MaxBatchSize int
	// MemoryCeiling in bytes; 0 disables batch-size adaptation.
	MemoryCeiling uint64
	// BatchPause is slept between batches to keep the destination
	// responsive during a long run.
	BatchPause time.Duration
	// SkipMedia leaves assets untransferred, SkipRewrite keeps original
	// bodies.
	SkipMedia   bool
	SkipRewrite bool
}

// Deps are the collaborators a run needs.
type Deps struct {
	Categories  *hierarchy.Builder
	Entries     EntryWriter
	Media       MediaWriter
	Fetcher     Fetcher
	NewRewriter RewriterFactory
	Progress    ProgressSink
	Lock        Lock
	Failures    FailureSink
}

// Summary reports what one run did.
type Summary struct {
	EntriesImported    int
	EntriesFailed      int
	MediaImported      int
	MediaFailed        int
	MediaSkipped       int
	CategoriesCreated  int
	CategoriesReused   int
	CategoriesFailed   int
	RewritesDegraded   int
	MediaRefsRewritten int
	LinksRewritten     int
	Elapsed            time.Duration
	// PeakAllocDelta is the growth of the heap high-water mark over the
	// run, sampled per batch.
	PeakAllocDelta uint64
}

// Orchestrator runs imports. One instance handles one run at a time; the
// lock enforces that across processes too.
type Orchestrator struct {
	cfg         Config
	categories  *hierarchy.Builder
	entries     EntryWriter
	media       MediaWriter
	fetcher     Fetcher
	newRewriter RewriterFactory
	progress    ProgressSink
	lock        Lock
	failures    FailureSink
}

func NewOrchestrator(cfg Config, deps Deps) *Orchestrator {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.MinBatchSize <= 0 {
		cfg.MinBatchSize = DefaultMinBatchSize
	}
	if cfg.MaxBatchSize <= 0 {
		cfg.MaxBatchSize = DefaultMaxBatchSize
	}
	if cfg.MaxBatchSize < cfg.MinBatchSize {
		cfg.MaxBatchSize = cfg.MinBatchSize
	}
	o := &Orchestrator{
		cfg:         cfg,
		categories:  deps.Categories,
		entries:     deps.Entries,
		media:       deps.Media,
		fetcher:     deps.Fetcher,
		newRewriter: deps.NewRewriter,
		progress:    deps.Progress,
		lock:        deps.Lock,
		failures:    deps.Failures,
	}
	if o.progress == nil {
		o.progress = noopProgress{}
	}
	if o.lock == nil {
		o.lock = noopLock{}
	}
	if o.failures == nil {
		o.failures = noopFailures{}
	}
	return o
}

// Run imports the dataset. It returns an error only for orchestration
// failures (lock contention, unreachable container, cancellation);
// per-item failures end up in the summary and the failure sink.
func (o *Orchestrator) Run(ctx context.Context, ds *Dataset) (*Summary, error) {
	if ds == nil {
		ds = &Dataset{}
	}
	if err := o.lock.TryLock(); err != nil {
		return nil, fmt.Errorf("cannot start import: %w", err)
	}
	defer o.lock.Unlock()

	start := time.Now()
	startAlloc := currentAlloc()
	peak := startAlloc
	sum := &Summary{}
	maps := destination.NewMaps()

	o.progress.Start(fmt.Sprintf("importing %d entries, %d media assets, %d categories",
		len(ds.Entries), len(ds.Media), len(ds.Categories)))

	catRes, err := o.categories.Materialize(ctx, ds.Categories, o.cfg.ContainerID)
	if err != nil {
		o.progress.Fail(err.Error())
		return sum, fmt.Errorf("category materialization: %w", err)
	}
	maps.Categories = catRes.IDMap
	sum.CategoriesCreated = catRes.Created
	sum.CategoriesReused = catRes.Reused
	sum.CategoriesFailed = catRes.Failed
	o.syncCounts(sum)
	o.progress.Publish(categoriesShare,
		fmt.Sprintf("categories ready: %d created, %d reused", catRes.Created, catRes.Reused), true)

	if err := o.importMedia(ctx, ds.Media, maps, sum, &peak); err != nil {
		o.progress.Fail(err.Error())
		return sum, err
	}
	if err := o.importEntries(ctx, ds, maps, sum, &peak); err != nil {
		o.progress.Fail(err.Error())
		return sum, err
	}

	sum.Elapsed = time.Since(start)
	if peak > startAlloc {
		sum.PeakAllocDelta = peak - startAlloc
	}
	o.syncCounts(sum)
	o.progress.Complete(fmt.Sprintf("import finished: %d entries (%d failed), %d media transferred, %d already present, %d failed",
		sum.EntriesImported, sum.EntriesFailed, sum.MediaImported, sum.MediaSkipped, sum.MediaFailed))
	log.Printf("importer: run finished in %s, peak alloc delta %d bytes",
		sum.Elapsed.Round(time.Millisecond), sum.PeakAllocDelta)
	return sum, nil
}

func (o *Orchestrator) importMedia(ctx context.Context, media []*entities.Media, maps *destination.Maps, sum *Summary, peak *uint64) error {
	total := len(media)
	if total == 0 {
		o.progress.Publish(mediaShare, "no media to transfer", true)
		return nil
	}
	if o.cfg.SkipMedia || o.fetcher == nil || o.media == nil {
		log.Printf("importer: media transfer disabled, leaving %d assets behind", total)
		o.progress.Publish(mediaShare, "media transfer skipped", true)
		return nil
	}
	done := 0
	for done < total {
		if err := o.betweenBatches(ctx, done > 0); err != nil {
			return err
		}
		size := o.nextBatchSize(total - done)
		for _, m := range media[done : done+size] {
			o.importOneMedia(ctx, m, maps, sum)
		}
		done += size
		trackPeak(peak)
		o.progress.Publish(mediaShare*float64(size)/float64(total),
			fmt.Sprintf("media %d/%d", done, total), true)
		o.syncCounts(sum)
	}
	return nil
}

func (o *Orchestrator) importOneMedia(ctx context.Context, m *entities.Media, maps *destination.Maps, sum *Summary) {
	res := o.fetcher.Fetch(ctx, m)
	if !res.OK() {
		sum.MediaFailed++
		o.failures.Record(audit.StageMedia, m.SourceID, m.Title, res.Failure)
		log.Printf("importer: media %d (%s) failed: %s", m.SourceID, m.FileName, res.Failure)
		return
	}
	id, rel, err := o.writeMedia(ctx, m, res.LocalPath)
	if err != nil {
		sum.MediaFailed++
		o.failures.Record(audit.StageMedia, m.SourceID, m.Title, err.Error())
		log.Printf("importer: media %d (%s) write failed: %v", m.SourceID, m.FileName, err)
		return
	}
	maps.Media[m.SourceID] = destination.MediaRef{ID: id, RelPath: rel}
	if res.Skipped {
		sum.MediaSkipped++
	} else {
		sum.MediaImported++
	}
}

func (o *Orchestrator) importEntries(ctx context.Context, ds *Dataset, maps *destination.Maps, sum *Summary, peak *uint64) error {
	total := len(ds.Entries)
	if total == 0 {
		o.progress.Publish(entriesShare, "no entries to import", true)
		return nil
	}
	if o.entries == nil {
		return errors.New("no entry writer configured")
	}
	var rw Rewriter
	if !o.cfg.SkipRewrite && o.newRewriter != nil {
		rw = o.newRewriter(ds.Media, maps.Media)
	}
	done := 0
	for done < total {
		if err := o.betweenBatches(ctx, done > 0); err != nil {
			return err
		}
		size := o.nextBatchSize(total - done)
		for _, e := range ds.Entries[done : done+size] {
			o.importOneEntry(ctx, e, rw, maps, sum)
		}
		done += size
		trackPeak(peak)
		o.progress.Publish(entriesShare*float64(size)/float64(total),
			fmt.Sprintf("entries %d/%d", done, total), true)
		o.syncCounts(sum)
	}
	return nil
}

func (o *Orchestrator) importOneEntry(ctx context.Context, e *entities.Entry, rw Rewriter, maps *destination.Maps, sum *Summary) {
	if rw != nil {
		body, st, err := rewriteBody(rw, e.Body)
		if err != nil {
			// The entry still imports with its original body.
			sum.RewritesDegraded++
			o.failures.Record(audit.StageRewrite, e.SourceID, e.Title, err.Error())
			log.Printf("importer: body rewrite for entry %d failed, keeping original: %v", e.SourceID, err)
		} else {
			e.Body = body
			sum.MediaRefsRewritten += st.MediaReplaced
			sum.LinksRewritten += st.LinksReplaced
		}
	}
	if _, err := o.writeEntry(ctx, e, maps); err != nil {
		sum.EntriesFailed++
		o.failures.Record(audit.StageEntry, e.SourceID, e.Title, err.Error())
		log.Printf("importer: entry %d (%s) failed: %v", e.SourceID, e.Slug, err)
		return
	}
	sum.EntriesImported++
}

// betweenBatches pauses, then polls cancellation signals: the context and
// the run lock. A lock that vanished means someone asked the run to stop.
func (o *Orchestrator) betweenBatches(ctx context.Context, pause bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if pause && o.cfg.BatchPause > 0 {
		t := time.NewTimer(o.cfg.BatchPause)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
	if !o.lock.IsLocked() {
		return ErrLockReleased
	}
	return nil
}

func (o *Orchestrator) nextBatchSize(remaining int) int {
	headroom := memoryHeadroom(o.cfg.MemoryCeiling)
	size := AdjustBatchSize(o.cfg.BatchSize, headroom, o.cfg.MinBatchSize, o.cfg.MaxBatchSize, remaining)
	if size < remaining && size != o.cfg.BatchSize {
		log.Printf("importer: batch size adjusted to %d (%.0f%% memory headroom)", size, headroom*100)
	}
	return size
}

func (o *Orchestrator) syncCounts(sum *Summary) {
	o.progress.UpdateCounts(sum.EntriesImported, sum.EntriesFailed,
		sum.MediaImported, sum.MediaFailed, sum.MediaSkipped, sum.CategoriesCreated)
}

func (o *Orchestrator) writeMedia(ctx context.Context, m *entities.Media, localPath string) (id int64, rel string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("media write panicked: %v", r)
		}
	}()
	return o.media.WriteMedia(ctx, m, localPath)
}

func (o *Orchestrator) writeEntry(ctx context.Context, e *entities.Entry, maps *destination.Maps) (id int64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("entry write panicked: %v", r)
		}
	}()
	return o.entries.WriteEntry(ctx, e, maps)
}

func rewriteBody(rw Rewriter, body string) (out string, st rewrite.Stats, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("rewrite panicked: %v", r)
		}
	}()
	out, st = rw.Rewrite(body)
	return out, st, nil
}

func currentAlloc() uint64 {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return ms.Alloc
}

func trackPeak(peak *uint64) {
	if a := currentAlloc(); a > *peak {
		*peak = a
	}
}

type noopProgress struct{}

func (noopProgress) Start(string)                              {}
func (noopProgress) Publish(float64, string, bool)             {}
func (noopProgress) UpdateCounts(int, int, int, int, int, int) {}
func (noopProgress) Fail(string)                               {}
func (noopProgress) Complete(string)                           {}

type noopLock struct{}

func (noopLock) TryLock() error { return nil }
func (noopLock) Unlock()        {}
func (noopLock) IsLocked() bool { return true }

type noopFailures struct{}

func (noopFailures) Record(string, int64, string, string) {}

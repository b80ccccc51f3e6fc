package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/mikestefanello/backlite"

	"wpmigrate/internal/audit"
	"wpmigrate/internal/config"
	"wpmigrate/internal/destination"
	"wpmigrate/internal/destination/gormstore"
	"wpmigrate/internal/destination/pgstore"
	"wpmigrate/internal/entities"
	"wpmigrate/internal/fetch"
	"wpmigrate/internal/hierarchy"
	"wpmigrate/internal/importer"
	"wpmigrate/internal/progress"
	"wpmigrate/internal/rewrite"
	"wpmigrate/internal/runlock"
	"wpmigrate/internal/scheduler"
	"wpmigrate/internal/storage"
	"wpmigrate/internal/tasks"
	"wpmigrate/internal/wxr"
)

// ImportCommand handles importing a WordPress WXR export into the
// destination content store.
type ImportCommand struct {
	ExportPath  string
	Driver      string
	DestPath    string
	DSN         string
	MediaDir    string
	BatchSize   int
	ContainerID int64
	Schedule    string
	Direct      bool
	SkipMedia   bool
	SkipRewrite bool
	DryRun      bool
	Verbose     bool

	cfg *config.Config
}

func NewImportCommand() *ImportCommand {
	return &ImportCommand{cfg: config.NewConfig()}
}

func (cmd *ImportCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("import", flag.ExitOnError)

	fs.StringVar(&cmd.ExportPath, "file", "", "Path to the WordPress WXR export file (required)")
	fs.StringVar(&cmd.Driver, "driver", cmd.cfg.Destination.Driver, "Destination driver: sqlite or postgres")
	fs.StringVar(&cmd.DestPath, "dest", cmd.cfg.Destination.Path, "Path to the SQLite destination database")
	fs.StringVar(&cmd.DSN, "dsn", cmd.cfg.Destination.DSN, "Postgres connection string (postgres driver only)")
	fs.StringVar(&cmd.MediaDir, "media-dir", cmd.cfg.Media.Dir, "Directory transferred media assets are stored under")
	fs.IntVar(&cmd.BatchSize, "batch", cmd.cfg.Importer.BatchSize, "Initial number of items written per batch")
	fs.Int64Var(&cmd.ContainerID, "container", cmd.cfg.Importer.ContainerID, "Destination category container id imported categories are placed in")
	fs.StringVar(&cmd.Schedule, "schedule", cmd.cfg.Importer.Schedule, "Cron schedule for staged re-runs (keeps the process running)")
	fs.BoolVar(&cmd.Direct, "direct", false, "Run the import in-process instead of through the task queue")
	fs.BoolVar(&cmd.SkipMedia, "skip-media", false, "Skip transferring media assets")
	fs.BoolVar(&cmd.SkipRewrite, "skip-rewrite", false, "Keep entry bodies exactly as exported, without link rewriting")
	fs.BoolVar(&cmd.DryRun, "dry-run", false, "Show what would be imported without making changes")
	fs.BoolVar(&cmd.Verbose, "verbose", false, "Enable verbose output")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s import -file <path> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Import a WordPress WXR export into the destination content store.\n\n")
		fmt.Fprintf(os.Stderr, "The import transfers entries, categories, tags, comments and media, and\n")
		fmt.Fprintf(os.Stderr, "rewrites body links to point at their imported targets. Re-running the\n")
		fmt.Fprintf(os.Stderr, "same export is safe: records are matched by their origin ids.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  # Preview what an export would import:\n")
		fmt.Fprintf(os.Stderr, "  %s import -file export.xml -dry-run -verbose\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  # Import into the default SQLite destination:\n")
		fmt.Fprintf(os.Stderr, "  %s import -file export.xml\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  # Import into Postgres:\n")
		fmt.Fprintf(os.Stderr, "  %s import -file export.xml -driver postgres -dsn \"postgres://localhost/content\"\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  # Stage the migration: transfer media nightly, content stays untouched\n")
		fmt.Fprintf(os.Stderr, "  # until the final run without -schedule:\n")
		fmt.Fprintf(os.Stderr, "  %s import -file export.xml -schedule \"0 3 * * *\"\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.ExportPath == "" {
		return fmt.Errorf("required flag -file not provided")
	}
	if cmd.Driver != config.DriverSQLite && cmd.Driver != config.DriverPostgres {
		return fmt.Errorf("unknown destination driver %q (want sqlite or postgres)", cmd.Driver)
	}
	if cmd.Driver == config.DriverPostgres && cmd.DSN == "" {
		return fmt.Errorf("the postgres driver needs -dsn or DESTINATION_DSN")
	}

	return nil
}

func (cmd *ImportCommand) Run() error {
	fmt.Println("WordPress Import")
	fmt.Println("================")

	if cmd.DryRun {
		fmt.Println("DRY RUN MODE - No changes will be made")
		fmt.Println()
	}

	if _, err := os.Stat(cmd.ExportPath); os.IsNotExist(err) {
		return fmt.Errorf("export file not found: %s", cmd.ExportPath)
	}

	fmt.Printf("File: %s\n", cmd.ExportPath)

	if cmd.DryRun {
		return cmd.preview()
	}

	// Flag values win over environment configuration.
	cmd.cfg.Destination.Driver = cmd.Driver
	cmd.cfg.Destination.Path = cmd.DestPath
	cmd.cfg.Destination.DSN = cmd.DSN
	cmd.cfg.Media.Dir = cmd.MediaDir
	cmd.cfg.Importer.BatchSize = cmd.BatchSize
	cmd.cfg.Importer.ContainerID = cmd.ContainerID

	r := &importRunner{
		cfg:         cmd.cfg,
		skipMedia:   cmd.SkipMedia,
		skipRewrite: cmd.SkipRewrite,
	}

	if cmd.Schedule != "" {
		return cmd.runScheduled(r)
	}
	if cmd.Direct || !cmd.cfg.Tasks.Enabled {
		return cmd.runDirect(r)
	}
	return cmd.runQueued(r)
}

// preview collects the export without touching the destination and
// reports what a real run would process.
func (cmd *ImportCommand) preview() error {
	ex, err := wxr.Open(cmd.ExportPath)
	if err != nil {
		return err
	}

	info := ex.Info()
	fmt.Printf("Site: %s (%s)\n", info.Title, info.Link)
	fmt.Printf("WXR version: %s\n", info.WXRVersion)

	ds, err := importer.NewCollector(nil).Collect(ex)
	if err != nil {
		return err
	}

	fmt.Printf("\nFound %d entries, %d media attachments, %d categories, %d tags\n",
		len(ds.Entries), len(ds.Media), len(ds.Categories), len(ds.Tags))
	if ds.SkippedItems > 0 || ds.MalformedItems > 0 || ds.FailedItems > 0 {
		fmt.Printf("Not importable: %d platform-internal, %d malformed, %d rejected\n",
			ds.SkippedItems, ds.MalformedItems, ds.FailedItems)
	}

	if cmd.Verbose {
		byType := make(map[entities.ContentType]int)
		byStatus := make(map[entities.EntryStatus]int)
		for _, e := range ds.Entries {
			byType[e.Type]++
			byStatus[e.Status]++
		}
		fmt.Printf("\nEntries by type: %d posts, %d pages, %d other\n",
			byType[entities.ContentTypePost], byType[entities.ContentTypePage], byType[entities.ContentTypeOther])
		fmt.Printf("Entries by status: %d published, %d drafts, %d private\n",
			byStatus[entities.EntryStatusPublished], byStatus[entities.EntryStatusDraft], byStatus[entities.EntryStatusPrivate])

		if len(ds.Categories) > 0 {
			fmt.Println("\n=== Categories ===")
			for _, c := range ds.Categories {
				if c.ParentSlug != "" {
					fmt.Printf("  %s (parent: %s)\n", c.Slug, c.ParentSlug)
				} else {
					fmt.Printf("  %s\n", c.Slug)
				}
			}
		}
	}

	fmt.Println("\nDry run complete. Use without -dry-run to import.")
	return nil
}

func (cmd *ImportCommand) runDirect(r *importRunner) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Println("\nImporting export into destination...")
	return r.RunImport(ctx, cmd.ExportPath)
}

// runQueued pushes the import through the task queue and waits for the
// in-process worker to finish it. The queue records the run either way,
// so a failed import stays inspectable after the process exits.
func (cmd *ImportCommand) runQueued(r *importRunner) error {
	cfg := cmd.cfg

	client, err := tasks.NewClient(cfg.TasksDBPath(), tasks.Config{
		Workers:         cfg.Tasks.Workers,
		ReleaseAfter:    cfg.Tasks.ReleaseAfter,
		CleanupInterval: cfg.Tasks.CleanupInterval,
	})
	if err != nil {
		return fmt.Errorf("failed to open task queue: %w", err)
	}
	defer client.Close()

	client.Register(tasks.NewImportRunQueue(r))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	client.Start(ctx)

	ids, err := client.Add(tasks.ImportRunTask{ExportPath: cmd.ExportPath}).Save()
	if err != nil {
		return fmt.Errorf("failed to enqueue import: %w", err)
	}
	taskID := ids[0]
	fmt.Printf("\nQueued import task %s\n", taskID)

	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		client.Stop(stopCtx)
	}()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("import interrupted")
		case <-time.After(time.Second):
		}

		status, err := client.Status(context.Background(), taskID)
		if err != nil {
			return fmt.Errorf("failed to check task status: %w", err)
		}
		switch status {
		case backlite.TaskStatusSuccess:
			return nil
		case backlite.TaskStatusFailure:
			return fmt.Errorf("import task %s failed, see the log above", taskID)
		case backlite.TaskStatusNotFound:
			return fmt.Errorf("import task %s disappeared from the queue", taskID)
		}
	}
}

// runScheduled keeps the process alive and re-runs the import on the
// given cron schedule. The first run starts immediately.
func (cmd *ImportCommand) runScheduled(r *importRunner) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	imp := scheduler.NewImporter(cmd.Schedule, func(ctx context.Context) error {
		return r.RunImport(ctx, cmd.ExportPath)
	})
	if err := imp.Start(ctx); err != nil {
		return err
	}

	fmt.Printf("\nSchedule %q active. Press Ctrl+C to stop.\n", cmd.Schedule)
	imp.RunNow()

	<-ctx.Done()
	fmt.Println("\nStopping import schedule...")
	imp.Stop()
	return nil
}

// importRunner executes one full import. It satisfies tasks.ImportRunner,
// so direct, queued and scheduled runs all share the same path.
type importRunner struct {
	cfg         *config.Config
	skipMedia   bool
	skipRewrite bool
}

func (r *importRunner) RunImport(ctx context.Context, exportPath string) error {
	sum, err := r.run(ctx, exportPath)
	if err != nil {
		return err
	}
	printSummary(sum)
	return nil
}

func (r *importRunner) run(ctx context.Context, exportPath string) (*importer.Summary, error) {
	cfg := r.cfg

	ex, err := wxr.Open(exportPath)
	if err != nil {
		return nil, err
	}

	recorder := audit.NewRecorder(cfg.Audit.Dir)
	ds, err := importer.NewCollector(recorder).Collect(ex)
	if err != nil {
		return nil, err
	}

	stateStore, err := storage.NewDisk(cfg.State.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open state directory: %w", err)
	}
	tracker := progress.NewTracker(stateStore, config.ProgressFileName)
	lock := runlock.New(cfg.LockPath(), cfg.State.LockTTL)

	var (
		entryWriter importer.EntryWriter
		mediaWriter importer.MediaWriter
		builder     *hierarchy.Builder
		closeStore  func()
	)
	switch cfg.Destination.Driver {
	case config.DriverPostgres:
		pg, err := pgstore.Connect(ctx, cfg.Destination.DSN)
		if err != nil {
			return nil, err
		}
		if err := pgstore.Migrate(ctx, pg.Pool()); err != nil {
			pg.Close()
			return nil, err
		}
		entryWriter, mediaWriter = pg, pg
		builder = hierarchy.NewBuilder(pg)
		closeStore = func() { pg.Close() }
	case config.DriverSQLite:
		st, err := gormstore.Open(cfg.Destination.Path)
		if err != nil {
			return nil, err
		}
		entryWriter, mediaWriter = st, st
		builder = hierarchy.NewBuilder(st)
		closeStore = func() {
			if err := st.Close(); err != nil {
				log.Printf("cli: failed to close destination: %v", err)
			}
		}
	default:
		return nil, fmt.Errorf("unknown destination driver %q", cfg.Destination.Driver)
	}
	defer closeStore()

	// The disk client is rooted at the media directory itself, so the
	// stored relative paths are exactly what MediaBaseURL serves.
	var fetcher importer.Fetcher
	if !r.skipMedia {
		mediaStore, err := storage.NewDisk(cfg.Media.Dir)
		if err != nil {
			return nil, fmt.Errorf("failed to open media directory: %w", err)
		}
		fetcher = fetch.NewFetcher(mediaStore, fetch.Config{
			MediaDir:        ".",
			Timeout:         cfg.Media.FetchTimeout,
			PerHostInterval: cfg.Media.PerHostInterval,
			MaxBytes:        cfg.Media.MaxBytes,
			AllowedTypes:    cfg.Media.AllowedTypes,
		})
	}

	newRewriter := func(assets []*entities.Media, refs map[int64]destination.MediaRef) importer.Rewriter {
		return rewrite.New(rewrite.Options{
			Assets:       assets,
			Refs:         refs,
			MediaBaseURL: cfg.Media.BaseURL,
			Section:      cfg.Rewrite.Section,
			Bases:        basePairs(cfg.Rewrite.Bases, ds.Info),
		})
	}

	orc := importer.NewOrchestrator(importer.Config{
		ContainerID:   cfg.Importer.ContainerID,
		BatchSize:     cfg.Importer.BatchSize,
		MinBatchSize:  cfg.Importer.MinBatchSize,
		MaxBatchSize:  cfg.Importer.MaxBatchSize,
		MemoryCeiling: cfg.Importer.MemoryCeiling,
		BatchPause:    cfg.Importer.BatchPause,
		SkipMedia:     r.skipMedia,
		SkipRewrite:   r.skipRewrite,
	}, importer.Deps{
		Categories:  builder,
		Entries:     entryWriter,
		Media:       mediaWriter,
		Fetcher:     fetcher,
		NewRewriter: newRewriter,
		Progress:    tracker,
		Lock:        lock,
		Failures:    recorder,
	})

	sum, err := orc.Run(ctx, ds)
	if err != nil {
		if errors.Is(err, runlock.ErrLockHeld) {
			return nil, fmt.Errorf("another import is already running: %w", err)
		}
		return nil, err
	}

	if recorder.Len() > 0 {
		name, err := recorder.SaveReport(tracker.RunID())
		if err != nil {
			log.Printf("cli: failed to save failure report: %v", err)
		} else {
			fmt.Printf("Failure report: %s\n", filepath.Join(cfg.Audit.Dir, name))
		}
	}

	return sum, nil
}

// basePairs merges configured source=dest base mappings with the origin
// bases declared by the export itself. Explicit mappings come first so
// they win; detected origin bases fall back to root-relative links.
func basePairs(mappings []string, info wxr.Info) []rewrite.BasePair {
	var pairs []rewrite.BasePair
	seen := make(map[string]bool)
	add := func(src, dst string) {
		src = strings.TrimRight(strings.TrimSpace(src), "/")
		if src == "" || seen[src] {
			return
		}
		seen[src] = true
		pairs = append(pairs, rewrite.BasePair{Source: src, Dest: strings.TrimRight(strings.TrimSpace(dst), "/")})
	}

	for _, m := range mappings {
		src, dst, ok := strings.Cut(m, "=")
		if !ok {
			log.Printf("cli: ignoring malformed base mapping %q, want source=dest", m)
			continue
		}
		add(src, dst)
	}
	// The blog URL goes first: it is the more specific prefix when the
	// blog lives under a subpath of the site.
	add(info.BlogURL, "")
	add(info.SiteURL, "")
	return pairs
}

func printSummary(sum *importer.Summary) {
	fmt.Println("\n=== Import Summary ===")
	fmt.Printf("Entries imported: %d\n", sum.EntriesImported)
	if sum.EntriesFailed > 0 {
		fmt.Printf("Entries failed: %d\n", sum.EntriesFailed)
	}
	fmt.Printf("Media transferred: %d (%d skipped)\n", sum.MediaImported, sum.MediaSkipped)
	if sum.MediaFailed > 0 {
		fmt.Printf("Media failed: %d\n", sum.MediaFailed)
	}
	fmt.Printf("Categories: %d created, %d reused\n", sum.CategoriesCreated, sum.CategoriesReused)
	if sum.CategoriesFailed > 0 {
		fmt.Printf("Categories failed: %d\n", sum.CategoriesFailed)
	}
	fmt.Printf("Links rewritten: %d media references, %d internal links\n",
		sum.MediaRefsRewritten, sum.LinksRewritten)
	if sum.RewritesDegraded > 0 {
		fmt.Printf("Bodies kept as exported after rewrite errors: %d\n", sum.RewritesDegraded)
	}
	fmt.Printf("Elapsed: %s\n", sum.Elapsed.Round(time.Millisecond))
}

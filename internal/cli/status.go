package cli

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"wpmigrate/internal/config"
	"wpmigrate/internal/entities"
	"wpmigrate/internal/progress"
	"wpmigrate/internal/storage"
)

// StatusCommand prints the state of the latest import run.
type StatusCommand struct {
	StateDir string
}

func NewStatusCommand() *StatusCommand {
	return &StatusCommand{}
}

func (cmd *StatusCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("status", flag.ExitOnError)

	cfg := config.NewConfig()
	fs.StringVar(&cmd.StateDir, "state", cfg.State.Dir, "Directory holding the run state")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s status [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Show the state of the latest import run.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	return fs.Parse(args)
}

func (cmd *StatusCommand) Run() error {
	store, err := storage.NewDisk(cmd.StateDir)
	if err != nil {
		return fmt.Errorf("failed to open state directory: %w", err)
	}

	run, err := progress.NewTracker(store, config.ProgressFileName).Read()
	if errors.Is(err, progress.ErrNoRun) {
		fmt.Println("No import has run yet.")
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Println("Import Status")
	fmt.Println("=============")
	fmt.Printf("Run: %s\n", run.RunID)
	fmt.Printf("Status: %s\n", run.Status)
	fmt.Printf("Progress: %.1f%%\n", run.Percent)
	if run.Message != "" {
		fmt.Printf("Last message: %s\n", run.Message)
	}
	if run.Status == entities.RunStatusFailed && run.Error != "" {
		fmt.Printf("Error: %s\n", run.Error)
	}

	fmt.Printf("\nEntries imported: %d", run.EntriesImported)
	if run.EntriesFailed > 0 {
		fmt.Printf(" (%d failed)", run.EntriesFailed)
	}
	fmt.Println()
	fmt.Printf("Media transferred: %d (%d skipped", run.MediaImported, run.MediaSkipped)
	if run.MediaFailed > 0 {
		fmt.Printf(", %d failed", run.MediaFailed)
	}
	fmt.Println(")")
	fmt.Printf("Categories created: %d\n", run.CategoriesCreated)

	fmt.Printf("\nStarted: %s\n", run.StartedAt.Format(time.RFC1123))
	fmt.Printf("Updated: %s\n", run.UpdatedAt.Format(time.RFC1123))
	return nil
}
